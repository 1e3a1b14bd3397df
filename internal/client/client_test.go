package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meltforce/ironlog/internal/analysis"
	"github.com/meltforce/ironlog/internal/dashboard"
	"github.com/meltforce/ironlog/internal/ingest"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/storage"
)

// newTestServer routes requests to handler functions keyed by path, failing
// the test on any unexpected path.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

func TestListWorkouts(t *testing.T) {
	end := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusOK, []models.Workout{
				{ID: "w1", Name: "Push", StartTime: end.Add(-time.Hour), EndTime: &end, Status: models.StatusCompleted, Volume: 1200},
			})
		},
	})

	ws, err := New(ts.URL).ListWorkouts(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 1 {
		t.Fatalf("got %d workouts, want 1", len(ws))
	}
	if ws[0].Volume != 1200 {
		t.Errorf("volume=%v, want 1200", ws[0].Volume)
	}
	if !ws[0].EndTime.Equal(end) {
		t.Errorf("end=%v, want %v", ws[0].EndTime, end)
	}
}

func TestChartQueryParams(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/charts/exercise_progress": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("range"); got != "90d" {
				t.Errorf("range=%q, want 90d", got)
			}
			if got := r.URL.Query().Get("exercise_id"); got != "5" {
				t.Errorf("exercise_id=%q, want 5", got)
			}
			writeTestJSON(t, w, http.StatusOK, dashboard.Chart{
				Graph: models.GraphConfig{Type: models.GraphExerciseProgress},
				Data:  models.ChartSeries{Labels: []string{"Mar 1"}, Series: []float64{140}},
			})
		},
	})

	ch, err := New(ts.URL).Chart(context.Background(), 1, models.GraphExerciseProgress, models.Range90d, "5")
	if err != nil {
		t.Fatal(err)
	}
	if ch.Data.Len() != 1 || ch.Data.Series[0] != 140 {
		t.Errorf("data=%+v, want one point of 140", ch.Data)
	}
}

func TestListExercisesFilters(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("q") != "press" || q.Get("muscle") != "Chest" {
				t.Errorf("query=%v, want q=press muscle=Chest", q)
			}
			writeTestJSON(t, w, http.StatusOK, []models.Exercise{{ID: "1", Name: "Barbell Bench Press"}})
		},
	})

	es, err := New(ts.URL).ListExercises(context.Background(), 1, "press", models.MuscleChest)
	if err != nil {
		t.Fatal(err)
	}
	if len(es) != 1 || es[0].ID != "1" {
		t.Errorf("exercises=%+v", es)
	}
}

func TestInsightsAndStats(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/w 1/insights": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusOK, analysis.Insights{WorkoutID: "w 1", PRCount: 2})
		},
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusOK, storage.DataStats{TotalWorkouts: 42})
		},
	})
	c := New(ts.URL)

	in, err := c.WorkoutInsights(context.Background(), 1, "w 1")
	if err != nil {
		t.Fatal(err)
	}
	if in.PRCount != 2 {
		t.Errorf("pr_count=%d, want 2", in.PRCount)
	}

	st, err := c.GetDataStats(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalWorkouts != 42 {
		t.Errorf("total_workouts=%d, want 42", st.TotalWorkouts)
	}
}

func TestImportAlphaSendsKey(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/import/alpha": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method=%s, want POST", r.Method)
			}
			if got := r.Header.Get("X-API-Key"); got != "k" {
				t.Errorf("api key=%q, want k", got)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != "csv" {
				t.Errorf("body=%q, want csv", body)
			}
			writeTestJSON(t, w, http.StatusOK, ingest.Result{WorkoutsImported: 3})
		},
	})

	res, err := New(ts.URL, WithAPIKey("k")).ImportAlpha(context.Background(), []byte("csv"))
	if err != nil {
		t.Fatal(err)
	}
	if res.WorkoutsImported != 3 {
		t.Errorf("imported=%d, want 3", res.WorkoutsImported)
	}
}

// TestErrorStatus verifies non-2xx responses surface the server's error
// message and map to the domain sentinel.
func TestErrorStatus(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/missing": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusNotFound, map[string]string{"error": "workout missing: not found"})
		},
		"/api/v1/records": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusBadGateway, map[string]string{"error": "db down"})
		},
	})
	c := New(ts.URL)

	_, err := c.GetWorkout(context.Background(), 1, "missing")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err=%v, want *StatusError", err)
	}
	if se.Body != "workout missing: not found" {
		t.Errorf("body=%q", se.Body)
	}
	if !errors.Is(err, models.ErrNotFound) {
		t.Error("want errors.Is(err, ErrNotFound)")
	}

	_, err = c.ListPersonalRecords(context.Background(), 1)
	if !errors.Is(err, models.ErrPersistence) {
		t.Errorf("err=%v, want ErrPersistence", err)
	}
}

func TestListImportsLimit(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/imports": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "5" {
				t.Errorf("limit=%q, want 5", got)
			}
			writeTestJSON(t, w, http.StatusOK, []storage.ImportLog{{ID: 1, Source: "alpha", Status: storage.ImportSucceeded}})
		},
	})

	logs, err := New(ts.URL).ListImports(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Source != "alpha" {
		t.Errorf("logs=%+v, want one alpha import", logs)
	}
}
