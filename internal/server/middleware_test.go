package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailscale.com/client/tailscale/apitype"

	"github.com/meltforce/ironlog/internal/metrics"
)

func serve(h http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// recordingHandler records whether it ran and who the request was
// attributed to.
type recordingHandler struct {
	called bool
	id     int
	info   UserInfo
}

func (p *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.called = true
	p.id = userIDFromContext(r)
	p.info = userInfoFromContext(r)
	w.WriteHeader(http.StatusOK)
}

func TestIdentityContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, devUserID, userIDFromContext(req), "no identity falls back to the dev user")
	assert.Equal(t, devUser, userInfoFromContext(req))

	alice := UserInfo{Login: "alice@example.com", DisplayName: "Alice"}
	req = withUser(req, 42, alice)
	assert.Equal(t, 42, userIDFromContext(req))
	assert.Equal(t, alice, userInfoFromContext(req))

	next := &recordingHandler{}
	rec := serve(DevIdentity(next), http.MethodPost, "/api/v1/session/start", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, devUserID, next.id)
	assert.Equal(t, UserInfo{Login: "local", DisplayName: "Local Dev User"}, next.info)
}

func TestTailscaleIdentityMiddleware(t *testing.T) {
	noProfile := whoisFunc(func(context.Context, string) (*apitype.WhoIsResponse, error) {
		return &apitype.WhoIsResponse{}, nil
	})
	tests := []struct {
		name     string
		whois    WhoIser
		storeErr error
		want     int
	}{
		{name: "resolved", whois: fakeWhoIs{login: "alice@example.com"}, want: http.StatusOK},
		{name: "whois error", whois: fakeWhoIs{err: errors.New("no peer")}, want: http.StatusUnauthorized},
		{name: "no user profile", whois: noProfile, want: http.StatusUnauthorized},
		{name: "user lookup fails", whois: fakeWhoIs{login: "bob@example.com"}, storeErr: errors.New("db down"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeStore{users: map[string]int{}, err: tt.storeErr}
			next := &recordingHandler{}
			rec := serve(TailscaleIdentity(tt.whois, users, quiet)(next), http.MethodGet, "/api/v1/me", nil)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want == http.StatusOK, next.called)
			if tt.want != http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"error"`)
				return
			}
			assert.Equal(t, users.users["alice@example.com"], next.id)
			assert.NotEqual(t, devUserID, next.id)
			assert.Equal(t, UserInfo{Login: "alice@example.com", DisplayName: "Alice"}, next.info)
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		method string
		key    string
		want   int
	}{
		{name: "get needs no key", apiKey: "secret", method: http.MethodGet, want: http.StatusOK},
		{name: "head needs no key", apiKey: "secret", method: http.MethodHead, want: http.StatusOK},
		{name: "options needs no key", apiKey: "secret", method: http.MethodOptions, want: http.StatusOK},
		{name: "missing key", apiKey: "secret", method: http.MethodPost, want: http.StatusUnauthorized},
		{name: "wrong key", apiKey: "secret", method: http.MethodDelete, key: "guess", want: http.StatusForbidden},
		{name: "right key", apiKey: "secret", method: http.MethodPatch, key: "secret", want: http.StatusOK},
		{name: "check disabled", method: http.MethodPost, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &recordingHandler{}
			header := http.Header{}
			if tt.key != "" {
				header.Set("X-API-Key", tt.key)
			}
			rec := serve(APIKeyAuth(tt.apiKey)(next), tt.method, "/api/v1/workouts", header)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want == http.StatusOK, next.called)
		})
	}
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestLogging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := serve(h, http.MethodPost, "/api/v1/session/finish", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, http.MethodPost, entry["method"])
	assert.Equal(t, "/api/v1/session/finish", entry["path"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.NotEmpty(t, entry["duration"])
}

func TestRequestMetrics(t *testing.T) {
	m := metrics.NewTestManager()
	r := chi.NewRouter()
	r.Use(RequestMetrics(m))
	r.Get("/api/v1/workouts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	serve(r, http.MethodGet, "/api/v1/workouts/a", nil)
	serve(r, http.MethodGet, "/api/v1/workouts/b", nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues(http.MethodGet, "/api/v1/workouts/{id}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HistRequestDuration))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GaugeRequests), "in-flight gauge returns to zero")

	// outside a chi router there is no route pattern
	plain := RequestMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serve(plain, http.MethodPost, "/raw", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues(http.MethodPost, "unmatched", "200")))
}

func TestRequestMetricsNilManager(t *testing.T) {
	next := &recordingHandler{}
	rec := serve(RequestMetrics(nil)(next), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, next.called)
}

func TestRequestMetricsUsesRoutePattern(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodGet, "/api/v1/workouts/abc", nil)
	got := testutil.ToFloat64(h.metrics.CounterRequests.WithLabelValues(http.MethodGet, "/api/v1/workouts/{id}", "404"))
	assert.Equal(t, 1.0, got)
}

func TestPanicRecovery(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	m := metrics.NewTestManager()
	rec := serve(PanicRecovery(quiet, m)(boom), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterHandleRequestPanic))

	rec = serve(PanicRecovery(quiet, nil)(boom), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "recovers without metrics")

	abort := PanicRecovery(quiet, m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() { serve(abort, http.MethodGet, "/", nil) })
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterHandleRequestPanic), "aborts are not counted")
}

func TestCORS(t *testing.T) {
	next := &recordingHandler{}
	rec := serve(CORS(next), http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)

	preflight := &recordingHandler{}
	rec = serve(CORS(preflight), http.MethodOptions, "/api/v1/workouts", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, preflight.called, "preflight does not reach the handler")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
