package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/ironlog/internal/models"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// workoutSummary is the compact form list_workouts returns.
type workoutSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes float64   `json:"duration_minutes"`
	Volume          float64   `json:"volume"`
	Exercises       []string  `json:"exercises"`
	CompletedSets   int       `json:"completed_sets"`
}

func summarize(w models.Workout) workoutSummary {
	s := workoutSummary{
		ID:              w.ID,
		Name:            w.Name,
		StartTime:       w.StartTime,
		DurationMinutes: w.Duration().Round(time.Second).Minutes(),
		Volume:          w.Volume,
		Exercises:       make([]string, 0, len(w.Exercises)),
	}
	for _, ex := range w.Exercises {
		s.Exercises = append(s.Exercises, ex.Exercise.Name)
		for _, set := range ex.Sets {
			if set.Completed {
				s.CompletedSets++
			}
		}
	}
	return s
}

// filterWorkouts keeps workouts started in [start, end] whose name contains
// name, case-insensitively.
func filterWorkouts(ws []models.Workout, start, end time.Time, name string) []workoutSummary {
	name = strings.ToLower(name)
	out := []workoutSummary{}
	for _, w := range ws {
		if w.StartTime.Before(start) || w.StartTime.After(end) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(w.Name), name) {
			continue
		}
		out = append(out, summarize(w))
	}
	return out
}

func graphTypeNames() []string {
	out := make([]string, len(models.GraphTypes))
	for i, g := range models.GraphTypes {
		out[i] = string(g.Type)
	}
	return out
}

func muscleGroupNames() []string {
	out := make([]string, len(models.MuscleGroups))
	for i, mg := range models.MuscleGroups {
		out[i] = string(mg)
	}
	return out
}

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List completed workouts, newest first, with duration, volume (kg x reps over completed working sets) and exercises performed."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("name", mcp.Description("Case-insensitive substring filter on the workout name (e.g. 'push', 'leg day')")),
	mcp.WithNumber("limit", mcp.Description("Maximum workouts to return. Defaults to 20.")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout with every exercise and set (weight, reps, type, completed)."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID from list_workouts")),
)

var toolGetWorkoutInsights = mcp.NewTool("get_workout_insights",
	mcp.WithDescription("Analyze one workout against the user's history: personal records hit, progress vs the previous workout with the same name, weekly consistency and intensity."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID from list_workouts")),
)

var toolGetChart = mcp.NewTool("get_chart",
	mcp.WithDescription("Build a progress chart as labelled series over the workout history."),
	mcp.WithString("type", mcp.Required(), mcp.Description("Chart type"), mcp.Enum(graphTypeNames()...)),
	mcp.WithString("range", mcp.Description("Look-back window. Defaults to 30d."), mcp.Enum("7d", "30d", "90d", "all")),
	mcp.WithString("exercise_id", mcp.Description("Exercise ID, required for exercise_progress (see search_exercises)")),
)

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the exercise library by name and muscle group (primary or secondary)."),
	mcp.WithString("query", mcp.Description("Case-insensitive name search")),
	mcp.WithString("muscle", mcp.Description("Muscle group filter"), mcp.Enum(muscleGroupNames()...)),
)

var toolListRoutines = mcp.NewTool("list_routines",
	mcp.WithDescription("List saved workout routines with their templated exercises and targets."),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Get the heaviest recorded lift per exercise, with reps and the workout it was set in."),
)

var toolGetTrainingStats = mcp.NewTool("get_training_stats",
	mcp.WithDescription("Get lifetime totals: workouts, sets, volume, routines, custom exercises, records, and per-workout-name breakdown."),
)

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	ws, err := h.ds.ListWorkouts(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := filterWorkouts(ws, start, end, req.GetString("name", ""))
	if limit := req.GetInt("limit", 20); limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	w, err := h.ds.GetWorkout(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		h.log.Error("mcp get_workout", "workout_id", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(w)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	in, err := h.ds.WorkoutInsights(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		h.log.Error("mcp get_workout_insights", "workout_id", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(in)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getChart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("type parameter is required"), nil
	}
	t, err := models.ParseGraphType(typ)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := models.ParseTimeRange(req.GetString("range", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exerciseID := req.GetString("exercise_id", "")
	if t == models.GraphExerciseProgress && exerciseID == "" {
		return mcp.NewToolResultError("exercise_id is required for exercise_progress"), nil
	}

	ch, err := h.ds.Chart(ctx, UserIDFromContext(ctx), t, r, exerciseID)
	if err != nil {
		h.log.Error("mcp get_chart", "type", t, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(ch)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var muscle models.MuscleGroup
	if m := req.GetString("muscle", ""); m != "" {
		mg, err := models.ParseMuscleGroup(m)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		muscle = mg
	}

	es, err := h.ds.ListExercises(ctx, UserIDFromContext(ctx), req.GetString("query", ""), muscle)
	if err != nil {
		h.log.Error("mcp search_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(es)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listRoutines(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rs, err := h.ds.ListRoutines(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_routines", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(rs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prs, err := h.ds.ListPersonalRecords(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(prs)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.GetDataStats(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_training_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(st)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
