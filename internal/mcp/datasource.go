package mcp

import (
	"context"
	"time"

	"github.com/meltforce/ironlog/internal/analysis"
	"github.com/meltforce/ironlog/internal/analytics"
	"github.com/meltforce/ironlog/internal/catalog"
	"github.com/meltforce/ironlog/internal/client"
	"github.com/meltforce/ironlog/internal/dashboard"
	"github.com/meltforce/ironlog/internal/history"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/routine"
	"github.com/meltforce/ironlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process) and
// client.Client (remote via REST API) satisfy this interface.
type DataSource interface {
	ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error)
	GetWorkout(ctx context.Context, userID int, id string) (models.Workout, error)
	WorkoutInsights(ctx context.Context, userID int, id string) (*analysis.Insights, error)
	Chart(ctx context.Context, userID int, t models.GraphType, r models.TimeRange, exerciseID string) (*dashboard.Chart, error)
	ListExercises(ctx context.Context, userID int, query string, muscle models.MuscleGroup) ([]models.Exercise, error)
	ListRoutines(ctx context.Context, userID int) ([]models.Routine, error)
	ListPersonalRecords(ctx context.Context, userID int) ([]models.PersonalRecordRow, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
}

var (
	_ DataSource = (*Local)(nil)
	_ DataSource = (*client.Client)(nil)
)

// Store is the part of the database Local reads directly.
type Store interface {
	ListPersonalRecords(ctx context.Context, userID int) ([]models.PersonalRecordRow, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
}

// Local serves MCP tools from the services of a running server.
type Local struct {
	History  *history.Service
	Catalog  *catalog.Catalog
	Routines *routine.Service
	Cache    *analytics.Cache
	Store    Store
	Now      func() time.Time
}

func (l *Local) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func (l *Local) ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	return l.History.List(ctx, userID)
}

func (l *Local) GetWorkout(ctx context.Context, userID int, id string) (models.Workout, error) {
	return l.History.Get(ctx, userID, id)
}

func (l *Local) WorkoutInsights(ctx context.Context, userID int, id string) (*analysis.Insights, error) {
	ws, err := l.History.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	w, err := l.History.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	in := analysis.Summarize(w, ws)
	return &in, nil
}

func (l *Local) Chart(ctx context.Context, userID int, t models.GraphType, r models.TimeRange, exerciseID string) (*dashboard.Chart, error) {
	ws, err := l.History.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	cfg := models.GraphConfig{Type: t, Title: t.DefaultTitle(), TimeRange: r, ExerciseID: exerciseID}
	if cfg.TimeRange == "" {
		cfg.TimeRange = models.DefaultTimeRange
	}
	return &dashboard.Chart{Graph: cfg, Data: l.Cache.Chart(userID, cfg, ws, l.now())}, nil
}

func (l *Local) ListExercises(ctx context.Context, userID int, query string, muscle models.MuscleGroup) ([]models.Exercise, error) {
	return l.Catalog.Find(ctx, userID, query, muscle)
}

func (l *Local) ListRoutines(ctx context.Context, userID int) ([]models.Routine, error) {
	return l.Routines.List(ctx, userID)
}

func (l *Local) ListPersonalRecords(ctx context.Context, userID int) ([]models.PersonalRecordRow, error) {
	return l.Store.ListPersonalRecords(ctx, userID)
}

func (l *Local) GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error) {
	return l.Store.GetDataStats(ctx, userID)
}
