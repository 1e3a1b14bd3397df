package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/meltforce/ironlog/internal/ingest"
	"github.com/meltforce/ironlog/internal/models"
)

// Recorder persists completed workouts.
type Recorder interface {
	Append(ctx context.Context, userID int, w models.Workout) error
}

// Exercises lists the exercises a user can log.
type Exercises interface {
	All(ctx context.Context, userID int) ([]models.Exercise, error)
}

// Provider imports Alpha Progression CSV exports.
type Provider struct {
	recorder  Recorder
	exercises Exercises
	log       *slog.Logger
}

// NewProvider creates an Alpha Progression provider. exercises may be nil.
func NewProvider(recorder Recorder, exercises Exercises, log *slog.Logger) *Provider {
	return &Provider{recorder: recorder, exercises: exercises, log: log}
}

var _ ingest.Provider = (*Provider)(nil)

// Ingest parses an export and records every session as a completed workout.
// A session that fails to save is counted and reported; the rest still import.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	known := map[string]models.Exercise{}
	if p.exercises != nil {
		all, err := p.exercises.All(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("loading exercises: %w", err)
		}
		for _, e := range all {
			known[strings.ToLower(e.Name)] = e
		}
	}

	result := &ingest.Result{WorkoutsReceived: len(sessions)}
	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		w := ToWorkout(userID, s, known)
		sets := 0
		for _, ex := range w.Exercises {
			sets += len(ex.Sets)
		}
		result.SetsReceived += sets

		if err := p.recorder.Append(ctx, userID, w); err != nil {
			p.log.Warn("importing session", "user_id", userID, "session", s.Name, "date", s.Date, "error", err)
			result.WorkoutsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", s.Date.Format("2006-01-02"), s.Name, err))
			continue
		}
		result.WorkoutsImported++
		result.SetsImported += sets
		result.Volume += w.Volume
	}

	result.Message = fmt.Sprintf("imported %d of %d sessions", result.WorkoutsImported, result.WorkoutsReceived)
	p.log.Info("alpha import", "user_id", userID, "imported", result.WorkoutsImported, "failed", result.WorkoutsFailed)
	return result, nil
}
