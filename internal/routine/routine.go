// Package routine manages reusable workout templates.
package routine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/ironlog/internal/models"
)

// CopySuffix is appended to the name of a duplicated routine.
const CopySuffix = " (Copy)"

// Store is the routine source. ListRoutines returns newest first.
type Store interface {
	ListRoutines(ctx context.Context, userID int) ([]models.Routine, error)
	GetRoutine(ctx context.Context, userID int, id string) (models.Routine, error)
	InsertRoutine(ctx context.Context, r models.Routine) error
	UpdateRoutine(ctx context.Context, r models.Routine) error
	DeleteRoutine(ctx context.Context, userID int, id string) error
	MarkRoutineUsed(ctx context.Context, userID int, id string, at time.Time) error
}

// Draft holds the user-editable fields of a new routine.
type Draft struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Exercises   []models.RoutineExercise `json:"exercises"`
}

// Patch holds the fields to change on an existing routine. Nil fields are kept.
type Patch struct {
	Name        *string                   `json:"name,omitempty"`
	Description *string                   `json:"description,omitempty"`
	Exercises   *[]models.RoutineExercise `json:"exercises,omitempty"`
}

// Service implements routine CRUD on top of a Store.
type Service struct {
	store Store
	now   func() time.Time
	log   *slog.Logger
}

// New creates a Service. now defaults to time.Now.
func New(store Store, now func() time.Time, log *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now, log: log}
}

func wrap(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidInput) {
		return err
	}
	return models.Persistence(op, err)
}

// normalize gives every exercise an id and renumbers Order by position.
func normalize(exercises []models.RoutineExercise, fresh bool) []models.RoutineExercise {
	out := make([]models.RoutineExercise, len(exercises))
	for i, re := range exercises {
		if re.ID == "" || fresh {
			re.ID = uuid.NewString()
		}
		re.Order = i
		if re.Exercise.ID == "" {
			re.Exercise.ID = re.ExerciseID
		}
		out[i] = re
	}
	return out
}

// List returns userID's routines, newest first.
func (s *Service) List(ctx context.Context, userID int) ([]models.Routine, error) {
	rs, err := s.store.ListRoutines(ctx, userID)
	if err != nil {
		return nil, wrap("listing routines", err)
	}
	if rs == nil {
		rs = []models.Routine{}
	}
	return rs, nil
}

// Get returns one routine.
func (s *Service) Get(ctx context.Context, userID int, id string) (models.Routine, error) {
	r, err := s.store.GetRoutine(ctx, userID, id)
	if err != nil {
		return models.Routine{}, wrap("getting routine", err)
	}
	return r, nil
}

// Create stores a new routine built from d.
func (s *Service) Create(ctx context.Context, userID int, d Draft) (models.Routine, error) {
	now := s.now()
	r := models.Routine{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(d.Name),
		Description: d.Description,
		Exercises:   normalize(d.Exercises, false),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.Validate(); err != nil {
		return models.Routine{}, err
	}
	if err := s.store.InsertRoutine(ctx, r); err != nil {
		return models.Routine{}, wrap("creating routine", err)
	}
	s.log.Info("routine created", "user_id", userID, "routine_id", r.ID, "exercises", len(r.Exercises))
	return r, nil
}

// Update applies p to a routine and bumps its updated time.
func (s *Service) Update(ctx context.Context, userID int, id string, p Patch) (models.Routine, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Routine{}, err
	}
	if p.Name != nil {
		r.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Exercises != nil {
		r.Exercises = normalize(*p.Exercises, false)
	}
	r.UpdatedAt = s.now()
	if err := r.Validate(); err != nil {
		return models.Routine{}, err
	}
	if err := s.store.UpdateRoutine(ctx, r); err != nil {
		return models.Routine{}, wrap("updating routine", err)
	}
	return r, nil
}

// Delete removes a routine. Workouts started from it are kept.
func (s *Service) Delete(ctx context.Context, userID int, id string) error {
	if err := s.store.DeleteRoutine(ctx, userID, id); err != nil {
		return wrap("deleting routine", err)
	}
	return nil
}

// Duplicate copies a routine under the name "<name> (Copy)".
func (s *Service) Duplicate(ctx context.Context, userID int, id string) (models.Routine, error) {
	src, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.Routine{}, err
	}
	d := Draft{
		Name:        src.Name + CopySuffix,
		Description: src.Description,
		Exercises:   normalize(src.Exercises, true),
	}
	return s.Create(ctx, userID, d)
}

// MarkUsed stamps the routine's last-used time. Failures are only logged.
func (s *Service) MarkUsed(ctx context.Context, userID int, id string) {
	if err := s.store.MarkRoutineUsed(ctx, userID, id, s.now()); err != nil {
		s.log.Warn("stamping routine last used", "user_id", userID, "routine_id", id, "error", err)
	}
}

// Resolve fills in exercise details for routine exercises from lookup.
// Entries lookup does not know keep their stored details.
func Resolve(r models.Routine, lookup map[string]models.Exercise) models.Routine {
	out := r
	out.Exercises = make([]models.RoutineExercise, len(r.Exercises))
	for i, re := range r.Exercises {
		if e, ok := lookup[re.ExerciseID]; ok {
			re.Exercise = e
		}
		out.Exercises[i] = re
	}
	return out
}
