// Package session runs the lifecycle of a user's in-progress workout:
// NoActiveWorkout -> Active -> {Completed, Discarded} -> NoActiveWorkout.
//
// Structural edits made while no workout is active, or while a finish is in
// flight, are silently ignored. Only one finish may be in flight at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

var (
	ErrWorkoutActive    = errors.New("a workout is already active")
	ErrNoActiveWorkout  = errors.New("no active workout")
	ErrFinishInProgress = errors.New("workout finish already in progress")
)

// DefaultName is used when a workout is started without a name.
const DefaultName = "New Workout"

// DefaultSaveTimeout bounds the persistence call made by Finish.
const DefaultSaveTimeout = 10 * time.Second

// State is the externally visible state of a Session.
type State string

const (
	StateIdle      State = "no_active_workout"
	StateActive    State = "active"
	StateFinishing State = "finishing"
)

// Options configures a Session. Zero values get defaults.
type Options struct {
	Clock       Clock
	IDs         IDGenerator
	Snapshots   Snapshotter
	SaveTimeout time.Duration
	Logger      *slog.Logger
}

// Session owns one user's active workout.
type Session struct {
	userID    int
	recorder  Recorder
	snapshots Snapshotter
	clock     Clock
	ids       IDGenerator
	timeout   time.Duration
	log       *slog.Logger

	mu     sync.Mutex
	active *models.Workout
	saving bool
}

// New creates a Session for userID that hands finished workouts to recorder.
// If opts.Snapshots holds an active workout for the user, it is restored.
func New(userID int, recorder Recorder, opts Options) *Session {
	s := &Session{
		userID:    userID,
		recorder:  recorder,
		snapshots: opts.Snapshots,
		clock:     opts.Clock,
		ids:       opts.IDs,
		timeout:   opts.SaveTimeout,
		log:       opts.Logger,
	}
	if s.clock == nil {
		s.clock = SystemClock
	}
	if s.ids == nil {
		s.ids = UUIDs{}
	}
	if s.timeout <= 0 {
		s.timeout = DefaultSaveTimeout
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("user_id", userID)

	if s.snapshots != nil {
		w, err := s.snapshots.LoadActive(userID)
		switch {
		case err != nil:
			s.log.Warn("loading active workout snapshot", "error", err)
		case w != nil && w.Status == models.StatusActive:
			s.active = w
			s.log.Info("restored active workout", "workout_id", w.ID)
		}
	}
	return s
}

// snapshot persists the active workout. Callers hold s.mu.
func (s *Session) snapshot() {
	if s.snapshots == nil {
		return
	}
	var w *models.Workout
	if s.active != nil {
		c := s.active.Clone()
		w = &c
	}
	if err := s.snapshots.SaveActive(s.userID, w); err != nil {
		s.log.Warn("saving active workout snapshot", "error", err)
	}
}

// edit runs fn against the active workout unless there is none or a finish
// is in flight. It reports whether fn ran and changed anything.
func (s *Session) edit(fn func(w *models.Workout) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.saving {
		return false
	}
	if !fn(s.active) {
		return false
	}
	s.snapshot()
	return true
}

func (s *Session) newSet(weight float64, reps int) models.WorkoutSet {
	return models.WorkoutSet{ID: s.ids.NewID(), Weight: weight, Reps: reps, Type: models.SetNormal}
}

func (s *Session) begin(w *models.Workout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrFinishInProgress
	}
	if s.active != nil {
		return ErrWorkoutActive
	}
	s.active = w
	s.snapshot()
	s.log.Info("workout started", "workout_id", w.ID, "name", w.Name)
	return nil
}

// StartEmpty starts a workout with no exercises. It fails with
// ErrWorkoutActive if one is already active.
func (s *Session) StartEmpty(name string) (models.Workout, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	w := &models.Workout{
		ID:        s.ids.NewID(),
		Name:      name,
		StartTime: s.clock.Now(),
		Status:    models.StatusActive,
		Exercises: []models.WorkoutExercise{},
	}
	if err := s.begin(w); err != nil {
		return models.Workout{}, err
	}
	return w.Clone(), nil
}

// StartFromRoutine starts a workout copied from r. Each routine exercise gets
// max(target sets, 1) incomplete sets pre-filled with the target weight and
// reps. All identities are freshly generated; r is not modified.
func (s *Session) StartFromRoutine(r models.Routine) (models.Workout, error) {
	w := &models.Workout{
		ID:        s.ids.NewID(),
		Name:      r.Name,
		StartTime: s.clock.Now(),
		Status:    models.StatusActive,
		RoutineID: r.ID,
		Exercises: make([]models.WorkoutExercise, 0, len(r.Exercises)),
	}
	if strings.TrimSpace(w.Name) == "" {
		w.Name = DefaultName
	}
	for i, re := range r.Exercises {
		n := 1
		if re.TargetSets != nil && *re.TargetSets > 1 {
			n = *re.TargetSets
		}
		var weight float64
		var reps int
		if re.TargetWeight != nil {
			weight = *re.TargetWeight
		}
		if re.TargetReps != nil {
			reps = *re.TargetReps
		}
		order := i
		ex := models.WorkoutExercise{
			ID:         s.ids.NewID(),
			ExerciseID: re.ExerciseID,
			Exercise:   re.Exercise,
			Notes:      re.Notes,
			OrderIndex: &order,
			Sets:       make([]models.WorkoutSet, 0, n),
		}
		if ex.Exercise.ID == "" {
			ex.Exercise.ID = re.ExerciseID
		}
		for j := 0; j < n; j++ {
			ex.Sets = append(ex.Sets, s.newSet(weight, reps))
		}
		w.Exercises = append(w.Exercises, ex)
	}
	if err := s.begin(w); err != nil {
		return models.Workout{}, err
	}
	return w.Clone(), nil
}

// AddExercise appends e with one empty set.
func (s *Session) AddExercise(e models.Exercise) (models.WorkoutExercise, bool) {
	var added models.WorkoutExercise
	ok := s.edit(func(w *models.Workout) bool {
		order := len(w.Exercises)
		added = models.WorkoutExercise{
			ID:         s.ids.NewID(),
			ExerciseID: e.ID,
			Exercise:   e,
			OrderIndex: &order,
			Sets:       []models.WorkoutSet{s.newSet(0, 0)},
		}
		w.Exercises = append(w.Exercises, added)
		added.Sets = append([]models.WorkoutSet(nil), added.Sets...)
		return true
	})
	return added, ok
}

// RemoveExercise drops the exercise instance with the given id.
func (s *Session) RemoveExercise(instanceID string) bool {
	return s.edit(func(w *models.Workout) bool {
		for i := range w.Exercises {
			if w.Exercises[i].ID == instanceID {
				w.Exercises = append(w.Exercises[:i], w.Exercises[i+1:]...)
				return true
			}
		}
		return false
	})
}

// AddSet appends a set to the exercise instance, carrying weight and reps
// forward from its last set.
func (s *Session) AddSet(instanceID string) (models.WorkoutSet, bool) {
	var added models.WorkoutSet
	ok := s.edit(func(w *models.Workout) bool {
		ex := w.ExerciseByInstance(instanceID)
		if ex == nil {
			return false
		}
		var weight float64
		var reps int
		if n := len(ex.Sets); n > 0 {
			weight, reps = ex.Sets[n-1].Weight, ex.Sets[n-1].Reps
		}
		added = s.newSet(weight, reps)
		ex.Sets = append(ex.Sets, added)
		return true
	})
	return added, ok
}

// RemoveSet drops one set from the exercise instance.
func (s *Session) RemoveSet(instanceID, setID string) bool {
	return s.edit(func(w *models.Workout) bool {
		ex := w.ExerciseByInstance(instanceID)
		if ex == nil {
			return false
		}
		for i := range ex.Sets {
			if ex.Sets[i].ID == setID {
				ex.Sets = append(ex.Sets[:i], ex.Sets[i+1:]...)
				return true
			}
		}
		return false
	})
}

// SetUpdate carries the fields to merge into a set. Nil fields are left as is.
type SetUpdate struct {
	Weight    *float64        `json:"weight,omitempty"`
	Reps      *int            `json:"reps,omitempty"`
	Completed *bool           `json:"completed,omitempty"`
	Type      *models.SetType `json:"type,omitempty"`
	RestTime  *int            `json:"rest_time,omitempty"`
	Notes     *string         `json:"notes,omitempty"`
}

func (u SetUpdate) apply(set models.WorkoutSet) models.WorkoutSet {
	if u.Weight != nil {
		set.Weight = *u.Weight
	}
	if u.Reps != nil {
		set.Reps = *u.Reps
	}
	if u.Completed != nil {
		set.Completed = *u.Completed
	}
	if u.Type != nil {
		set.Type = *u.Type
		set.SyncFlags()
	}
	if u.RestTime != nil {
		rt := *u.RestTime
		set.RestTime = &rt
	}
	if u.Notes != nil {
		set.Notes = *u.Notes
	}
	return set
}

// UpdateSet merges u into the set. An update that would leave the set with a
// negative weight, reps or rest time fails with models.ErrInvalidInput and
// leaves the set unchanged.
func (s *Session) UpdateSet(instanceID, setID string, u SetUpdate) (bool, error) {
	var verr error
	ok := s.edit(func(w *models.Workout) bool {
		ex := w.ExerciseByInstance(instanceID)
		if ex == nil {
			return false
		}
		set := ex.SetByID(setID)
		if set == nil {
			return false
		}
		next := u.apply(*set)
		if err := next.Validate(); err != nil {
			verr = err
			return false
		}
		*set = next
		return true
	})
	return ok, verr
}

// CompleteSet flips the set's completed flag.
func (s *Session) CompleteSet(instanceID, setID string) bool {
	return s.edit(func(w *models.Workout) bool {
		ex := w.ExerciseByInstance(instanceID)
		if ex == nil {
			return false
		}
		set := ex.SetByID(setID)
		if set == nil {
			return false
		}
		set.Completed = !set.Completed
		return true
	})
}

// UpdateName renames the active workout. Blank names are ignored.
func (s *Session) UpdateName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return s.edit(func(w *models.Workout) bool {
		w.Name = name
		return true
	})
}

// Active returns a copy of the active workout.
func (s *Session) Active() (models.Workout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return models.Workout{}, false
	}
	return s.active.Clone(), true
}

// State reports whether a workout is active or being finished.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.saving:
		return StateFinishing
	case s.active != nil:
		return StateActive
	}
	return StateIdle
}

// Cancel discards the active workout without persisting it. It reports
// whether a workout was discarded; a workout that is being finished cannot
// be cancelled.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.saving {
		return false
	}
	s.log.Info("workout discarded", "workout_id", s.active.ID)
	s.active = nil
	s.snapshot()
	return true
}

// Finish completes the active workout and hands it to the recorder, bounded
// by the save timeout. The session leaves the Active state whether or not
// the save succeeds; a failed save is reported as a *models.PersistenceError
// alongside the completed workout.
func (s *Session) Finish(ctx context.Context) (models.Workout, error) {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return models.Workout{}, ErrFinishInProgress
	}
	if s.active == nil {
		s.mu.Unlock()
		return models.Workout{}, ErrNoActiveWorkout
	}
	completed := CompleteWorkout(*s.active, s.clock.Now())
	s.saving = true
	s.mu.Unlock()

	err := s.persist(ctx, completed)

	s.mu.Lock()
	s.saving = false
	s.active = nil
	s.snapshot()
	s.mu.Unlock()

	if err != nil {
		s.log.Error("saving finished workout", "workout_id", completed.ID, "error", err)
		return completed, err
	}
	s.log.Info("workout finished", "workout_id", completed.ID, "volume", completed.Volume)
	return completed, nil
}

func (s *Session) persist(ctx context.Context, w models.Workout) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.recorder.Append(ctx, s.userID, w) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("after %s: %w", s.timeout, ctx.Err())
	}
	if err == nil {
		return nil
	}
	var pe *models.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return models.Persistence("saving workout", err)
}
