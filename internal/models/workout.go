package models

import (
	"fmt"
	"time"
)

// SetType classifies a set. Only Warmup sets are excluded from volume and PR math.
type SetType string

const (
	SetNormal  SetType = "Normal"
	SetWarmup  SetType = "Warmup"
	SetDrop    SetType = "Drop"
	SetFailure SetType = "Failure"
)

// Valid reports whether t is one of the known set types.
func (t SetType) Valid() bool {
	switch t {
	case SetNormal, SetWarmup, SetDrop, SetFailure:
		return true
	}
	return false
}

// WorkoutSet is one logged set. It is mutable while its workout is active.
type WorkoutSet struct {
	ID        string  `json:"id"`
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	Completed bool    `json:"completed"`
	Type      SetType `json:"type"`

	// Legacy flags mirroring Type.
	IsWarmup  bool `json:"is_warmup,omitempty"`
	IsDropSet bool `json:"is_drop_set,omitempty"`
	IsFailure bool `json:"is_failure,omitempty"`

	// RestTime is the rest in seconds taken before this set.
	RestTime *int   `json:"rest_time,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// EffectiveType resolves Type, falling back to the legacy flags when Type is empty.
func (s WorkoutSet) EffectiveType() SetType {
	if s.Type != "" {
		return s.Type
	}
	switch {
	case s.IsWarmup:
		return SetWarmup
	case s.IsDropSet:
		return SetDrop
	case s.IsFailure:
		return SetFailure
	}
	return SetNormal
}

// Qualifies reports whether the set counts toward volume and PR calculations.
func (s WorkoutSet) Qualifies() bool {
	return s.Completed && s.EffectiveType() != SetWarmup && !s.IsWarmup
}

// Volume is weight×reps for a qualifying set and 0 otherwise.
func (s WorkoutSet) Volume() float64 {
	if !s.Qualifies() {
		return 0
	}
	return s.Weight * float64(s.Reps)
}

// SyncFlags sets the legacy flags from Type.
func (s *WorkoutSet) SyncFlags() {
	t := s.EffectiveType()
	s.Type = t
	s.IsWarmup = t == SetWarmup
	s.IsDropSet = t == SetDrop
	s.IsFailure = t == SetFailure
}

// Validate rejects negative numbers and unknown set types.
func (s WorkoutSet) Validate() error {
	if s.Weight < 0 {
		return fmt.Errorf("weight %v is negative: %w", s.Weight, ErrInvalidInput)
	}
	if s.Reps < 0 {
		return fmt.Errorf("reps %d is negative: %w", s.Reps, ErrInvalidInput)
	}
	if s.Type != "" && !s.Type.Valid() {
		return fmt.Errorf("unknown set type %q: %w", s.Type, ErrInvalidInput)
	}
	if s.RestTime != nil && *s.RestTime < 0 {
		return fmt.Errorf("rest time %d is negative: %w", *s.RestTime, ErrInvalidInput)
	}
	return nil
}

// WorkoutExercise is one exercise instance inside a workout. ID is instance
// scoped and distinct from ExerciseID.
type WorkoutExercise struct {
	ID         string       `json:"id"`
	ExerciseID string       `json:"exercise_id"`
	Exercise   Exercise     `json:"exercise"`
	Sets       []WorkoutSet `json:"sets"`
	Notes      string       `json:"notes,omitempty"`
	OrderIndex *int         `json:"order_index,omitempty"`
}

// MaxWeight returns the heaviest weight over all sets regardless of type or
// completion. ok is false when there are no sets.
func (e WorkoutExercise) MaxWeight() (max float64, ok bool) {
	for i, s := range e.Sets {
		if i == 0 || s.Weight > max {
			max = s.Weight
		}
	}
	return max, len(e.Sets) > 0
}

// Volume sums weight×reps over the exercise's qualifying sets.
func (e WorkoutExercise) Volume() float64 {
	var v float64
	for _, s := range e.Sets {
		v += s.Volume()
	}
	return v
}

// RawVolume sums weight×reps over every set, qualifying or not.
func (e WorkoutExercise) RawVolume() float64 {
	var v float64
	for _, s := range e.Sets {
		v += s.Weight * float64(s.Reps)
	}
	return v
}

// SetByID returns a pointer into e.Sets, or nil.
func (e *WorkoutExercise) SetByID(id string) *WorkoutSet {
	for i := range e.Sets {
		if e.Sets[i].ID == id {
			return &e.Sets[i]
		}
	}
	return nil
}

// Status is the lifecycle state of a Workout record.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDiscarded Status = "discarded"
)

// Workout is a logged session. Volume is computed once at finish time and stored.
type Workout struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	Status        Status            `json:"status"`
	Exercises     []WorkoutExercise `json:"exercises"`
	Volume        float64           `json:"volume"`
	Notes         string            `json:"notes,omitempty"`
	SelfRating    *int              `json:"self_rating,omitempty"`
	RestTimerUsed *bool             `json:"rest_timer_used,omitempty"`
	RoutineID     string            `json:"routine_id,omitempty"`
}

// ComputeVolume sums weight×reps over every completed non-warmup set.
func ComputeVolume(exercises []WorkoutExercise) float64 {
	var v float64
	for _, ex := range exercises {
		v += ex.Volume()
	}
	return v
}

// Exercise returns the first exercise instance matching the library exercise ID.
func (w Workout) Exercise(exerciseID string) (WorkoutExercise, bool) {
	for _, ex := range w.Exercises {
		if ex.ExerciseID == exerciseID {
			return ex, true
		}
	}
	return WorkoutExercise{}, false
}

// ExerciseByInstance returns a pointer into w.Exercises matching the instance ID.
func (w *Workout) ExerciseByInstance(id string) *WorkoutExercise {
	for i := range w.Exercises {
		if w.Exercises[i].ID == id {
			return &w.Exercises[i]
		}
	}
	return nil
}

// Duration is EndTime-StartTime, or 0 for a workout without an end.
func (w Workout) Duration() time.Duration {
	if w.EndTime == nil {
		return 0
	}
	return w.EndTime.Sub(w.StartTime)
}

// Clone returns a deep copy so callers cannot mutate the receiver's slices.
func (w Workout) Clone() Workout {
	c := w
	if w.EndTime != nil {
		t := *w.EndTime
		c.EndTime = &t
	}
	if w.SelfRating != nil {
		r := *w.SelfRating
		c.SelfRating = &r
	}
	if w.RestTimerUsed != nil {
		b := *w.RestTimerUsed
		c.RestTimerUsed = &b
	}
	c.Exercises = make([]WorkoutExercise, len(w.Exercises))
	for i, ex := range w.Exercises {
		cx := ex
		cx.Sets = append([]WorkoutSet(nil), ex.Sets...)
		for j, s := range ex.Sets {
			if s.RestTime != nil {
				rt := *s.RestTime
				cx.Sets[j].RestTime = &rt
			}
		}
		if ex.Exercise.SecondaryMuscles != nil {
			cx.Exercise.SecondaryMuscles = append([]MuscleGroup(nil), ex.Exercise.SecondaryMuscles...)
		}
		if ex.OrderIndex != nil {
			oi := *ex.OrderIndex
			cx.OrderIndex = &oi
		}
		c.Exercises[i] = cx
	}
	return c
}

// Validate checks the shape of a workout received at a boundary.
func (w Workout) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("workout id is required: %w", ErrInvalidInput)
	}
	switch w.Status {
	case StatusActive, StatusCompleted, StatusDiscarded:
	default:
		return fmt.Errorf("unknown workout status %q: %w", w.Status, ErrInvalidInput)
	}
	if w.Status == StatusCompleted && w.EndTime == nil {
		return fmt.Errorf("completed workout %s has no end time: %w", w.ID, ErrInvalidInput)
	}
	if w.SelfRating != nil && (*w.SelfRating < 1 || *w.SelfRating > 5) {
		return fmt.Errorf("self rating %d outside 1-5: %w", *w.SelfRating, ErrInvalidInput)
	}
	for _, ex := range w.Exercises {
		for _, s := range ex.Sets {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("exercise %s set %s: %w", ex.ID, s.ID, err)
			}
		}
	}
	return nil
}
