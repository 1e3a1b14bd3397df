package models

import (
	"fmt"
	"strings"
	"time"
)

// RoutineExercise is one templated exercise inside a routine.
type RoutineExercise struct {
	ID           string   `json:"id"`
	ExerciseID   string   `json:"exercise_id"`
	Exercise     Exercise `json:"exercise"`
	Order        int      `json:"order"`
	TargetSets   *int     `json:"target_sets,omitempty"`
	TargetReps   *int     `json:"target_reps,omitempty"`
	TargetWeight *float64 `json:"target_weight,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Routine is a reusable workout template. Running a workout from it never mutates it.
type Routine struct {
	ID          string            `json:"id"`
	UserID      int               `json:"user_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Exercises   []RoutineExercise `json:"exercises"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	LastUsed    *time.Time        `json:"last_used,omitempty"`
}

// Validate checks the fields a routine must carry before it is stored.
func (r Routine) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("routine name is required: %w", ErrInvalidInput)
	}
	for _, re := range r.Exercises {
		if re.ExerciseID == "" {
			return fmt.Errorf("routine exercise %q has no exercise id: %w", re.ID, ErrInvalidInput)
		}
		if re.TargetSets != nil && *re.TargetSets < 0 {
			return fmt.Errorf("target sets %d is negative: %w", *re.TargetSets, ErrInvalidInput)
		}
		if re.TargetReps != nil && *re.TargetReps < 0 {
			return fmt.Errorf("target reps %d is negative: %w", *re.TargetReps, ErrInvalidInput)
		}
		if re.TargetWeight != nil && *re.TargetWeight < 0 {
			return fmt.Errorf("target weight %v is negative: %w", *re.TargetWeight, ErrInvalidInput)
		}
	}
	return nil
}
