package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WorkoutSessionRow is a row of the workout_sessions table.
type WorkoutSessionRow struct {
	ID            uuid.UUID
	UserID        int
	Name          string
	StartedAt     time.Time
	CompletedAt   *time.Time
	Status        string
	Volume        float64
	Notes         *string
	SelfRating    *int
	RestTimerUsed *bool
	RoutineID     *uuid.UUID
	Source        string
}

// WorkoutExerciseRow is a row of the workout_exercises table.
type WorkoutExerciseRow struct {
	ID               uuid.UUID
	WorkoutSessionID uuid.UUID
	ExerciseID       string
	ExerciseName     string
	MuscleGroup      string
	OrderIndex       int
	Notes            *string
}

// WorkoutSetRow is a row of the workout_sets table.
type WorkoutSetRow struct {
	ID                uuid.UUID
	WorkoutExerciseID uuid.UUID
	SetNumber         int
	Weight            float64
	Reps              int
	Completed         bool
	IsWarmup          bool
	IsDropSet         bool
	IsFailure         bool
	RestTimeSeconds   *int
	Notes             *string
}

// PersonalRecordRow is a row of the personal_records table.
type PersonalRecordRow struct {
	ID               uuid.UUID  `json:"id"`
	UserID           int        `json:"user_id"`
	ExerciseID       string     `json:"exercise_id"`
	ExerciseName     string     `json:"exercise_name"`
	Type             string     `json:"type"`
	Value            float64    `json:"value"`
	Weight           float64    `json:"weight"`
	Reps             int        `json:"reps"`
	AchievedAt       time.Time  `json:"achieved_at"`
	WorkoutSessionID uuid.UUID  `json:"workout_session_id"`
	PreviousRecordID *uuid.UUID `json:"previous_record_id,omitempty"`
}

// RoutineRow is a row of the routines table. Exercises are stored as JSONB.
type RoutineRow struct {
	ID          uuid.UUID
	UserID      int
	Name        string
	Description *string
	Exercises   json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastUsed    *time.Time
}

// ExerciseRow is a row of the exercises table holding user-added exercises.
type ExerciseRow struct {
	ID               string
	UserID           int
	Name             string
	MuscleGroup      string
	SecondaryMuscles []string
	MovementType     *string
	Equipment        *string
	Instructions     *string
}
