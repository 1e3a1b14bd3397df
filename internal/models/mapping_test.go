package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func sampleRows() (WorkoutSessionRow, []WorkoutExerciseRow, []WorkoutSetRow) {
	sessionID := uuid.New()
	squat, bench := uuid.New(), uuid.New()
	started := time.Date(2026, 2, 19, 16, 54, 0, 0, time.UTC)
	completed := started.Add(62 * time.Minute)

	session := WorkoutSessionRow{
		ID: sessionID, UserID: 1, Name: "Legs", StartedAt: started,
		CompletedAt: &completed, Status: "completed", Volume: 1150,
	}
	exercises := []WorkoutExerciseRow{
		{ID: bench, WorkoutSessionID: sessionID, ExerciseID: "1", ExerciseName: "Barbell Bench Press", MuscleGroup: "Chest", OrderIndex: 1},
		{ID: squat, WorkoutSessionID: sessionID, ExerciseID: "4", ExerciseName: "Barbell Squat", MuscleGroup: "legs", OrderIndex: 0},
	}
	sets := []WorkoutSetRow{
		{ID: uuid.New(), WorkoutExerciseID: squat, SetNumber: 2, Weight: 100, Reps: 5, Completed: true},
		{ID: uuid.New(), WorkoutExerciseID: squat, SetNumber: 1, Weight: 60, Reps: 8, Completed: true, IsWarmup: true},
		{ID: uuid.New(), WorkoutExerciseID: bench, SetNumber: 1, Weight: 80, Reps: 8, Completed: true, IsDropSet: true},
	}
	return session, exercises, sets
}

// TestWorkoutFromRowsOrdering verifies exercises come back by order index and
// sets by set number, with legacy flags resolved into set types.
func TestWorkoutFromRowsOrdering(t *testing.T) {
	session, exercises, sets := sampleRows()
	w, err := WorkoutFromRows(session, exercises, sets)
	if err != nil {
		t.Fatalf("WorkoutFromRows: %v", err)
	}
	if len(w.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(w.Exercises))
	}
	if w.Exercises[0].Exercise.Name != "Barbell Squat" {
		t.Errorf("first exercise = %q, want Barbell Squat", w.Exercises[0].Exercise.Name)
	}
	if w.Exercises[0].Exercise.MuscleGroup != MuscleLegs {
		t.Errorf("muscle group = %q, want Legs", w.Exercises[0].Exercise.MuscleGroup)
	}
	squatSets := w.Exercises[0].Sets
	if squatSets[0].Type != SetWarmup || squatSets[1].Type != SetNormal {
		t.Errorf("squat set types = %q,%q, want Warmup,Normal", squatSets[0].Type, squatSets[1].Type)
	}
	if w.Exercises[1].Sets[0].Type != SetDrop {
		t.Errorf("bench set type = %q, want Drop", w.Exercises[1].Sets[0].Type)
	}
	if w.Volume != 1150 {
		t.Errorf("volume = %v, want stored 1150", w.Volume)
	}
	if w.EndTime == nil || w.Status != StatusCompleted {
		t.Errorf("end/status = %v/%q", w.EndTime, w.Status)
	}
}

// TestWorkoutFromRowsOrphanSet verifies a set pointing at a foreign exercise row is rejected.
func TestWorkoutFromRowsOrphanSet(t *testing.T) {
	session, exercises, sets := sampleRows()
	sets = append(sets, WorkoutSetRow{ID: uuid.New(), WorkoutExerciseID: uuid.New(), SetNumber: 1})
	if _, err := WorkoutFromRows(session, exercises, sets); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

// TestWorkoutFromRowsNegativeWeight verifies backend drift producing negative
// weights does not leak into the domain.
func TestWorkoutFromRowsNegativeWeight(t *testing.T) {
	session, exercises, sets := sampleRows()
	sets[0].Weight = -10
	if _, err := WorkoutFromRows(session, exercises, sets); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

// TestWorkoutRowsRoundTrip verifies WorkoutToRows output maps back to the same workout.
func TestWorkoutRowsRoundTrip(t *testing.T) {
	session, exercises, sets := sampleRows()
	w, err := WorkoutFromRows(session, exercises, sets)
	if err != nil {
		t.Fatalf("WorkoutFromRows: %v", err)
	}
	s2, ex2, sets2, err := WorkoutToRows(1, w)
	if err != nil {
		t.Fatalf("WorkoutToRows: %v", err)
	}
	w2, err := WorkoutFromRows(s2, ex2, sets2)
	if err != nil {
		t.Fatalf("WorkoutFromRows (second pass): %v", err)
	}
	if len(w2.Exercises) != len(w.Exercises) {
		t.Fatalf("exercises = %d, want %d", len(w2.Exercises), len(w.Exercises))
	}
	for i := range w.Exercises {
		if len(w2.Exercises[i].Sets) != len(w.Exercises[i].Sets) {
			t.Errorf("exercise %d sets = %d, want %d", i, len(w2.Exercises[i].Sets), len(w.Exercises[i].Sets))
		}
		if w2.Exercises[i].ID != w.Exercises[i].ID {
			t.Errorf("exercise %d id = %s, want %s", i, w2.Exercises[i].ID, w.Exercises[i].ID)
		}
	}
}

// TestWorkoutToRowsRejectsNonUUID verifies ids must be UUIDs before reaching the backend.
func TestWorkoutToRowsRejectsNonUUID(t *testing.T) {
	_, _, _, err := WorkoutToRows(1, Workout{ID: "1700000000-abc"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
