// Package analysis derives per-session statistics from one workout and the
// user's history: personal record detection, weekly consistency, progress
// against the previous session and an intensity class. All functions are pure
// and never modify their inputs.
package analysis

import (
	"strconv"

	"github.com/meltforce/ironlog/internal/calendar"
	"github.com/meltforce/ironlog/internal/models"
)

// Intensity is a coarse classification of a session's volume.
type Intensity string

const (
	IntensityLow      Intensity = "Low"
	IntensityModerate Intensity = "Moderate"
	IntensityHigh     Intensity = "High"
)

// Volume thresholds for IntensityScore. Both comparisons are strict.
const (
	HighVolumeThreshold     = 10000.0
	ModerateVolumeThreshold = 5000.0
)

// FirstSessionLabel is the progress label when there is no earlier workout.
const FirstSessionLabel = "First Session"

// Progress is the volume delta against the previous workout.
type Progress struct {
	Label      string `json:"label"`
	IsPositive bool   `json:"is_positive"`
}

// previous returns the workouts in history that started strictly before
// current and are not current itself.
func previous(current models.Workout, history []models.Workout) []models.Workout {
	var out []models.Workout
	for _, w := range history {
		if w.ID != current.ID && w.StartTime.Before(current.StartTime) {
			out = append(out, w)
		}
	}
	return out
}

// IsExercisePR reports whether exercise's heaviest set in current beats the
// heaviest weight ever lifted for the same library exercise in an earlier
// workout. The max is taken over all sets, warmups and incomplete sets
// included. A first-ever lift is never a PR, and neither is an exercise
// without sets.
func IsExercisePR(exercise models.WorkoutExercise, current models.Workout, history []models.Workout) bool {
	currentMax, ok := exercise.MaxWeight()
	if !ok {
		return false
	}
	var historicalMax float64
	for _, w := range previous(current, history) {
		match, found := w.Exercise(exercise.ExerciseID)
		if !found {
			continue
		}
		if m, ok := match.MaxWeight(); ok && m > historicalMax {
			historicalMax = m
		}
	}
	return currentMax > historicalMax && historicalMax > 0
}

// PRCount counts the exercises in current that are personal records.
func PRCount(current models.Workout, history []models.Workout) int {
	n := 0
	for _, ex := range current.Exercises {
		if IsExercisePR(ex, current, history) {
			n++
		}
	}
	return n
}

// WeeklyConsistency counts the workouts in history that started in the same
// ISO week as current. current is counted only if history contains it.
func WeeklyConsistency(current models.Workout, history []models.Workout) int {
	n := 0
	for _, w := range history {
		if calendar.SameWeek(current.StartTime, w.StartTime) {
			n++
		}
	}
	return n
}

// ProgressVsLast compares current's volume with the most recent workout that
// started before it.
func ProgressVsLast(current models.Workout, history []models.Workout) Progress {
	prev := previous(current, history)
	if len(prev) == 0 {
		return Progress{Label: FirstSessionLabel, IsPositive: true}
	}
	last := prev[0]
	for _, w := range prev[1:] {
		if w.StartTime.After(last.StartTime) {
			last = w
		}
	}
	diff := current.Volume - last.Volume
	return Progress{Label: FormatDelta(diff), IsPositive: diff >= 0}
}

// FormatDelta renders a volume difference as "+500 kg" or "-20 kg".
func FormatDelta(diff float64) string {
	sign := ""
	if diff >= 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(diff, 'f', -1, 64) + " kg"
}

// IntensityScore classifies a workout by its stored volume.
func IntensityScore(w models.Workout) Intensity {
	switch {
	case w.Volume > HighVolumeThreshold:
		return IntensityHigh
	case w.Volume > ModerateVolumeThreshold:
		return IntensityModerate
	}
	return IntensityLow
}
