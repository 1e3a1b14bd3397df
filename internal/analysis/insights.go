package analysis

import (
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// ExerciseInsight is the per-exercise part of Insights.
type ExerciseInsight struct {
	WorkoutExerciseID string  `json:"workout_exercise_id"`
	ExerciseID        string  `json:"exercise_id"`
	Name              string  `json:"name"`
	MaxWeight         float64 `json:"max_weight"`
	Volume            float64 `json:"volume"`
	CompletedSets     int     `json:"completed_sets"`
	IsPR              bool    `json:"is_pr"`
}

// Insights bundles everything the workout details view shows for one session.
type Insights struct {
	WorkoutID         string            `json:"workout_id"`
	Volume            float64           `json:"volume"`
	DurationMinutes   float64           `json:"duration_minutes"`
	PRCount           int               `json:"pr_count"`
	WeeklyConsistency int               `json:"weekly_consistency"`
	Progress          Progress          `json:"progress"`
	Intensity         Intensity         `json:"intensity"`
	Exercises         []ExerciseInsight `json:"exercises"`
}

// Summarize computes Insights for current against history.
func Summarize(current models.Workout, history []models.Workout) Insights {
	in := Insights{
		WorkoutID:         current.ID,
		Volume:            current.Volume,
		DurationMinutes:   current.Duration().Round(time.Second).Minutes(),
		WeeklyConsistency: WeeklyConsistency(current, history),
		Progress:          ProgressVsLast(current, history),
		Intensity:         IntensityScore(current),
		Exercises:         make([]ExerciseInsight, 0, len(current.Exercises)),
	}
	for _, ex := range current.Exercises {
		ei := ExerciseInsight{
			WorkoutExerciseID: ex.ID,
			ExerciseID:        ex.ExerciseID,
			Name:              ex.Exercise.Name,
			Volume:            ex.Volume(),
			IsPR:              IsExercisePR(ex, current, history),
		}
		ei.MaxWeight, _ = ex.MaxWeight()
		for _, s := range ex.Sets {
			if s.Qualifies() {
				ei.CompletedSets++
			}
		}
		if ei.IsPR {
			in.PRCount++
		}
		in.Exercises = append(in.Exercises, ei)
	}
	return in
}
