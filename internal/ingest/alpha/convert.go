package alpha

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/meltforce/ironlog/internal/models"
)

// importNamespace seeds the deterministic IDs of imported rows, so importing
// the same export twice overwrites instead of duplicating.
var importNamespace = uuid.MustParse("5b0c4a4e-4c1e-4d0b-9a55-1a8f3e2d7c61")

// exerciseID is used for exports naming an exercise the catalog doesn't know.
func exerciseID(name string) string {
	return "alpha:" + strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// ToWorkout converts s into a completed workout for userID. Exercises are
// matched case-insensitively by name against known; unmatched ones keep the
// exported name under the Other muscle group. Every exported set is
// completed; warmups become Warmup sets.
func ToWorkout(userID int, s Session, known map[string]models.Exercise) models.Workout {
	id := uuid.NewSHA1(importNamespace, []byte(fmt.Sprintf("%d|%s|%s", userID, s.Date.Format("2006-01-02T15:04"), s.Name)))
	end := s.Date.Add(s.Duration)

	w := models.Workout{
		ID:        id.String(),
		Name:      s.Name,
		StartTime: s.Date,
		EndTime:   &end,
		Status:    models.StatusCompleted,
		Exercises: make([]models.WorkoutExercise, 0, len(s.Exercises)),
	}

	for i, ex := range s.Exercises {
		e, ok := known[strings.ToLower(ex.Name)]
		if !ok {
			e = models.Exercise{ID: exerciseID(ex.Name), Name: ex.Name, MuscleGroup: models.MuscleOther}
		}
		if e.Equipment == "" {
			e.Equipment = ex.Equipment
		}
		order := i
		we := models.WorkoutExercise{
			ID:         uuid.NewSHA1(id, []byte("exercise|"+strconv.Itoa(i))).String(),
			ExerciseID: e.ID,
			Exercise:   e,
			OrderIndex: &order,
			Sets:       make([]models.WorkoutSet, 0, len(ex.Sets)),
		}
		if ex.TargetReps > 0 {
			we.Notes = fmt.Sprintf("target %d reps", ex.TargetReps)
		}
		for j, set := range ex.Sets {
			ws := models.WorkoutSet{
				ID:        uuid.NewSHA1(id, []byte(fmt.Sprintf("set|%d|%d", i, j))).String(),
				Weight:    set.Weight,
				Reps:      set.Reps,
				Completed: true,
				Type:      models.SetNormal,
			}
			if set.Warmup {
				ws.Type = models.SetWarmup
			} else {
				ws.Notes = "RIR " + strconv.FormatFloat(set.RIR, 'f', -1, 64)
			}
			if set.BodyweightPlus {
				ws.Notes = strings.TrimSpace("bodyweight + " + ws.Notes)
			}
			ws.SyncFlags()
			we.Sets = append(we.Sets, ws)
		}
		w.Exercises = append(w.Exercises, we)
	}

	w.Volume = models.ComputeVolume(w.Exercises)
	return w
}
