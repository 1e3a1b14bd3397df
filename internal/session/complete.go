package session

import (
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

// CompleteWorkout returns active as a completed record ending at now, with
// its volume computed over the completed non-warmup sets. active is not
// modified.
func CompleteWorkout(active models.Workout, now time.Time) models.Workout {
	w := active.Clone()
	end := now
	w.EndTime = &end
	w.Status = models.StatusCompleted
	w.Volume = models.ComputeVolume(w.Exercises)
	for i := range w.Exercises {
		for j := range w.Exercises[i].Sets {
			w.Exercises[i].Sets[j].SyncFlags()
		}
	}
	return w
}
