package session

import (
	"context"

	"github.com/meltforce/ironlog/internal/models"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=session

// Recorder persists a finished workout and appends it to the user's history.
type Recorder interface {
	Append(ctx context.Context, userID int, w models.Workout) error
}

// Snapshotter keeps the active workout in local storage so it survives a
// restart. A nil workout clears the snapshot.
type Snapshotter interface {
	SaveActive(userID int, w *models.Workout) error
	LoadActive(userID int) (*models.Workout, error)
}
