// Package catalog is the exercise library: a fixed seed of common lifts plus
// the exercises each user adds.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/meltforce/ironlog/internal/models"
)

var seed = []models.Exercise{
	{ID: "1", Name: "Barbell Bench Press", MuscleGroup: models.MuscleChest, SecondaryMuscles: []models.MuscleGroup{models.MuscleShoulders, models.MuscleArms}, Type: models.MovementCompound},
	{ID: "2", Name: "Incline Dumbbell Press", MuscleGroup: models.MuscleChest, SecondaryMuscles: []models.MuscleGroup{models.MuscleShoulders, models.MuscleArms}, Type: models.MovementCompound},
	{ID: "3", Name: "Tricep Pushdown", MuscleGroup: models.MuscleArms, Type: models.MovementIsolation},
	{ID: "4", Name: "Barbell Squat", MuscleGroup: models.MuscleLegs, SecondaryMuscles: []models.MuscleGroup{models.MuscleCore, models.MuscleBack}, Type: models.MovementCompound},
	{ID: "5", Name: "Deadlift", MuscleGroup: models.MuscleBack, SecondaryMuscles: []models.MuscleGroup{models.MuscleLegs, models.MuscleCore}, Type: models.MovementCompound},
	{ID: "6", Name: "Pull-ups", MuscleGroup: models.MuscleBack, SecondaryMuscles: []models.MuscleGroup{models.MuscleArms}, Type: models.MovementCompound},
	{ID: "7", Name: "Overhead Press", MuscleGroup: models.MuscleShoulders, SecondaryMuscles: []models.MuscleGroup{models.MuscleArms, models.MuscleCore}, Type: models.MovementCompound},
	{ID: "8", Name: "Barbell Row", MuscleGroup: models.MuscleBack, SecondaryMuscles: []models.MuscleGroup{models.MuscleArms}, Type: models.MovementCompound},
	{ID: "9", Name: "Romanian Deadlift", MuscleGroup: models.MuscleLegs, SecondaryMuscles: []models.MuscleGroup{models.MuscleBack}, Type: models.MovementCompound},
	{ID: "10", Name: "Dumbbell Curl", MuscleGroup: models.MuscleArms, Type: models.MovementIsolation},
	{ID: "11", Name: "Tricep Dips", MuscleGroup: models.MuscleArms, SecondaryMuscles: []models.MuscleGroup{models.MuscleChest, models.MuscleShoulders}, Type: models.MovementCompound},
	{ID: "12", Name: "Plank", MuscleGroup: models.MuscleCore, Type: models.MovementIsolation},
}

// Seed returns a copy of the built-in exercises.
func Seed() []models.Exercise {
	out := make([]models.Exercise, len(seed))
	for i, e := range seed {
		e.SecondaryMuscles = append([]models.MuscleGroup(nil), e.SecondaryMuscles...)
		out[i] = e
	}
	return out
}

// Store persists user-added exercises.
type Store interface {
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
	InsertExercise(ctx context.Context, userID int, e models.Exercise) error
}

// Catalog merges the seed with a user's custom exercises.
type Catalog struct {
	store Store
	log   *slog.Logger
}

// New creates a Catalog. A nil store serves the seed only.
func New(store Store, log *slog.Logger) *Catalog {
	return &Catalog{store: store, log: log}
}

// All returns the seed followed by userID's custom exercises.
func (c *Catalog) All(ctx context.Context, userID int) ([]models.Exercise, error) {
	out := Seed()
	if c.store == nil {
		return out, nil
	}
	custom, err := c.store.ListExercises(ctx, userID)
	if err != nil {
		return nil, models.Persistence("listing exercises", err)
	}
	return append(out, custom...), nil
}

// Get looks up one exercise by id.
func (c *Catalog) Get(ctx context.Context, userID int, id string) (models.Exercise, error) {
	all, err := c.All(ctx, userID)
	if err != nil {
		return models.Exercise{}, err
	}
	for _, e := range all {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Exercise{}, fmt.Errorf("exercise %s: %w", id, models.ErrNotFound)
}

// Add stores a custom exercise under a fresh id.
func (c *Catalog) Add(ctx context.Context, userID int, e models.Exercise) (models.Exercise, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return models.Exercise{}, err
	}
	if c.store == nil {
		return models.Exercise{}, fmt.Errorf("custom exercises need a backend: %w", models.ErrInvalidInput)
	}
	e.ID = uuid.NewString()
	e.Custom = true
	if err := c.store.InsertExercise(ctx, userID, e); err != nil {
		return models.Exercise{}, models.Persistence("adding exercise", err)
	}
	c.log.Info("custom exercise added", "user_id", userID, "exercise_id", e.ID, "name", e.Name)
	return e, nil
}

// Find filters a user's exercises by name query and muscle group. Empty
// filters match everything.
func (c *Catalog) Find(ctx context.Context, userID int, query string, muscle models.MuscleGroup) ([]models.Exercise, error) {
	all, err := c.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	if muscle != "" {
		all = ByMuscle(all, muscle)
	}
	if query != "" {
		all = Search(all, query)
	}
	return all, nil
}

// ByMuscle keeps exercises that train mg as primary or secondary group.
func ByMuscle(exercises []models.Exercise, mg models.MuscleGroup) []models.Exercise {
	out := []models.Exercise{}
	for _, e := range exercises {
		if e.Trains(mg) {
			out = append(out, e)
		}
	}
	return out
}

// Search keeps exercises whose name contains query, ignoring case.
func Search(exercises []models.Exercise, query string) []models.Exercise {
	q := strings.ToLower(query)
	out := []models.Exercise{}
	for _, e := range exercises {
		if strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	return out
}
