package storage

import (
	"context"
	"fmt"

	"github.com/meltforce/ironlog/internal/models"
)

// ListExercises returns the custom exercises userID has added.
func (db *DB) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, muscle_group, secondary_muscles, movement_type, equipment, instructions
		 FROM exercises WHERE user_id = $1 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var r models.ExerciseRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.MuscleGroup, &r.SecondaryMuscles,
			&r.MovementType, &r.Equipment, &r.Instructions); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, models.ExerciseFromRow(r))
	}
	return result, rows.Err()
}

// InsertExercise stores a custom exercise for userID.
func (db *DB) InsertExercise(ctx context.Context, userID int, e models.Exercise) error {
	secondary := make([]string, 0, len(e.SecondaryMuscles))
	for _, mg := range e.SecondaryMuscles {
		secondary = append(secondary, string(mg))
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (id, user_id, name, muscle_group, secondary_muscles, movement_type, equipment, instructions)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, userID, e.Name, string(e.MuscleGroup), secondary,
		nullable(string(e.Type)), nullable(e.Equipment), nullable(e.Instructions))
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
