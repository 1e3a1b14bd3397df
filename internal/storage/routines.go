package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meltforce/ironlog/internal/models"
)

const routineColumns = `id, user_id, name, description, exercises, created_at, updated_at, last_used`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoutine(row rowScanner) (models.Routine, error) {
	var r models.RoutineRow
	var exercises []byte
	if err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &exercises, &r.CreatedAt, &r.UpdatedAt, &r.LastUsed); err != nil {
		return models.Routine{}, err
	}
	r.Exercises = exercises
	return models.RoutineFromRow(r)
}

// ListRoutines returns userID's routines, newest first.
func (db *DB) ListRoutines(ctx context.Context, userID int) ([]models.Routine, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+routineColumns+` FROM routines WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying routines: %w", err)
	}
	defer rows.Close()

	result := []models.Routine{}
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning routine: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetRoutine returns one routine, or ErrNotFound.
func (db *DB) GetRoutine(ctx context.Context, userID int, id string) (models.Routine, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return models.Routine{}, fmt.Errorf("routine %s: %w", id, models.ErrNotFound)
	}
	r, err := scanRoutine(db.Pool.QueryRow(ctx,
		`SELECT `+routineColumns+` FROM routines WHERE id = $1 AND user_id = $2`, rid, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Routine{}, fmt.Errorf("routine %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Routine{}, fmt.Errorf("querying routine: %w", err)
	}
	return r, nil
}

// InsertRoutine stores a new routine.
func (db *DB) InsertRoutine(ctx context.Context, r models.Routine) error {
	row, err := models.RoutineToRow(r)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO routines (`+routineColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		row.ID, row.UserID, row.Name, row.Description, string(row.Exercises), row.CreatedAt, row.UpdatedAt, row.LastUsed)
	if err != nil {
		return fmt.Errorf("inserting routine: %w", err)
	}
	return nil
}

// UpdateRoutine replaces the editable fields of a stored routine.
func (db *DB) UpdateRoutine(ctx context.Context, r models.Routine) error {
	row, err := models.RoutineToRow(r)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE routines SET name = $1, description = $2, exercises = $3, updated_at = $4
		 WHERE id = $5 AND user_id = $6`,
		row.Name, row.Description, string(row.Exercises), row.UpdatedAt, row.ID, row.UserID)
	if err != nil {
		return fmt.Errorf("updating routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("routine %s: %w", r.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteRoutine removes a routine. Workouts started from it keep their data.
func (db *DB) DeleteRoutine(ctx context.Context, userID int, id string) error {
	rid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("routine %s: %w", id, models.ErrNotFound)
	}
	tag, err := db.Pool.Exec(ctx, `DELETE FROM routines WHERE id = $1 AND user_id = $2`, rid, userID)
	if err != nil {
		return fmt.Errorf("deleting routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("routine %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// MarkRoutineUsed stamps last_used.
func (db *DB) MarkRoutineUsed(ctx context.Context, userID int, id string, at time.Time) error {
	rid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("routine %s: %w", id, models.ErrNotFound)
	}
	if _, err := db.Pool.Exec(ctx, `UPDATE routines SET last_used = $1 WHERE id = $2 AND user_id = $3`, at, rid, userID); err != nil {
		return fmt.Errorf("marking routine used: %w", err)
	}
	return nil
}
