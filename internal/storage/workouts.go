package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meltforce/ironlog/internal/models"
)

// PRTypeWeight is the personal_records type for the heaviest completed working set.
const PRTypeWeight = "weight"

// SaveWorkout stores w with its exercises and sets in one transaction and
// records any new weight PRs. Saving an existing id replaces its contents.
func (db *DB) SaveWorkout(ctx context.Context, userID int, w models.Workout) error {
	session, exRows, setRows, err := models.WorkoutToRows(userID, w)
	if err != nil {
		return err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning workout tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, name, started_at, completed_at, status, volume,
		 notes, self_rating, rest_timer_used, routine_id, source)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, started_at = EXCLUDED.started_at, completed_at = EXCLUDED.completed_at,
			status = EXCLUDED.status, volume = EXCLUDED.volume, notes = EXCLUDED.notes,
			self_rating = EXCLUDED.self_rating, rest_timer_used = EXCLUDED.rest_timer_used,
			routine_id = EXCLUDED.routine_id
		 WHERE workout_sessions.user_id = EXCLUDED.user_id`,
		session.ID, session.UserID, session.Name, session.StartedAt, session.CompletedAt, session.Status,
		session.Volume, session.Notes, session.SelfRating, session.RestTimerUsed, session.RoutineID, session.Source)
	if err != nil {
		return fmt.Errorf("upserting workout session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s belongs to another user: %w", w.ID, models.ErrInvalidInput)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM workout_exercises WHERE workout_session_id = $1`, session.ID); err != nil {
		return fmt.Errorf("clearing workout exercises: %w", err)
	}

	exArgs := make([][]any, 0, len(exRows))
	for _, r := range exRows {
		exArgs = append(exArgs, []any{r.ID, r.WorkoutSessionID, r.ExerciseID, r.ExerciseName, r.MuscleGroup, r.OrderIndex, r.Notes})
	}
	if err := insertRows(ctx, tx,
		`INSERT INTO workout_exercises (id, workout_session_id, exercise_id, exercise_name, muscle_group, order_index, notes) VALUES `,
		exArgs); err != nil {
		return fmt.Errorf("inserting workout exercises: %w", err)
	}

	setArgs := make([][]any, 0, len(setRows))
	for _, r := range setRows {
		setArgs = append(setArgs, []any{r.ID, r.WorkoutExerciseID, r.SetNumber, r.Weight, r.Reps, r.Completed,
			r.IsWarmup, r.IsDropSet, r.IsFailure, r.RestTimeSeconds, r.Notes})
	}
	if err := insertRows(ctx, tx,
		`INSERT INTO workout_sets (id, workout_exercise_id, set_number, weight, reps, completed,
		 is_warmup, is_drop_set, is_failure, rest_time_seconds, notes) VALUES `,
		setArgs); err != nil {
		return fmt.Errorf("inserting workout sets: %w", err)
	}

	if w.Status == models.StatusCompleted {
		if err := checkPersonalRecords(ctx, tx, userID, w, session.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing workout: %w", err)
	}
	return nil
}

// insertRows batch-inserts rows with numbered placeholders.
func insertRows(ctx context.Context, tx pgx.Tx, prefix string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	query, args := buildInsert(prefix, rows)
	_, err := tx.Exec(ctx, query, args...)
	return err
}

func buildInsert(prefix string, rows [][]any) (string, []any) {
	cols := len(rows[0])
	args := make([]any, 0, len(rows)*cols)
	valueStrings := make([]string, 0, len(rows))
	for i, r := range rows {
		ph := make([]string, cols)
		for c := range ph {
			ph[c] = fmt.Sprintf("$%d", i*cols+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		args = append(args, r...)
	}
	return prefix + strings.Join(valueStrings, ","), args
}

// bestSet returns the heaviest completed working set of ex.
func bestSet(ex models.WorkoutExercise) (models.WorkoutSet, bool) {
	var best models.WorkoutSet
	found := false
	for _, s := range ex.Sets {
		if s.Qualifies() && s.Weight > best.Weight {
			best = s
			found = true
		}
	}
	return best, found
}

func checkPersonalRecords(ctx context.Context, tx pgx.Tx, userID int, w models.Workout, sessionID uuid.UUID) error {
	achieved := time.Now()
	if w.EndTime != nil {
		achieved = *w.EndTime
	}
	for _, ex := range w.Exercises {
		best, ok := bestSet(ex)
		if !ok {
			continue
		}

		var prevID uuid.UUID
		var prevValue float64
		err := tx.QueryRow(ctx,
			`SELECT id, value FROM personal_records
			 WHERE user_id = $1 AND exercise_id = $2 AND type = $3
			 ORDER BY value DESC LIMIT 1`,
			userID, ex.ExerciseID, PRTypeWeight).Scan(&prevID, &prevValue)
		hasPrev := err == nil
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("querying personal record for %s: %w", ex.ExerciseID, err)
		}
		if hasPrev && best.Weight <= prevValue {
			continue
		}

		var previous *uuid.UUID
		if hasPrev {
			previous = &prevID
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO personal_records (id, user_id, exercise_id, exercise_name, type, value, weight, reps,
			 achieved_at, workout_session_id, previous_record_id)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			uuid.New(), userID, ex.ExerciseID, ex.Exercise.Name, PRTypeWeight, best.Weight, best.Weight, best.Reps,
			achieved, sessionID, previous)
		if err != nil {
			return fmt.Errorf("inserting personal record for %s: %w", ex.ExerciseID, err)
		}
	}
	return nil
}

const sessionColumns = `s.id, s.user_id, s.name, s.started_at, s.completed_at, s.status, s.volume,
	s.notes, s.self_rating, s.rest_timer_used, s.routine_id, s.source`

// ListWorkouts returns every workout of userID, newest first.
func (db *DB) ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	return db.queryWorkouts(ctx, "s.user_id = $1", userID)
}

// GetWorkout returns one workout, or ErrNotFound.
func (db *DB) GetWorkout(ctx context.Context, userID int, id string) (models.Workout, error) {
	wid, err := uuid.Parse(id)
	if err != nil {
		return models.Workout{}, fmt.Errorf("workout %s: %w", id, models.ErrNotFound)
	}
	ws, err := db.queryWorkouts(ctx, "s.user_id = $1 AND s.id = $2", userID, wid)
	if err != nil {
		return models.Workout{}, err
	}
	if len(ws) == 0 {
		return models.Workout{}, fmt.Errorf("workout %s: %w", id, models.ErrNotFound)
	}
	return ws[0], nil
}

func (db *DB) queryWorkouts(ctx context.Context, filter string, args ...any) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions s WHERE `+filter+` ORDER BY s.started_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workout sessions: %w", err)
	}
	var sessions []models.WorkoutSessionRow
	for rows.Next() {
		var s models.WorkoutSessionRow
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.StartedAt, &s.CompletedAt, &s.Status, &s.Volume,
			&s.Notes, &s.SelfRating, &s.RestTimerUsed, &s.RoutineID, &s.Source); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning workout session: %w", err)
		}
		sessions = append(sessions, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []models.Workout{}, nil
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT e.id, e.workout_session_id, e.exercise_id, e.exercise_name, e.muscle_group, e.order_index, e.notes
		 FROM workout_exercises e JOIN workout_sessions s ON s.id = e.workout_session_id
		 WHERE `+filter, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	exercises := make(map[uuid.UUID][]models.WorkoutExerciseRow)
	sessionOf := make(map[uuid.UUID]uuid.UUID)
	for exRows.Next() {
		var e models.WorkoutExerciseRow
		if err := exRows.Scan(&e.ID, &e.WorkoutSessionID, &e.ExerciseID, &e.ExerciseName, &e.MuscleGroup,
			&e.OrderIndex, &e.Notes); err != nil {
			exRows.Close()
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		exercises[e.WorkoutSessionID] = append(exercises[e.WorkoutSessionID], e)
		sessionOf[e.ID] = e.WorkoutSessionID
	}
	exRows.Close()
	if err := exRows.Err(); err != nil {
		return nil, err
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT ws.id, ws.workout_exercise_id, ws.set_number, ws.weight, ws.reps, ws.completed,
		 ws.is_warmup, ws.is_drop_set, ws.is_failure, ws.rest_time_seconds, ws.notes
		 FROM workout_sets ws
		 JOIN workout_exercises e ON e.id = ws.workout_exercise_id
		 JOIN workout_sessions s ON s.id = e.workout_session_id
		 WHERE `+filter, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	sets := make(map[uuid.UUID][]models.WorkoutSetRow)
	for setRows.Next() {
		var r models.WorkoutSetRow
		if err := setRows.Scan(&r.ID, &r.WorkoutExerciseID, &r.SetNumber, &r.Weight, &r.Reps, &r.Completed,
			&r.IsWarmup, &r.IsDropSet, &r.IsFailure, &r.RestTimeSeconds, &r.Notes); err != nil {
			setRows.Close()
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		sid := sessionOf[r.WorkoutExerciseID]
		sets[sid] = append(sets[sid], r)
	}
	setRows.Close()
	if err := setRows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Workout, 0, len(sessions))
	for _, s := range sessions {
		w, err := models.WorkoutFromRows(s, exercises[s.ID], sets[s.ID])
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// DeleteWorkout removes a workout and, by cascade, its exercises, sets and PRs.
func (db *DB) DeleteWorkout(ctx context.Context, userID int, id string) error {
	wid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("workout %s: %w", id, models.ErrNotFound)
	}
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workout_sessions WHERE id = $1 AND user_id = $2`, wid, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// RenameWorkout changes a stored workout's name.
func (db *DB) RenameWorkout(ctx context.Context, userID int, id, name string) error {
	wid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("workout %s: %w", id, models.ErrNotFound)
	}
	tag, err := db.Pool.Exec(ctx, `UPDATE workout_sessions SET name = $1 WHERE id = $2 AND user_id = $3`, name, wid, userID)
	if err != nil {
		return fmt.Errorf("renaming workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workout %s: %w", id, models.ErrNotFound)
	}
	return nil
}
