package storage

import (
	"context"
	"fmt"

	"github.com/meltforce/ironlog/internal/models"
)

// ListPersonalRecords returns the current best record for each exercise of
// userID, heaviest first.
func (db *DB) ListPersonalRecords(ctx context.Context, userID int) ([]models.PersonalRecordRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, exercise_id, exercise_name, type, value, weight, reps,
		 achieved_at, workout_session_id, previous_record_id
		 FROM (
			SELECT DISTINCT ON (exercise_id) *
			FROM personal_records
			WHERE user_id = $1 AND type = $2
			ORDER BY exercise_id, value DESC, achieved_at DESC
		 ) best
		 ORDER BY value DESC, exercise_name ASC`,
		userID, PRTypeWeight)
	if err != nil {
		return nil, fmt.Errorf("querying personal records: %w", err)
	}
	defer rows.Close()

	result := []models.PersonalRecordRow{}
	for rows.Next() {
		var r models.PersonalRecordRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExerciseID, &r.ExerciseName, &r.Type, &r.Value, &r.Weight,
			&r.Reps, &r.AchievedAt, &r.WorkoutSessionID, &r.PreviousRecordID); err != nil {
			return nil, fmt.Errorf("scanning personal record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
