package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored training data.
type DataStats struct {
	TotalWorkouts   int64             `json:"total_workouts"`
	TotalSets       int64             `json:"total_sets"`
	TotalVolume     float64           `json:"total_volume"`
	TotalRoutines   int64             `json:"total_routines"`
	CustomExercises int64             `json:"custom_exercises"`
	PersonalRecords int64             `json:"personal_records"`
	EarliestWorkout *time.Time        `json:"earliest_workout"`
	LatestWorkout   *time.Time        `json:"latest_workout"`
	WorkoutsByName  []WorkoutNameStat `json:"workouts_by_name"`
}

// WorkoutNameStat summarizes the completed workouts sharing one name.
type WorkoutNameStat struct {
	Name          string  `json:"name"`
	Count         int64   `json:"count"`
	TotalVolume   float64 `json:"total_volume"`
	TotalDuration float64 `json:"total_duration_sec"`
}

// GetDataStats returns aggregate statistics for userID.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{WorkoutsByName: []WorkoutNameStat{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(volume), 0), MIN(started_at), MAX(started_at)
		 FROM workout_sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWorkouts, &stats.TotalVolume, &stats.EarliestWorkout, &stats.LatestWorkout)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_sets ws
		 JOIN workout_exercises e ON e.id = ws.workout_exercise_id
		 JOIN workout_sessions s ON s.id = e.workout_session_id
		 WHERE s.user_id = $1`, userID,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM routines WHERE user_id = $1),
		        (SELECT COUNT(*) FROM exercises WHERE user_id = $1),
		        (SELECT COUNT(*) FROM personal_records WHERE user_id = $1)`, userID,
	).Scan(&stats.TotalRoutines, &stats.CustomExercises, &stats.PersonalRecords)
	if err != nil {
		return nil, fmt.Errorf("counting routines and records: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT name, COUNT(*), COALESCE(SUM(volume), 0),
		        COALESCE(SUM(EXTRACT(EPOCH FROM completed_at - started_at)), 0)::float8
		 FROM workout_sessions
		 WHERE user_id = $1 AND status = 'completed'
		 GROUP BY name
		 ORDER BY COUNT(*) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts by name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s WorkoutNameStat
		if err := rows.Scan(&s.Name, &s.Count, &s.TotalVolume, &s.TotalDuration); err != nil {
			return nil, fmt.Errorf("scanning workout name stat: %w", err)
		}
		stats.WorkoutsByName = append(stats.WorkoutsByName, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
