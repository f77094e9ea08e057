package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored data.
type DataStats struct {
	TotalSets    int64          `json:"total_sets"`
	TrainingDays int64          `json:"training_days"`
	Exercises    int64          `json:"exercises"`
	Checkins     int64          `json:"recovery_checkins"`
	TotalVolume  float64        `json:"total_volume"`
	EarliestSet  *time.Time     `json:"earliest_set"`
	LatestSet    *time.Time     `json:"latest_set"`
	TopExercises []ExerciseStat `json:"top_exercises"`
}

// ExerciseStat holds lifetime totals for one exercise.
type ExerciseStat struct {
	ExerciseID string  `json:"exercise_id"`
	Name       string  `json:"name"`
	Sets       int64   `json:"sets"`
	Volume     float64 `json:"volume"`
	MaxWeight  float64 `json:"max_weight"`
}

const topExercises = 10

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT (completed_at AT TIME ZONE 'UTC')::date),
		        COUNT(DISTINCT exercise_id),
		        COALESCE(SUM(weight * reps), 0),
		        MIN(completed_at), MAX(completed_at)
		 FROM logged_sets WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSets, &stats.TrainingDays, &stats.Exercises,
		&stats.TotalVolume, &stats.EarliestSet, &stats.LatestSet)
	if err != nil {
		return nil, fmt.Errorf("summarising sets: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM recovery_checkins WHERE user_id = $1`, userID,
	).Scan(&stats.Checkins)
	if err != nil {
		return nil, fmt.Errorf("counting check-ins: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, MAX(exercise_name), COUNT(*), SUM(weight * reps), MAX(weight)
		 FROM logged_sets
		 WHERE user_id = $1
		 GROUP BY exercise_id
		 ORDER BY COUNT(*) DESC, exercise_id
		 LIMIT $2`, userID, topExercises)
	if err != nil {
		return nil, fmt.Errorf("querying exercise totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseStat
		if err := rows.Scan(&s.ExerciseID, &s.Name, &s.Sets, &s.Volume, &s.MaxWeight); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.TopExercises = append(stats.TopExercises, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
