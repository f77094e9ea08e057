package storage

import (
	"context"
	"fmt"

	"github.com/meltforce/freelift/internal/models"
)

// InsertRecoveryCheckin stores a scored check-in and returns its ID.
func (db *DB) InsertRecoveryCheckin(ctx context.Context, c models.RecoveryCheckinRow) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO recovery_checkins (user_id, sleep_hours, stress_level, muscle_soreness,
		 motivation_level, score, recommendation)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		c.UserID, c.SleepHours, c.StressLevel, c.MuscleSoreness,
		c.MotivationLevel, c.Score, c.Recommendation,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting recovery check-in: %w", err)
	}
	return id, nil
}

// LatestRecoveryCheckin returns the user's most recent check-in.
func (db *DB) LatestRecoveryCheckin(ctx context.Context, userID int) (models.RecoveryCheckinRow, error) {
	var c models.RecoveryCheckinRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, sleep_hours, stress_level, muscle_soreness,
		 motivation_level, score, recommendation
		 FROM recovery_checkins
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.SleepHours, &c.StressLevel, &c.MuscleSoreness,
		&c.MotivationLevel, &c.Score, &c.Recommendation)
	if err != nil {
		return models.RecoveryCheckinRow{}, fmt.Errorf("latest recovery check-in: %w", notFound(err))
	}
	return c, nil
}
