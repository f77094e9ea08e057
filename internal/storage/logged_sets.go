package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/freelift/internal/models"
)

const loggedSetColumns = `id, user_id, exercise_id, exercise_name, weight, reps, rpe, completed_at, source`

// InsertLoggedSets batch-inserts logged sets and returns how many were new.
// Rows without an ID get a fresh one; rows colliding with an existing set
// (same user, exercise, time and source) are skipped.
func (db *DB) InsertLoggedSets(ctx context.Context, rows []models.LoggedSetRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	const cols = 9
	args := make([]any, 0, len(rows)*cols)
	values := make([]string, 0, len(rows))
	for i, r := range rows {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.Source == "" {
			r.Source = "api"
		}
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*cols+j+1)
		}
		values = append(values, "("+strings.Join(ph, ",")+")")
		args = append(args, r.ID, r.UserID, r.ExerciseID, r.ExerciseName,
			r.Weight, r.Reps, r.RPE, r.CompletedAt, r.Source)
	}

	query := `INSERT INTO logged_sets (` + loggedSetColumns + `) VALUES ` +
		strings.Join(values, ",") + ` ON CONFLICT DO NOTHING`
	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting logged sets: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteLoggedSets removes a user's sets from one source on the calendar day
// of day, so a re-import replaces rather than duplicates.
func (db *DB) DeleteLoggedSets(ctx context.Context, userID int, day time.Time, source string) error {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	_, err := db.Pool.Exec(ctx,
		`DELETE FROM logged_sets
		 WHERE user_id = $1 AND source = $2 AND completed_at >= $3 AND completed_at < $4`,
		userID, source, start, start.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("deleting sets for %s: %w", start.Format(time.DateOnly), err)
	}
	return nil
}

// GetLoggedSet returns one set owned by userID.
func (db *DB) GetLoggedSet(ctx context.Context, userID int, id uuid.UUID) (models.LoggedSetRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+loggedSetColumns+` FROM logged_sets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return models.LoggedSetRow{}, fmt.Errorf("querying set %s: %w", id, err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, scanLoggedSet)
	if err != nil {
		return models.LoggedSetRow{}, fmt.Errorf("getting set %s: %w", id, notFound(err))
	}
	return row, nil
}

// QueryExerciseSets returns up to limit of a user's most recent sets for one
// exercise, most recent first.
func (db *DB) QueryExerciseSets(ctx context.Context, userID int, exerciseID string, limit int) ([]models.LoggedSetRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+loggedSetColumns+` FROM logged_sets
		 WHERE user_id = $1 AND exercise_id = $2
		 ORDER BY completed_at DESC
		 LIMIT $3`,
		userID, exerciseID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sets for %s: %w", exerciseID, err)
	}
	result, err := pgx.CollectRows(rows, scanLoggedSet)
	if err != nil {
		return nil, fmt.Errorf("scanning sets for %s: %w", exerciseID, err)
	}
	return result, nil
}

// QueryLoggedSets returns a user's sets in [start, end), most recent first,
// optionally restricted to one exercise.
func (db *DB) QueryLoggedSets(ctx context.Context, userID int, start, end time.Time, exerciseFilter string) ([]models.LoggedSetRow, error) {
	query := `SELECT ` + loggedSetColumns + ` FROM logged_sets
		 WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3`
	args := []any{userID, start, end}
	if exerciseFilter != "" {
		query += ` AND exercise_id = $4`
		args = append(args, exerciseFilter)
	}
	query += ` ORDER BY completed_at DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying logged sets: %w", err)
	}
	result, err := pgx.CollectRows(rows, scanLoggedSet)
	if err != nil {
		return nil, fmt.Errorf("scanning logged sets: %w", err)
	}
	return result, nil
}

// ListTrainedExercises returns every exercise the user has logged, most
// recently trained first.
func (db *DB) ListTrainedExercises(ctx context.Context, userID int) ([]models.TrainedExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, MAX(exercise_name), COUNT(*), MAX(completed_at)
		 FROM logged_sets
		 WHERE user_id = $1
		 GROUP BY exercise_id
		 ORDER BY MAX(completed_at) DESC, exercise_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	defer rows.Close()

	var result []models.TrainedExercise
	for rows.Next() {
		var e models.TrainedExercise
		if err := rows.Scan(&e.ExerciseID, &e.ExerciseName, &e.Sets, &e.LastTrained); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// QueryWorkoutDays returns the distinct UTC days with at least one logged
// set, most recent first.
func (db *DB) QueryWorkoutDays(ctx context.Context, userID int) ([]time.Time, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT (completed_at AT TIME ZONE 'UTC')::date AS day
		 FROM logged_sets
		 WHERE user_id = $1
		 ORDER BY day DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying workout days: %w", err)
	}
	days, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, fmt.Errorf("scanning workout days: %w", err)
	}
	return days, nil
}

func scanLoggedSet(row pgx.CollectableRow) (models.LoggedSetRow, error) {
	var r models.LoggedSetRow
	err := row.Scan(&r.ID, &r.UserID, &r.ExerciseID, &r.ExerciseName,
		&r.Weight, &r.Reps, &r.RPE, &r.CompletedAt, &r.Source)
	return r, err
}
