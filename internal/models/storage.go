package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/freelift/internal/analytics"
)

// LoggedSetRow is a row of the logged_sets table.
type LoggedSetRow struct {
	ID           uuid.UUID `json:"id"`
	UserID       int       `json:"user_id"`
	ExerciseID   string    `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	RPE          *float64  `json:"rpe,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
	Source       string    `json:"source"`
}

// ToLoggedSet strips storage-only fields for the analytics engine.
func (r LoggedSetRow) ToLoggedSet() analytics.LoggedSet {
	return analytics.LoggedSet{
		ID:          r.ID.String(),
		Weight:      r.Weight,
		Reps:        r.Reps,
		RPE:         r.RPE,
		ExerciseID:  r.ExerciseID,
		CompletedAt: r.CompletedAt,
	}
}

// LoggedSets converts rows in order.
func LoggedSets(rows []LoggedSetRow) []analytics.LoggedSet {
	sets := make([]analytics.LoggedSet, len(rows))
	for i, r := range rows {
		sets[i] = r.ToLoggedSet()
	}
	return sets
}

// RecoveryCheckinRow is a row of the recovery_checkins table. The score and
// recommendation are computed at check-in time and stored alongside the inputs.
type RecoveryCheckinRow struct {
	ID              int64     `json:"id"`
	UserID          int       `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
	SleepHours      float64   `json:"sleep_hours"`
	StressLevel     int       `json:"stress_level"`
	MuscleSoreness  int       `json:"muscle_soreness"`
	MotivationLevel int       `json:"motivation_level"`
	Score           float64   `json:"score"`
	Recommendation  string    `json:"recommendation"`
}

// TrainedExercise summarises one exercise a user has logged sets for.
type TrainedExercise struct {
	ExerciseID   string    `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	Sets         int       `json:"sets"`
	LastTrained  time.Time `json:"last_trained"`
}
