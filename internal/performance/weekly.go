package performance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meltforce/freelift/internal/analytics"
	"github.com/meltforce/freelift/internal/models"
	"github.com/meltforce/freelift/internal/storage"
)

// WeeklyStats summarises the current Sunday-to-Saturday week.
type WeeklyStats struct {
	WeekStart         time.Time `json:"week_start"`
	CompletedWorkouts int       `json:"completed_workouts"`
	WeeklyGoal        int       `json:"weekly_goal"`
	TotalVolume       float64   `json:"total_volume"`
	VolumeChange      int       `json:"volume_change_pct"`
	Streak            int       `json:"streak"`
}

// WeeklyStats counts training days and volume for the week containing now
// and compares volume with the previous week. Days are UTC days, matching
// how sets are grouped into sessions.
func (s *Service) WeeklyStats(ctx context.Context, userID int, now time.Time) (WeeklyStats, error) {
	now = now.UTC()
	start := analytics.WeekStart(now)
	end := start.AddDate(0, 0, 7)

	current, err := s.store.QueryLoggedSets(ctx, userID, start, end, "")
	if err != nil {
		return WeeklyStats{}, fmt.Errorf("this week: %w", err)
	}
	previous, err := s.store.QueryLoggedSets(ctx, userID, start.AddDate(0, 0, -7), start, "")
	if err != nil {
		return WeeklyStats{}, fmt.Errorf("last week: %w", err)
	}
	days, err := s.store.QueryWorkoutDays(ctx, userID)
	if err != nil {
		return WeeklyStats{}, fmt.Errorf("workout days: %w", err)
	}

	volume := totalVolume(current)
	return WeeklyStats{
		WeekStart:         start,
		CompletedWorkouts: countDays(current),
		WeeklyGoal:        s.cfg.WeeklyGoal,
		TotalVolume:       math.Round(volume),
		VolumeChange:      analytics.VolumeChangePct(volume, totalVolume(previous)),
		Streak:            analytics.Streak(days, now),
	}, nil
}

// Dashboard bundles the figures shown on the landing page.
type Dashboard struct {
	Weekly          WeeklyStats                           `json:"weekly"`
	Progress        []analytics.Progress                  `json:"progress"`
	Recommendations []analytics.ProgressionRecommendation `json:"recommendations"`
	LatestRecovery  *models.RecoveryCheckinRow            `json:"latest_recovery,omitempty"`
}

// Dashboard gathers weekly stats, progress, recommendations and the latest
// recovery check-in, if any, for userID.
func (s *Service) Dashboard(ctx context.Context, userID int) (Dashboard, error) {
	var d Dashboard
	var err error
	if d.Weekly, err = s.WeeklyStats(ctx, userID, s.now()); err != nil {
		return Dashboard{}, err
	}
	if d.Progress, err = s.Progress(ctx, userID); err != nil {
		return Dashboard{}, err
	}
	if d.Recommendations, err = s.Recommendations(ctx, userID); err != nil {
		return Dashboard{}, err
	}
	checkin, err := s.store.LatestRecoveryCheckin(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return Dashboard{}, fmt.Errorf("latest recovery: %w", err)
	default:
		d.LatestRecovery = &checkin
	}
	return d, nil
}

func totalVolume(rows []models.LoggedSetRow) float64 {
	var v float64
	for _, r := range rows {
		v += r.Weight * float64(r.Reps)
	}
	return v
}

func countDays(rows []models.LoggedSetRow) int {
	days := map[string]bool{}
	for _, r := range rows {
		days[r.CompletedAt.UTC().Format(time.DateOnly)] = true
	}
	return len(days)
}
