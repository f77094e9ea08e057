// Package performance bridges stored training data and the analytics engine.
package performance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meltforce/freelift/internal/analytics"
	"github.com/meltforce/freelift/internal/config"
	"github.com/meltforce/freelift/internal/models"
)

// Store is the subset of storage the service reads and writes.
type Store interface {
	ListTrainedExercises(ctx context.Context, userID int) ([]models.TrainedExercise, error)
	QueryExerciseSets(ctx context.Context, userID int, exerciseID string, limit int) ([]models.LoggedSetRow, error)
	QueryLoggedSets(ctx context.Context, userID int, start, end time.Time, exerciseFilter string) ([]models.LoggedSetRow, error)
	QueryWorkoutDays(ctx context.Context, userID int) ([]time.Time, error)
	InsertRecoveryCheckin(ctx context.Context, c models.RecoveryCheckinRow) (int64, error)
	LatestRecoveryCheckin(ctx context.Context, userID int) (models.RecoveryCheckinRow, error)
}

// fetchConcurrency bounds parallel per-exercise history queries.
const fetchConcurrency = 4

const (
	minHistorySets    = 3
	minSessions       = 2
	progressExercises = 5
)

// Service computes per-user analytics from stored sets.
type Service struct {
	store Store
	cfg   config.AnalyticsConfig
	log   *slog.Logger
	now   func() time.Time
}

// New creates a Service.
func New(store Store, cfg config.AnalyticsConfig, log *slog.Logger) *Service {
	return &Service{store: store, cfg: cfg, log: log, now: time.Now}
}

// Recommendations runs the progression advisor over every exercise with
// enough history: at least three sets spread over at least two sessions.
// Results follow the order of the user's exercise list.
func (s *Service) Recommendations(ctx context.Context, userID int) ([]analytics.ProgressionRecommendation, error) {
	exercises, err := s.store.ListTrainedExercises(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}

	results := make([]*analytics.ProgressionRecommendation, len(exercises))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, ex := range exercises {
		g.Go(func() error {
			rows, err := s.store.QueryExerciseSets(gctx, userID, ex.ExerciseID, s.cfg.HistorySets)
			if err != nil {
				return fmt.Errorf("history for %s: %w", ex.ExerciseID, err)
			}
			rec, err := recommend(ex, models.LoggedSets(rows))
			if err != nil {
				return fmt.Errorf("recommending %s: %w", ex.ExerciseID, err)
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs := make([]analytics.ProgressionRecommendation, 0, len(results))
	for _, r := range results {
		if r != nil {
			recs = append(recs, *r)
		}
	}
	return recs, nil
}

// recommend returns nil when the history is too thin to judge.
func recommend(ex models.TrainedExercise, sets []analytics.LoggedSet) (*analytics.ProgressionRecommendation, error) {
	if len(sets) < minHistorySets {
		return nil, nil
	}
	sessions := analytics.GroupSessions(sets)
	if len(sessions) < minSessions {
		return nil, nil
	}

	current, err := analytics.Estimate1RM(sets[0].Weight, sets[0].Reps)
	if err != nil {
		return nil, err
	}
	var previousMax float64
	for _, session := range sessions[1:] {
		for _, set := range session {
			if e, err := analytics.Estimate1RM(set.Weight, set.Reps); err == nil && e > previousMax {
				previousMax = e
			}
		}
	}

	perf := analytics.ExercisePerformance{
		ExerciseID:          ex.ExerciseID,
		ExerciseName:        ex.ExerciseName,
		Sets:                sets,
		PreviousMax:         previousMax,
		CurrentEstimated1RM: current,
	}
	rec, err := analytics.CalculateProgression(perf, sessions)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeloadCheck assesses one exercise over the sessions within the configured
// window of its most recent set.
func (s *Service) DeloadCheck(ctx context.Context, userID int, exerciseID string) (analytics.DeloadAssessment, error) {
	rows, err := s.store.QueryExerciseSets(ctx, userID, exerciseID, s.cfg.HistorySets)
	if err != nil {
		return analytics.DeloadAssessment{}, fmt.Errorf("history for %s: %w", exerciseID, err)
	}
	sets := models.LoggedSets(rows)
	if len(sets) > 0 {
		cutoff := sets[0].CompletedAt.AddDate(0, 0, -s.cfg.DeloadWindowDays)
		n := len(sets)
		for n > 0 && sets[n-1].CompletedAt.Before(cutoff) {
			n--
		}
		sets = sets[:n]
	}
	return analytics.DetectDeloadNeed(analytics.GroupSessions(sets), s.cfg.DeloadWindowDays)
}

// Progress compares current and earlier estimated 1RMs for the user's most
// recently trained exercises.
func (s *Service) Progress(ctx context.Context, userID int) ([]analytics.Progress, error) {
	exercises, err := s.store.ListTrainedExercises(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	if len(exercises) > progressExercises {
		exercises = exercises[:progressExercises]
	}

	progress := make([]analytics.Progress, 0, len(exercises))
	for _, ex := range exercises {
		rows, err := s.store.QueryExerciseSets(ctx, userID, ex.ExerciseID, s.cfg.ProgressSets)
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", ex.ExerciseID, err)
		}
		p, err := analytics.ProgressDelta(ex.ExerciseName, models.LoggedSets(rows))
		if err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, nil
}

// Volume summarises the user's sets in [start, end), optionally for one
// exercise. A range without sets has zero volume.
func (s *Service) Volume(ctx context.Context, userID int, start, end time.Time, exerciseID string) (analytics.VolumeSummary, error) {
	rows, err := s.store.QueryLoggedSets(ctx, userID, start, end, exerciseID)
	if err != nil {
		return analytics.VolumeSummary{}, err
	}
	if len(rows) == 0 {
		return analytics.VolumeSummary{}, nil
	}
	return analytics.CalculateVolume(models.LoggedSets(rows))
}

// LoggedSets returns the user's raw sets in [start, end).
func (s *Service) LoggedSets(ctx context.Context, userID int, start, end time.Time, exerciseID string) ([]models.LoggedSetRow, error) {
	return s.store.QueryLoggedSets(ctx, userID, start, end, exerciseID)
}

// RecordRecovery scores a readiness check-in and stores it with its result.
func (s *Service) RecordRecovery(ctx context.Context, userID int, in analytics.RecoveryInput) (analytics.RecoveryMetrics, error) {
	metrics, err := analytics.CalculateRecoveryScore(in)
	if err != nil {
		return analytics.RecoveryMetrics{}, err
	}
	_, err = s.store.InsertRecoveryCheckin(ctx, models.RecoveryCheckinRow{
		UserID:          userID,
		SleepHours:      in.SleepHours,
		StressLevel:     in.StressLevel,
		MuscleSoreness:  in.MuscleSoreness,
		MotivationLevel: in.MotivationLevel,
		Score:           metrics.Score,
		Recommendation:  string(metrics.Recommendation),
	})
	if err != nil {
		return analytics.RecoveryMetrics{}, fmt.Errorf("storing check-in: %w", err)
	}
	s.log.Info("recovery check-in", "user_id", userID, "score", metrics.Score, "recommendation", metrics.Recommendation)
	return metrics, nil
}

// LatestRecovery returns the user's most recent check-in.
func (s *Service) LatestRecovery(ctx context.Context, userID int) (models.RecoveryCheckinRow, error) {
	return s.store.LatestRecoveryCheckin(ctx, userID)
}
