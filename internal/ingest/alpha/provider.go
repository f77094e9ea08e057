package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/meltforce/freelift/internal/ingest"
	"github.com/meltforce/freelift/internal/models"
)

// Source is recorded on every logged set imported from Alpha Progression.
const Source = "alpha_progression"

// Store is the persistence the provider needs.
type Store interface {
	DeleteLoggedSets(ctx context.Context, userID int, day time.Time, source string) error
	InsertLoggedSets(ctx context.Context, rows []models.LoggedSetRow) (int64, error)
}

// Provider turns Alpha Progression CSV exports into logged sets.
type Provider struct {
	db  Store
	log *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(db Store, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Ingest parses a CSV export and stores its working sets for userID.
// Sets already stored for the same days are replaced, so importing the same
// export twice leaves one copy.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	rows, result := Convert(sessions, userID)

	for _, s := range sessions {
		if err := p.db.DeleteLoggedSets(ctx, userID, s.Date, Source); err != nil {
			return nil, fmt.Errorf("deleting existing sets for %s: %w", s.Date.Format(time.DateOnly), err)
		}
	}

	if len(rows) > 0 {
		inserted, err := p.db.InsertLoggedSets(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("inserting sets: %w", err)
		}
		result.SetsInserted = inserted
		result.SetsSkipped = int64(len(rows)) - inserted
	}

	p.log.Info("alpha import",
		"user_id", userID,
		"sessions", result.SessionsReceived,
		"sets", result.SetsReceived,
		"inserted", result.SetsInserted,
	)
	return result, nil
}

// Convert maps parsed sessions to logged set rows. Warm-ups and sets without
// reps are dropped. Each working set is stamped one second after the
// previous one so stored order matches the order they were logged in.
func Convert(sessions []models.AlphaSession, userID int) ([]models.LoggedSetRow, *ingest.Result) {
	result := &ingest.Result{SessionsReceived: len(sessions)}
	exercises := map[string]bool{}
	var rows []models.LoggedSetRow

	for _, s := range sessions {
		var offset time.Duration
		for _, ex := range s.Exercises {
			id := ExerciseID(ex.Name)
			for _, set := range ex.Sets {
				if set.IsWarmup {
					result.WarmupsSkipped++
					continue
				}
				if set.Reps < 1 {
					continue
				}
				exercises[id] = true
				rows = append(rows, models.LoggedSetRow{
					UserID:       userID,
					ExerciseID:   id,
					ExerciseName: ex.Name,
					Weight:       set.WeightKg,
					Reps:         set.Reps,
					RPE:          RPEFromRIR(set.RIR),
					CompletedAt:  s.Date.Add(offset),
					Source:       Source,
				})
				offset += time.Second
			}
		}
	}

	result.SetsReceived = len(rows)
	result.Exercises = len(exercises)
	return rows, result
}

// RPEFromRIR converts reps in reserve to RPE (10 - RIR), clamped to 1..10.
// Untracked RIR yields no RPE.
func RPEFromRIR(rir float64) *float64 {
	if rir < 0 {
		return nil
	}
	rpe := math.Max(1, math.Min(10, 10-rir))
	return &rpe
}

// ExerciseID derives a stable identifier from an exercise name:
// "Bench Press (Close Grip)" becomes "bench-press-close-grip".
func ExerciseID(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
