package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/freelift/internal/analytics"
	"github.com/meltforce/freelift/internal/ingest"
	"github.com/meltforce/freelift/internal/metrics"
	"github.com/meltforce/freelift/internal/models"
	"github.com/meltforce/freelift/internal/performance"
	"github.com/meltforce/freelift/internal/storage"
)

type fakeStore struct {
	userID       int
	err          error
	createdLogin string
	createdName  string

	sets    map[uuid.UUID]models.LoggedSetRow
	stats   *storage.DataStats
	imports []storage.ImportLog
}

func (f *fakeStore) GetOrCreateUser(_ context.Context, login, displayName string) (int, error) {
	f.createdLogin, f.createdName = login, displayName
	return f.userID, f.err
}

func (f *fakeStore) GetLoggedSet(_ context.Context, userID int, id uuid.UUID) (models.LoggedSetRow, error) {
	row, ok := f.sets[id]
	if !ok || row.UserID != userID {
		return models.LoggedSetRow{}, storage.ErrNotFound
	}
	return row, nil
}

func (f *fakeStore) GetDataStats(context.Context, int) (*storage.DataStats, error) {
	return f.stats, f.err
}

func (f *fakeStore) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	f.imports = append(f.imports, log)
	return int64(len(f.imports)), nil
}

func (f *fakeStore) QueryImportLogs(_ context.Context, userID, limit int) ([]storage.ImportLog, error) {
	var out []storage.ImportLog
	for _, l := range f.imports {
		if l.UserID == userID && len(out) < limit {
			out = append(out, l)
		}
	}
	return out, nil
}

// fakePerf returns canned results and records the arguments it was given.
type fakePerf struct {
	err error

	userID     int
	exerciseID string
	start, end time.Time
	now        time.Time
	recovery   analytics.RecoveryInput

	sets    []models.LoggedSetRow
	volume  analytics.VolumeSummary
	recs    []analytics.ProgressionRecommendation
	deload  analytics.DeloadAssessment
	weekly  performance.WeeklyStats
	checkin models.RecoveryCheckinRow
}

func (f *fakePerf) LoggedSets(_ context.Context, userID int, start, end time.Time, exerciseID string) ([]models.LoggedSetRow, error) {
	f.userID, f.start, f.end, f.exerciseID = userID, start, end, exerciseID
	return f.sets, f.err
}

func (f *fakePerf) Volume(_ context.Context, userID int, start, end time.Time, exerciseID string) (analytics.VolumeSummary, error) {
	f.userID, f.start, f.end, f.exerciseID = userID, start, end, exerciseID
	return f.volume, f.err
}

func (f *fakePerf) Recommendations(_ context.Context, userID int) ([]analytics.ProgressionRecommendation, error) {
	f.userID = userID
	return f.recs, f.err
}

func (f *fakePerf) DeloadCheck(_ context.Context, userID int, exerciseID string) (analytics.DeloadAssessment, error) {
	f.userID, f.exerciseID = userID, exerciseID
	return f.deload, f.err
}

func (f *fakePerf) Progress(_ context.Context, userID int) ([]analytics.Progress, error) {
	f.userID = userID
	return nil, f.err
}

func (f *fakePerf) WeeklyStats(_ context.Context, userID int, now time.Time) (performance.WeeklyStats, error) {
	f.userID, f.now = userID, now
	return f.weekly, f.err
}

func (f *fakePerf) RecordRecovery(_ context.Context, userID int, in analytics.RecoveryInput) (analytics.RecoveryMetrics, error) {
	f.userID, f.recovery = userID, in
	if f.err != nil {
		return analytics.RecoveryMetrics{}, f.err
	}
	return analytics.CalculateRecoveryScore(in)
}

func (f *fakePerf) LatestRecovery(_ context.Context, userID int) (models.RecoveryCheckinRow, error) {
	f.userID = userID
	return f.checkin, f.err
}

func (f *fakePerf) Dashboard(_ context.Context, userID int) (performance.Dashboard, error) {
	f.userID = userID
	return performance.Dashboard{Weekly: f.weekly, Recommendations: f.recs}, f.err
}

type fakeIngester struct {
	body   string
	userID int
	result *ingest.Result
	err    error
}

func (f *fakeIngester) Ingest(_ context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	b, _ := io.ReadAll(r)
	f.body, f.userID = string(b), userID
	return f.result, f.err
}

const testAPIKey = "test-key"

func newTestServer(store *fakeStore, perf *fakePerf, ing *fakeIngester) *Server {
	s := New(store, perf, ing, testAPIKey, metrics.NewTestManager(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC) }
	return s
}

func decode[T any](body io.Reader) (T, error) {
	var v T
	err := json.NewDecoder(body).Decode(&v)
	return v, err
}
