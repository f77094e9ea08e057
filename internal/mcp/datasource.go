package mcp

import (
	"context"
	"time"

	"github.com/meltforce/freelift/internal/analytics"
	"github.com/meltforce/freelift/internal/models"
	"github.com/meltforce/freelift/internal/performance"
)

// DataSource abstracts the data layer for MCP tools. Both
// *performance.Service (local) and HTTPClient (remote via REST API) satisfy
// this interface.
type DataSource interface {
	LoggedSets(ctx context.Context, userID int, start, end time.Time, exerciseID string) ([]models.LoggedSetRow, error)
	Volume(ctx context.Context, userID int, start, end time.Time, exerciseID string) (analytics.VolumeSummary, error)
	Recommendations(ctx context.Context, userID int) ([]analytics.ProgressionRecommendation, error)
	DeloadCheck(ctx context.Context, userID int, exerciseID string) (analytics.DeloadAssessment, error)
	Progress(ctx context.Context, userID int) ([]analytics.Progress, error)
	WeeklyStats(ctx context.Context, userID int, now time.Time) (performance.WeeklyStats, error)
	LatestRecovery(ctx context.Context, userID int) (models.RecoveryCheckinRow, error)
	Dashboard(ctx context.Context, userID int) (performance.Dashboard, error)
}

// Compile-time check: *performance.Service satisfies DataSource.
var _ DataSource = (*performance.Service)(nil)
