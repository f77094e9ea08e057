package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/freelift/internal/analytics"
	"github.com/meltforce/freelift/internal/ingest"
	"github.com/meltforce/freelift/internal/mcp"
	"github.com/meltforce/freelift/internal/metrics"
	"github.com/meltforce/freelift/internal/models"
	"github.com/meltforce/freelift/internal/performance"
	"github.com/meltforce/freelift/internal/storage"
)

// Store is the storage the handlers use directly.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	GetLoggedSet(ctx context.Context, userID int, id uuid.UUID) (models.LoggedSetRow, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
}

// Performance computes per-user analytics. *performance.Service implements it.
type Performance interface {
	LoggedSets(ctx context.Context, userID int, start, end time.Time, exerciseID string) ([]models.LoggedSetRow, error)
	Volume(ctx context.Context, userID int, start, end time.Time, exerciseID string) (analytics.VolumeSummary, error)
	Recommendations(ctx context.Context, userID int) ([]analytics.ProgressionRecommendation, error)
	DeloadCheck(ctx context.Context, userID int, exerciseID string) (analytics.DeloadAssessment, error)
	Progress(ctx context.Context, userID int) ([]analytics.Progress, error)
	WeeklyStats(ctx context.Context, userID int, now time.Time) (performance.WeeklyStats, error)
	RecordRecovery(ctx context.Context, userID int, in analytics.RecoveryInput) (analytics.RecoveryMetrics, error)
	LatestRecovery(ctx context.Context, userID int) (models.RecoveryCheckinRow, error)
	Dashboard(ctx context.Context, userID int) (performance.Dashboard, error)
}

// Ingester stores an uploaded export for a user.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     Store
	perf   Performance
	alpha  Ingester
	m      *metrics.Manager
	log    *slog.Logger
	apiKey string
	router chi.Router

	mu    sync.RWMutex
	whois WhoIser
	now   func() time.Time
}

// New creates a new Server with all routes configured.
func New(db Store, perf Performance, alphaProvider Ingester, apiKey string, m *metrics.Manager, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		perf:   perf,
		alpha:  alphaProvider,
		m:      m,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
		now:    time.Now,
	}
	s.routes()
	return s
}

// SetTailscale switches identity from the fixed dev user to Tailscale WhoIs lookups.
func (s *Server) SetTailscale(w WhoIser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whois = w
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.m))
	s.router.Use(CORS)

	s.router.Method(http.MethodGet, "/metrics", s.m.Handler())

	// Stateless engine endpoints: everything needed is in the request body.
	s.router.Route("/api/v1/analytics", func(r chi.Router) {
		r.Post("/1rm", s.handleEstimate1RM)
		r.Post("/volume", s.handleCalculateVolume)
		r.Post("/progression", s.handleCalculateProgression)
		r.Post("/recovery", s.handleRecoveryScore)
		r.Post("/deload", s.handleDetectDeload)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)

		r.With(APIKeyAuth(s.apiKey)).Post("/api/v1/ingest/alpha", s.handleAlphaIngest)

		r.Get("/api/v1/me", s.handleMe)
		r.Get("/api/v1/dashboard", s.handleDashboard)
		r.Get("/api/v1/sets", s.handleQuerySets)
		r.Get("/api/v1/sets/{id}", s.handleGetSet)
		r.Get("/api/v1/volume", s.handleVolume)
		r.Get("/api/v1/recommendations", s.handleRecommendations)
		r.Get("/api/v1/exercises/{exerciseID}/deload", s.handleDeloadCheck)
		r.Get("/api/v1/progress", s.handleProgress)
		r.Get("/api/v1/weekly", s.handleWeekly)
		r.Post("/api/v1/recovery", s.handleRecordRecovery)
		r.Get("/api/v1/recovery/latest", s.handleLatestRecovery)
		r.Get("/api/v1/stats", s.handleStats)
		r.Get("/api/v1/imports", s.handleImportLogs)
	})
}

// MountMCP serves m at /mcp over streamable HTTP. Tool calls run as the
// caller resolved by the identity middleware.
func (s *Server) MountMCP(m *mcpserver.MCPServer) {
	s.router.With(s.identity).Handle("/mcp", mcp.HTTPHandler(m, userIDFromContext))
}

func (s *Server) tailscale() WhoIser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.whois
}
