package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FreeLift", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FreeLift strength training server. Estimate one-rep maxes, score recovery, and review logged sets, volume, progression advice, deload signals and weekly progress. All stored data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolEstimate1RM, Handler: h.estimate1RM},
		server.ServerTool{Tool: toolScoreRecovery, Handler: h.scoreRecovery},
		server.ServerTool{Tool: toolGetLoggedSets, Handler: h.getLoggedSets},
		server.ServerTool{Tool: toolGetVolume, Handler: h.getVolume},
		server.ServerTool{Tool: toolGetRecommendations, Handler: h.getRecommendations},
		server.ServerTool{Tool: toolCheckDeload, Handler: h.checkDeload},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetWeeklyStats, Handler: h.getWeeklyStats},
	)

	s.AddResources(
		server.ServerResource{Resource: resDashboard, Handler: h.dashboard},
		server.ServerResource{Resource: resRecentSets, Handler: h.recentSets},
		server.ServerResource{Resource: resLatestRecovery, Handler: h.latestRecovery},
	)

	return s
}

// HTTPHandler serves s over streamable HTTP. userID resolves the caller of
// each request, typically from identity middleware.
func HTTPHandler(s *server.MCPServer, userID func(*http.Request) int) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return WithUserID(ctx, userID(r))
		}),
	)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resDashboard = mcp.NewResource(
	"freelift://dashboard",
	"Dashboard",
	mcp.WithResourceDescription("This week's workouts and volume, streak, top exercise progress and progression recommendations"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSets = mcp.NewResource(
	"freelift://recent_sets",
	"Recent Sets",
	mcp.WithResourceDescription("Logged working sets from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resLatestRecovery = mcp.NewResource(
	"freelift://latest_recovery",
	"Latest Recovery Check-in",
	mcp.WithResourceDescription("The most recent recovery check-in with its score and training recommendation"),
	mcp.WithMIMEType("application/json"),
)
