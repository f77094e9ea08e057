package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/freelift/internal/storage"
)

const recentSetsDays = 14

func (h *handlers) dashboard(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	d, err := h.ds.Dashboard(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, d)
}

func (h *handlers) recentSets(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	sets, err := h.ds.LoggedSets(ctx, UserIDFromContext(ctx), end.AddDate(0, 0, -recentSetsDays), end, "")
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, sets)
}

func (h *handlers) latestRecovery(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	c, err := h.ds.LatestRecovery(ctx, UserIDFromContext(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		return jsonResource(req.Params.URI, map[string]string{"message": "no recovery check-ins recorded"})
	}
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, c)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
