package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/freelift/internal/analytics"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	end := time.Now()
	if endStr != "" {
		t, err := parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
	}

	start := end.AddDate(0, 0, -30)
	if startStr != "" {
		t, err := parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// --- Tool definitions ---

var toolEstimate1RM = mcp.NewTool("estimate_1rm",
	mcp.WithDescription("Estimate the one-rep max for a set of weight x reps. Blends Epley, Brzycki and Lombardi; 1 rep or more than 15 returns the weight itself."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Load lifted, in the user's unit")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions completed (at least 1)")),
)

var toolScoreRecovery = mcp.NewTool("score_recovery",
	mcp.WithDescription("Score readiness from sleep, stress, soreness and motivation. Returns a 0-10 score, per-factor sub-scores and whether to train at full intensity, reduced intensity or rest."),
	mcp.WithNumber("sleep_hours", mcp.Required(), mcp.Description("Hours slept last night")),
	mcp.WithNumber("stress_level", mcp.Required(), mcp.Description("Stress 1-10, higher is more stressed")),
	mcp.WithNumber("muscle_soreness", mcp.Required(), mcp.Description("Soreness 1-10, higher is more sore")),
	mcp.WithNumber("motivation_level", mcp.Required(), mcp.Description("Motivation 1-10, higher is more motivated")),
)

var toolGetLoggedSets = mcp.NewTool("get_logged_sets",
	mcp.WithDescription("Query logged working sets. Returns weight, reps, RPE and completion time per set, newest first."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Exercise ID (e.g. 'bench-press'). Defaults to all exercises.")),
)

var toolGetVolume = mcp.NewTool("get_volume",
	mcp.WithDescription("Total volume, RPE-weighted intensity load, set count and average relative intensity over a time range."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Exercise ID. Defaults to all exercises.")),
)

var toolGetRecommendations = mcp.NewTool("get_progression_recommendations",
	mcp.WithDescription("Per-exercise advice for the next session: increase weight, increase reps, maintain or deload, with reasoning and confidence. Exercises with too little history are skipped."),
)

var toolCheckDeload = mcp.NewTool("check_deload",
	mcp.WithDescription("Check whether an exercise needs a deload, based on volume trend and RPE over the recent window."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID (e.g. 'back-squat')")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Estimated 1RM change for the most trained exercises, comparing the latest set with one five sets back."),
)

var toolGetWeeklyStats = mcp.NewTool("get_weekly_stats",
	mcp.WithDescription("This week's completed workouts against the weekly goal, total volume, change versus last week and the current training streak."),
)

// --- Tool handlers ---

func (h *handlers) estimate1RM(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	v, err := analytics.Estimate1RM(weight, reps)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]float64{"estimated_1rm": v})
}

func (h *handlers) scoreRecovery(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in analytics.RecoveryInput
	var err error
	if in.SleepHours, err = req.RequireFloat("sleep_hours"); err != nil {
		return mcp.NewToolResultError("sleep_hours parameter is required"), nil
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"stress_level", &in.StressLevel},
		{"muscle_soreness", &in.MuscleSoreness},
		{"motivation_level", &in.MotivationLevel},
	} {
		if *p.dst, err = req.RequireInt(p.name); err != nil {
			return mcp.NewToolResultError(p.name + " parameter is required"), nil
		}
	}
	m, err := analytics.CalculateRecoveryScore(in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(m)
}

func (h *handlers) getLoggedSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	sets, err := h.ds.LoggedSets(ctx, UserIDFromContext(ctx), start, end, req.GetString("exercise", ""))
	if err != nil {
		h.log.Error("mcp get_logged_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sets)
}

func (h *handlers) getVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	v, err := h.ds.Volume(ctx, UserIDFromContext(ctx), start, end, req.GetString("exercise", ""))
	if errors.Is(err, analytics.ErrInvalidInput) {
		return mcp.NewToolResultError("invalid logged sets: " + err.Error()), nil
	}
	if err != nil {
		h.log.Error("mcp get_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(v)
}

func (h *handlers) getRecommendations(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := h.ds.Recommendations(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_progression_recommendations", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(recs)
}

func (h *handlers) checkDeload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	a, err := h.ds.DeloadCheck(ctx, UserIDFromContext(ctx), exercise)
	if err != nil {
		h.log.Error("mcp check_deload", "exercise", exercise, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(a)
}

func (h *handlers) getProgress(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.ds.Progress(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(p)
}

func (h *handlers) getWeeklyStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.WeeklyStats(ctx, UserIDFromContext(ctx), time.Now())
	if err != nil {
		h.log.Error("mcp get_weekly_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
