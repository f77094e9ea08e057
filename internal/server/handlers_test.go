package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/meltforce/freelift/internal/analytics"
	"github.com/meltforce/freelift/internal/ingest"
	"github.com/meltforce/freelift/internal/models"
	"github.com/meltforce/freelift/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if method == http.MethodPost && strings.HasPrefix(target, "/api/v1/ingest/") {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestHandleMe verifies /api/v1/me reports the dev identity without Tailscale
// and the tailnet user once WhoIs is configured.
func TestHandleMe(t *testing.T) {
	s := newTestServer(&fakeStore{userID: 3}, &fakePerf{}, &fakeIngester{})

	rec := serve(s, http.MethodGet, "/api/v1/me", "")
	info, err := decode[UserInfo](rec.Body)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if want := (UserInfo{ID: 1, Login: "local", DisplayName: "Local Dev User"}); info != want {
		t.Errorf("dev identity = %+v, want %+v", info, want)
	}

	s.SetTailscale(whoIs("alice@example.com", "Alice"))
	rec = serve(s, http.MethodGet, "/api/v1/me", "")
	info, err = decode[UserInfo](rec.Body)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if want := (UserInfo{ID: 3, Login: "alice@example.com", DisplayName: "Alice"}); info != want {
		t.Errorf("tailscale identity = %+v, want %+v", info, want)
	}
}

// TestEstimate1RMEndpoint verifies the stateless 1RM calculation and its
// rejection of bad input.
func TestEstimate1RMEndpoint(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakePerf{}, &fakeIngester{})

	rec := serve(s, http.MethodPost, "/api/v1/analytics/1rm", `{"weight":135,"reps":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	got, err := decode[map[string]float64](rec.Body)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got["estimated_1rm"] != 156.03 {
		t.Errorf("estimated_1rm = %v, want 156.03", got["estimated_1rm"])
	}

	for _, body := range []string{`{"weight":135,"reps":0}`, `{"weight":-1,"reps":5}`, `not json`} {
		if rec := serve(s, http.MethodPost, "/api/v1/analytics/1rm", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

// TestAnalyticsEndpoints verifies each engine operation is reachable over HTTP.
func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakePerf{}, &fakeIngester{})
	tests := []struct {
		path string
		body string
		want string
	}{
		{"/api/v1/analytics/volume", `{"sets":[{"weight":100,"reps":10,"rpe":8}]}`, `"total_volume":1000`},
		{"/api/v1/analytics/recovery", `{"sleep_hours":8,"stress_level":2,"muscle_soreness":3,"motivation_level":9}`, `"recommendation":"full_intensity"`},
		{"/api/v1/analytics/progression", `{"performance":{"exercise_id":"squat"},"sessions":[]}`, `"action":"maintain"`},
		{"/api/v1/analytics/deload", `{"sessions":[]}`, `"reason":"Insufficient data"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(s, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %s, want it to contain %s", rec.Body, tt.want)
			}
		})
	}
}

// TestCalculateVolumeEmpty verifies an empty set list is a client error.
func TestCalculateVolumeEmpty(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakePerf{}, &fakeIngester{})
	if rec := serve(s, http.MethodPost, "/api/v1/analytics/volume", `{"sets":[]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestAlphaIngest verifies uploads are attributed to the caller and logged.
func TestAlphaIngest(t *testing.T) {
	store := &fakeStore{}
	ing := &fakeIngester{result: &ingest.Result{SessionsReceived: 1, SetsReceived: 4, SetsInserted: 3}}
	s := newTestServer(store, &fakePerf{}, ing)

	rec := serve(s, http.MethodPost, "/api/v1/ingest/alpha", "csv body")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if ing.body != "csv body" || ing.userID != 1 {
		t.Errorf("ingest got body %q user %d, want %q user 1", ing.body, ing.userID, "csv body")
	}
	if len(store.imports) != 1 {
		t.Fatalf("import logs = %d, want 1", len(store.imports))
	}
	got := store.imports[0]
	if got.Status != "success" || got.SetsReceived != 4 || got.SetsInserted != 3 || got.DurationMs == nil {
		t.Errorf("import log = %+v, want success 4/3 with duration", got)
	}
	if n := testutil.ToFloat64(s.m.CounterSetsIngested); n != 3 {
		t.Errorf("sets ingested metric = %v, want 3", n)
	}
}

// TestAlphaIngestFailure verifies a parse failure is a 400 and logged as an error.
func TestAlphaIngestFailure(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store, &fakePerf{}, &fakeIngester{err: errors.New("line 3: set without exercise")})

	rec := serve(s, http.MethodPost, "/api/v1/ingest/alpha", "bad")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(store.imports) != 1 || store.imports[0].Status != "error" || store.imports[0].ErrorMessage == nil {
		t.Errorf("import logs = %+v, want one error entry", store.imports)
	}
}

// TestAlphaIngestRequiresKey verifies the ingest route is closed without X-API-Key.
func TestAlphaIngestRequiresKey(t *testing.T) {
	ing := &fakeIngester{}
	s := newTestServer(&fakeStore{}, &fakePerf{}, ing)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/alpha", strings.NewReader("csv"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ing.body != "" {
		t.Error("ingester called without API key")
	}
}

// TestQuerySets verifies filters pass through to the service.
func TestQuerySets(t *testing.T) {
	perf := &fakePerf{sets: []models.LoggedSetRow{{ExerciseID: "squat", Weight: 100, Reps: 5}}}
	s := newTestServer(&fakeStore{}, perf, &fakeIngester{})

	rec := serve(s, http.MethodGet, "/api/v1/sets?start=2026-03-01&end=2026-03-07&exercise=squat", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if perf.exerciseID != "squat" {
		t.Errorf("exercise = %q, want squat", perf.exerciseID)
	}
	if want := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC); !perf.end.Equal(want) {
		t.Errorf("end = %s, want %s", perf.end, want)
	}

	if rec := serve(s, http.MethodGet, "/api/v1/sets?start=yesterday", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad start: status = %d, want 400", rec.Code)
	}
}

// TestGetSet verifies lookup by ID, malformed IDs and another user's sets.
func TestGetSet(t *testing.T) {
	mine, theirs := uuid.New(), uuid.New()
	store := &fakeStore{sets: map[uuid.UUID]models.LoggedSetRow{
		mine:   {ID: mine, UserID: 1, ExerciseID: "squat"},
		theirs: {ID: theirs, UserID: 2, ExerciseID: "bench"},
	}}
	s := newTestServer(store, &fakePerf{}, &fakeIngester{})

	tests := []struct {
		id   string
		want int
	}{
		{mine.String(), http.StatusOK},
		{theirs.String(), http.StatusNotFound},
		{"not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := serve(s, http.MethodGet, "/api/v1/sets/"+tt.id, ""); rec.Code != tt.want {
			t.Errorf("GET %s: status = %d, want %d", tt.id, rec.Code, tt.want)
		}
	}
}

// TestDeloadCheckRoute verifies the exercise ID is read from the path.
func TestDeloadCheckRoute(t *testing.T) {
	perf := &fakePerf{deload: analytics.DeloadAssessment{NeedsDeload: true, Reason: "3 consecutive high-RPE sessions", Severity: analytics.SeverityModerate}}
	s := newTestServer(&fakeStore{}, perf, &fakeIngester{})

	rec := serve(s, http.MethodGet, "/api/v1/exercises/back-squat/deload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if perf.exerciseID != "back-squat" {
		t.Errorf("exercise = %q, want back-squat", perf.exerciseID)
	}
	got, err := decode[analytics.DeloadAssessment](rec.Body)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if diff := cmp.Diff(perf.deload, got); diff != "" {
		t.Errorf("assessment mismatch (-want +got):\n%s", diff)
	}
	if n := testutil.ToFloat64(s.m.CounterDeloadChecks.WithLabelValues("true", "moderate")); n != 1 {
		t.Errorf("deload metric = %v, want 1", n)
	}
}

// TestWeeklyUsesClock verifies the weekly summary is computed for the server's now.
func TestWeeklyUsesClock(t *testing.T) {
	perf := &fakePerf{}
	s := newTestServer(&fakeStore{}, perf, &fakeIngester{})
	if rec := serve(s, http.MethodGet, "/api/v1/weekly", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !perf.now.Equal(s.now()) {
		t.Errorf("now = %s, want %s", perf.now, s.now())
	}
}

// TestRecordRecovery verifies check-ins are scored and out-of-range input rejected.
func TestRecordRecovery(t *testing.T) {
	perf := &fakePerf{}
	s := newTestServer(&fakeStore{}, perf, &fakeIngester{})

	rec := serve(s, http.MethodPost, "/api/v1/recovery", `{"sleep_hours":7,"stress_level":4,"muscle_soreness":3,"motivation_level":8}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if perf.recovery.SleepHours != 7 {
		t.Errorf("sleep = %v, want 7", perf.recovery.SleepHours)
	}

	rec = serve(s, http.MethodPost, "/api/v1/recovery", `{"sleep_hours":7,"stress_level":11,"muscle_soreness":3,"motivation_level":8}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out of range: status = %d, want 400", rec.Code)
	}
}

// TestErrorMapping verifies storage and service failures map to HTTP statuses.
func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{analytics.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		s := newTestServer(&fakeStore{}, &fakePerf{err: tt.err}, &fakeIngester{})
		if rec := serve(s, http.MethodGet, "/api/v1/recovery/latest", ""); rec.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

// TestImportLogs verifies the limit parameter is validated and applied.
func TestImportLogs(t *testing.T) {
	store := &fakeStore{imports: []storage.ImportLog{
		{UserID: 1, Source: "alpha_progression", Status: "success"},
		{UserID: 1, Source: "alpha_progression", Status: "error"},
		{UserID: 2, Source: "alpha_progression", Status: "success"},
	}}
	s := newTestServer(store, &fakePerf{}, &fakeIngester{})

	rec := serve(s, http.MethodGet, "/api/v1/imports?limit=1", "")
	logs, err := decode[[]storage.ImportLog](rec.Body)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != "success" {
		t.Errorf("logs = %+v, want first entry only", logs)
	}

	if rec := serve(s, http.MethodGet, "/api/v1/imports?limit=0", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0: status = %d, want 400", rec.Code)
	}
}

// TestMetricsEndpoint verifies request counters are exposed at /metrics.
func TestMetricsEndpoint(t *testing.T) {
	perf := &fakePerf{recs: []analytics.ProgressionRecommendation{
		{ExerciseID: "bench-press", Action: analytics.ActionIncreaseWeight},
		{ExerciseID: "squat", Action: analytics.ActionMaintain},
	}}
	s := newTestServer(&fakeStore{}, perf, &fakeIngester{})
	serve(s, http.MethodGet, "/api/v1/recommendations", "")
	serve(s, http.MethodGet, "/api/v1/recommendations", "")

	if n := testutil.ToFloat64(s.m.CounterRecommendations.WithLabelValues("increase_weight")); n != 2 {
		t.Errorf("increase_weight = %v, want 2", n)
	}

	rec := serve(s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := `freelift_test_requests_total{method="GET",status="200"} 2`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics output missing %q", want)
	}
}
