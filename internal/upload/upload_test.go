package upload

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/meltforce/freelift/internal/importer"
	"github.com/meltforce/freelift/internal/ingest"
)

const exportCSV = `"Pull · Day 3";"2026-02-21 6:10 h";"0:58 hr"
"1. Barbell Row · Barbell · 8 reps";"WU1 · 40 kg · 10 reps"
#;KG;REPS;RIR
1;80;8;2
2;80;8;1
3;80;7;0
`

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ingestServer accepts exports and counts requests. failFirst makes the
// first n requests return 503.
func ingestServer(t *testing.T, failFirst int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path != "/api/v1/ingest/alpha" {
			t.Errorf("path = %s, want /api/v1/ingest/alpha", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if n <= failFirst {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "Barbell Row") {
			t.Errorf("body does not look like an export: %q", body)
		}
		json.NewEncoder(w).Encode(ingest.Result{SessionsReceived: 1, SetsReceived: 3, SetsInserted: 3})
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func newClient(url, key string) *Client {
	c := NewClient(url+"/", key)
	c.backoff = 0
	return c
}

// TestSendExportRetries verifies a transient 5xx is retried until success.
func TestSendExportRetries(t *testing.T) {
	ts, calls := ingestServer(t, 2)
	result, err := newClient(ts.URL, "secret").SendExport(context.Background(), []byte(exportCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SetsInserted != 3 {
		t.Errorf("sets_inserted = %d, want 3", result.SetsInserted)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
}

// TestSendExportGivesUp verifies the client stops after three failures.
func TestSendExportGivesUp(t *testing.T) {
	ts, calls := ingestServer(t, 10)
	if _, err := newClient(ts.URL, "secret").SendExport(context.Background(), []byte(exportCSV)); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != maxAttempts {
		t.Errorf("requests = %d, want %d", got, maxAttempts)
	}
}

// TestSendExportNoRetryOnClientError verifies a rejected key is not retried.
func TestSendExportNoRetryOnClientError(t *testing.T) {
	ts, calls := ingestServer(t, 0)
	_, err := newClient(ts.URL, "wrong").SendExport(context.Background(), []byte(exportCSV))
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v, want 403 rejection", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func writeExport(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pull.csv"), []byte(exportCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// TestRunSkipsUploaded verifies a second run sends nothing for unchanged files.
func TestRunSkipsUploaded(t *testing.T) {
	ts, calls := ingestServer(t, 0)
	dir := writeExport(t)
	state, err := importer.OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	stats, err := New(newClient(ts.URL, "secret"), state, dir, false, quietLog()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesUploaded != 1 || stats.SetsSent != 3 || stats.SetsInserted != 3 {
		t.Errorf("first run stats = %+v, want 1 file with 3 sets", stats)
	}

	stats, err = New(newClient(ts.URL, "secret"), state, dir, false, quietLog()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesSkipped != 1 || stats.FilesUploaded != 0 {
		t.Errorf("second run stats = %+v, want 1 skipped", stats)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

// TestRunDryRun verifies dry-run counts working sets without a client.
func TestRunDryRun(t *testing.T) {
	stats, err := New(nil, nil, writeExport(t), true, quietLog()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SetsSent != 3 || stats.FilesUploaded != 0 {
		t.Errorf("stats = %+v, want 3 sets counted and nothing uploaded", stats)
	}
}

// TestRunCountsErrors verifies a failing file is counted and not marked.
func TestRunCountsErrors(t *testing.T) {
	ts, _ := ingestServer(t, 0)
	state, err := importer.OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	dir := writeExport(t)
	stats, err := New(newClient(ts.URL, "wrong"), state, dir, false, quietLog()).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesErrored != 1 {
		t.Errorf("files_errored = %d, want 1", stats.FilesErrored)
	}
	hash, err := importer.HashFile(filepath.Join(dir, "pull.csv"))
	if err != nil {
		t.Fatal(err)
	}
	done, err := state.IsImported("pull.csv", int64(len(exportCSV)), hash, remoteUser)
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("failed upload was marked as done")
	}
}
