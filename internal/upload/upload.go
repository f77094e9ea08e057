// Package upload pushes Alpha Progression exports from a local directory to
// a remote FreeLift server, skipping files that were already sent.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meltforce/freelift/internal/importer"
	"github.com/meltforce/freelift/internal/ingest"
	"github.com/meltforce/freelift/internal/ingest/alpha"
)

// remoteUser keys upload state. The server decides which user an upload
// belongs to, so local state does not distinguish users.
const remoteUser = 0

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SetsSent     int
	SetsInserted int64
}

// Sender delivers one export. *Client implements it.
type Sender interface {
	SendExport(ctx context.Context, data []byte) (*ingest.Result, error)
}

// Uploader walks an export directory and sends each new or changed CSV.
type Uploader struct {
	client Sender
	state  *importer.StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client Sender, state *importer.StateDB, dir string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{client: client, state: state, dir: dir, dryRun: dryRun, log: log}
}

// Run uploads every export under the directory. Per-file failures are
// counted and logged; the run continues with the next file.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := importer.FindExports(u.dir)
	if err != nil {
		return &u.stats, fmt.Errorf("finding exports: %w", err)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.uploadFile(ctx, f); err != nil {
			u.log.Warn("upload failed", "file", f, "error", err)
			u.stats.FilesErrored++
		}
	}
	return &u.stats, nil
}

func (u *Uploader) uploadFile(ctx context.Context, path string) error {
	relPath, err := filepath.Rel(u.dir, path)
	if err != nil {
		relPath = path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	hash, err := importer.HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}

	if u.state != nil {
		done, err := u.state.IsImported(relPath, int64(len(data)), hash, remoteUser)
		if err != nil {
			return fmt.Errorf("state check: %w", err)
		}
		if done {
			u.stats.FilesSkipped++
			return nil
		}
	}

	if u.dryRun {
		sessions, err := alpha.Parse(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("parsing: %w", err)
		}
		sets, _ := alpha.Convert(sessions, remoteUser)
		u.stats.SetsSent += len(sets)
		u.log.Info("dry-run: would send", "file", relPath, "sessions", len(sessions), "sets", len(sets))
		return nil
	}

	result, err := u.client.SendExport(ctx, data)
	if err != nil {
		return err
	}
	u.stats.FilesUploaded++
	u.stats.SetsSent += result.SetsReceived
	u.stats.SetsInserted += result.SetsInserted
	u.log.Info("uploaded", "file", relPath, "sets", result.SetsReceived, "inserted", result.SetsInserted)

	if u.state == nil {
		return nil
	}
	if err := u.state.MarkImported(relPath, int64(len(data)), hash, remoteUser, result.SetsInserted); err != nil {
		u.log.Warn("failed to mark uploaded", "file", relPath, "error", err)
	}
	return nil
}
