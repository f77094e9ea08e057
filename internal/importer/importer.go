package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meltforce/freelift/internal/ingest"
	"github.com/meltforce/freelift/internal/ingest/alpha"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SessionsReceived int
	SetsReceived     int
	SetsInserted     int64
	WarmupsSkipped   int
}

// Ingester stores one export for a user.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

// Importer bulk-loads Alpha Progression CSV exports from a directory tree.
type Importer struct {
	ingester Ingester
	state    *StateDB
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates a new Importer. state may be nil, in which case every file is
// imported on every run.
func New(ingester Ingester, state *StateDB, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{ingester: ingester, state: state, log: log, dryRun: dryRun}
}

// Import processes every .csv file under dir for userID. A file that fails
// to parse or store is counted and logged; the remaining files still run.
func (imp *Importer) Import(ctx context.Context, dir string, userID int) (*Stats, error) {
	files, err := FindExports(dir)
	if err != nil {
		return &imp.stats, err
	}
	imp.log.Info("exports found", "dir", dir, "files", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, dir, path, userID); err != nil {
			imp.log.Warn("import failed", "file", path, "error", err)
			imp.stats.FilesErrored++
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, root, path string, userID int) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}

	if imp.state != nil {
		done, err := imp.state.IsImported(rel, info.Size(), hash, userID)
		if err != nil {
			return err
		}
		if done {
			imp.stats.FilesSkipped++
			imp.log.Debug("unchanged, skipping", "file", rel)
			return nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var result *ingest.Result
	if imp.dryRun {
		sessions, err := alpha.Parse(f)
		if err != nil {
			return fmt.Errorf("parsing: %w", err)
		}
		_, result = alpha.Convert(sessions, userID)
	} else {
		result, err = imp.ingester.Ingest(ctx, f, userID)
		if err != nil {
			return err
		}
	}

	imp.stats.FilesProcessed++
	imp.stats.SessionsReceived += result.SessionsReceived
	imp.stats.SetsReceived += result.SetsReceived
	imp.stats.SetsInserted += result.SetsInserted
	imp.stats.WarmupsSkipped += result.WarmupsSkipped
	imp.log.Info("imported", "file", rel, "sessions", result.SessionsReceived, "sets", result.SetsReceived)

	if imp.dryRun || imp.state == nil {
		return nil
	}
	return imp.state.MarkImported(rel, info.Size(), hash, userID, result.SetsInserted)
}

// FindExports returns every .csv file under dir in lexical order.
func FindExports(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
