package transfer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/claude/kettlebell/internal/metrics"
	"github.com/claude/kettlebell/internal/storage"
	"go.uber.org/multierr"
)

// Result describes one imported document.
type Result struct {
	Source           string `json:"source"`
	FileHash         string `json:"fileHash"`
	WorkoutsReceived int    `json:"workoutsReceived"`
	WorkoutsInserted int    `json:"workoutsInserted"`
}

// Stats tracks progress across an ImportPath run.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	WorkoutsReceived int
	WorkoutsInserted int
}

// Importer reads export files and inserts their sessions into the DB.
type Importer struct {
	db      *storage.DB
	log     *slog.Logger
	metrics *metrics.Manager
	dryRun  bool
	now     func() time.Time
}

// New creates a new Importer. m may be nil.
func New(db *storage.DB, log *slog.Logger, m *metrics.Manager, dryRun bool) *Importer {
	return &Importer{db: db, log: log, metrics: m, dryRun: dryRun, now: time.Now}
}

// Import decodes one export document from r and stores every workout under a
// fresh id in a single transaction. The outcome is written to the import log
// unless running dry.
func (imp *Importer) Import(ctx context.Context, r io.Reader, source string) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{Source: source}, fmt.Errorf("reading %s: %w", source, err)
	}
	return imp.importData(ctx, data, source, Hash(data))
}

// ImportPath imports a single file or every *.json file in a directory.
// Files that were already imported successfully are skipped. Per-file errors
// are collected and returned together after all files have been tried.
func (imp *Importer) ImportPath(ctx context.Context, path string) (*Stats, error) {
	var stats Stats

	info, err := os.Stat(path)
	if err != nil {
		return &stats, fmt.Errorf("reading %s: %w", path, err)
	}
	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.json"))
		if err != nil {
			return &stats, err
		}
		sort.Strings(files)
	}

	var errs error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &stats, multierr.Append(errs, err)
		}

		data, err := os.ReadFile(f)
		if err != nil {
			stats.FilesErrored++
			errs = multierr.Append(errs, fmt.Errorf("reading %s: %w", f, err))
			continue
		}
		hash := Hash(data)

		if !imp.dryRun {
			seen, err := imp.db.HasImportedFile(ctx, hash)
			if err != nil {
				return &stats, multierr.Append(errs, err)
			}
			if seen {
				imp.log.Info("skipping file (already imported)", "file", f)
				stats.FilesSkipped++
				continue
			}
		}

		res, err := imp.importData(ctx, data, filepath.Base(f), hash)
		if err != nil {
			imp.log.Warn("import failed", "file", f, "error", err)
			stats.FilesErrored++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", filepath.Base(f), err))
			continue
		}
		stats.FilesProcessed++
		stats.WorkoutsReceived += res.WorkoutsReceived
		stats.WorkoutsInserted += res.WorkoutsInserted
	}
	return &stats, errs
}

func (imp *Importer) importData(ctx context.Context, data []byte, source, hash string) (Result, error) {
	start := imp.now()
	res := Result{Source: source, FileHash: hash}

	sessions, err := Decode(bytes.NewReader(data))
	if err != nil {
		return res, imp.record(ctx, res, start, err)
	}
	res.WorkoutsReceived = len(sessions)

	if imp.dryRun {
		res.WorkoutsInserted = len(sessions)
		imp.log.Info("dry run", "source", source, "workouts", len(sessions))
		return res, nil
	}

	saved, err := imp.db.CreateSessions(ctx, sessions)
	if err != nil {
		return res, imp.record(ctx, res, start, fmt.Errorf("inserting sessions: %w", err))
	}
	res.WorkoutsInserted = len(saved)
	if imp.metrics != nil {
		imp.metrics.CounterSessionsImported.Add(float64(len(saved)))
	}
	imp.log.Info("imported workouts", "source", source, "received", res.WorkoutsReceived, "inserted", res.WorkoutsInserted)
	return res, imp.record(ctx, res, start, nil)
}

// record writes the import log entry. It returns importErr, joined with any
// failure to write the log.
func (imp *Importer) record(ctx context.Context, res Result, start time.Time, importErr error) error {
	if imp.dryRun {
		return importErr
	}
	dur := imp.now().Sub(start).Milliseconds()
	entry := storage.ImportLog{
		Source:           res.Source,
		FileHash:         res.FileHash,
		Status:           storage.ImportStatusSuccess,
		WorkoutsReceived: res.WorkoutsReceived,
		WorkoutsInserted: res.WorkoutsInserted,
		DurationMs:       &dur,
	}
	if importErr != nil {
		msg := importErr.Error()
		entry.Status = storage.ImportStatusError
		entry.ErrorMessage = &msg
	}
	if _, err := imp.db.InsertImportLog(ctx, entry); err != nil {
		imp.log.Error("failed to write import log", "error", err)
		return multierr.Append(importErr, err)
	}
	return importErr
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
