// Package upload pushes exported workout files from a local directory to a
// remote kettlebell server.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	WorkoutsSent     int
	WorkoutsInserted int
}

// Uploader walks a file or directory of export documents and POSTs each new
// one to the server.
type Uploader struct {
	client *Client
	state  *StateDB
	path   string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. client may be nil in dry-run mode.
func New(client *Client, state *StateDB, path string, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		path:   path,
		dryRun: dryRun,
		log:    log,
	}
}

// Run executes the upload. A file the server rejects is counted and skipped;
// any other failure stops the run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := exportFiles(u.path)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++

		data, hash, err := readAndHash(f)
		if err != nil {
			u.log.Warn("read failed", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		uploaded, err := u.state.IsUploaded(ctx, hash)
		if err != nil {
			return &u.stats, fmt.Errorf("checking state for %s: %w", f, err)
		}
		if uploaded {
			u.stats.FilesSkipped++
			continue
		}

		workouts, err := countWorkouts(data)
		if err != nil {
			u.log.Warn("not an export file", "file", f, "error", err)
			u.stats.FilesErrored++
			continue
		}

		if u.dryRun {
			u.log.Info("dry-run: would send", "file", f, "workouts", workouts)
			u.stats.WorkoutsSent += workouts
			continue
		}

		res, err := u.client.SendExport(ctx, filepath.Base(f), data)
		var se *StatusError
		if errors.As(err, &se) && se.Permanent() {
			u.log.Warn("server rejected file", "file", f, "status", se.Code, "error", se.Body)
			u.stats.FilesErrored++
			continue
		}
		if err != nil {
			return &u.stats, fmt.Errorf("sending %s: %w", f, err)
		}

		if err := u.state.MarkUploaded(ctx, f, hash, res.WorkoutsInserted); err != nil {
			u.log.Warn("failed to mark uploaded", "file", f, "error", err)
		}
		u.stats.FilesUploaded++
		u.stats.WorkoutsSent += workouts
		u.stats.WorkoutsInserted += res.WorkoutsInserted
		u.log.Info("uploaded export", "file", f, "workouts", res.WorkoutsInserted)
	}

	return &u.stats, nil
}

// exportFiles returns path itself, or the sorted *.json files inside it.
func exportFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := filepath.Glob(filepath.Join(path, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// countWorkouts does the cheap shape check the server repeats in full.
func countWorkouts(data []byte) (int, error) {
	var doc struct {
		Workouts []json.RawMessage `json:"workouts"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, err
	}
	if doc.Workouts == nil {
		return 0, errors.New("missing workouts array")
	}
	return len(doc.Workouts), nil
}
