// Package transfer moves workout history in and out of the store as JSON
// export files.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/kettlebell/internal/models"
)

// Errors surfaced to the user when an export or import cannot proceed.
var (
	ErrNothingToExport = errors.New("no workout data to export")
	ErrUnreadableFile  = errors.New("error importing file, check the file format")
	ErrInvalidFormat   = errors.New("invalid file format, select a valid workout data file")
)

// File is the on-disk export document.
type File struct {
	ExportDate time.Time               `json:"exportDate"`
	Workouts   []models.WorkoutSession `json:"workouts"`
}

// Filename returns the download name for an export taken at now.
func Filename(now time.Time) string {
	return "kettlebell-workout-data-" + now.UTC().Format("2006-01-02") + ".json"
}

// Export encodes sessions as an indented export document.
func Export(sessions []models.WorkoutSession, now time.Time) ([]byte, string, error) {
	if len(sessions) == 0 {
		return nil, "", ErrNothingToExport
	}
	data, err := json.MarshalIndent(File{ExportDate: now.UTC(), Workouts: sessions}, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("encoding export: %w", err)
	}
	return data, Filename(now), nil
}
