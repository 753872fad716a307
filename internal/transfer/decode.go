package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/claude/kettlebell/internal/models"
)

// wireSession shadows the session date so it can be parsed leniently.
type wireSession struct {
	models.WorkoutSession
	Date json.RawMessage `json:"date"`
}

// Decode parses an export document. Each workout's date may be an RFC 3339
// timestamp, a bare YYYY-MM-DD day or epoch milliseconds.
func Decode(r io.Reader) ([]models.WorkoutSession, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}
	return decode(data)
}

func decode(data []byte) ([]models.WorkoutSession, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	raw, ok := doc["workouts"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, ErrInvalidFormat
	}

	var wire []wireSession
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	sessions := make([]models.WorkoutSession, 0, len(wire))
	for i, w := range wire {
		date, err := parseDate(w.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: workout %d: %v", ErrUnreadableFile, i, err)
		}
		s := w.WorkoutSession
		s.Date = date
		if s.Exercises == nil {
			s.Exercises = []models.CompletedExercise{}
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func parseDate(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	if raw[0] != '"' {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(string(raw), 64)
			if ferr != nil {
				return time.Time{}, fmt.Errorf("parsing date %s: %w", raw, err)
			}
			ms = int64(f)
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("parsing date %s: %w", raw, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
