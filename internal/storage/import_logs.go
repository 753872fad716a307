package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Import statuses.
const (
	ImportStatusSuccess = "success"
	ImportStatusError   = "error"
	ImportStatusDryRun  = "dry_run"
)

// ImportLog represents a single import operation's outcome.
type ImportLog struct {
	ID               int64     `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Source           string    `json:"source"`
	FileHash         string    `json:"file_hash,omitempty"`
	Status           string    `json:"status"`
	WorkoutsReceived int       `json:"workouts_received"`
	WorkoutsInserted int       `json:"workouts_inserted"`
	DurationMs       *int64    `json:"duration_ms"`
	ErrorMessage     *string   `json:"error_message"`
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = db.timestamp()
	}
	var id int64
	err := db.sql.QueryRowContext(ctx, db.rebind(
		`INSERT INTO import_logs (created_at, source, file_hash, status,
		 workouts_received, workouts_inserted, duration_ms, error_message)
		 VALUES (?,?,?,?,?,?,?,?)
		 RETURNING id`),
		toMillis(log.CreatedAt), log.Source, log.FileHash, log.Status,
		log.WorkoutsReceived, log.WorkoutsInserted, log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// QueryImportLogs returns the most recent import logs.
func (db *DB) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.sql.QueryContext(ctx, db.rebind(
		`SELECT id, created_at, source, file_hash, status,
		 workouts_received, workouts_inserted, duration_ms, error_message
		 FROM import_logs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`),
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	result := []ImportLog{}
	for rows.Next() {
		var l ImportLog
		var created int64
		var duration sql.NullInt64
		var errMsg sql.NullString
		if err := rows.Scan(&l.ID, &created, &l.Source, &l.FileHash, &l.Status,
			&l.WorkoutsReceived, &l.WorkoutsInserted, &duration, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		l.CreatedAt = fromMillis(created)
		if duration.Valid {
			l.DurationMs = &duration.Int64
		}
		if errMsg.Valid {
			l.ErrorMessage = &errMsg.String
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// HasImportedFile reports whether a file with this SHA-256 was already
// imported successfully.
func (db *DB) HasImportedFile(ctx context.Context, hash string) (bool, error) {
	var count int
	err := db.sql.QueryRowContext(ctx, db.rebind(
		`SELECT COUNT(*) FROM import_logs WHERE file_hash = ? AND status = ?`),
		hash, ImportStatusSuccess,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking import log for %s: %w", hash, err)
	}
	return count > 0, nil
}
