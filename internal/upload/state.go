package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

// StateDB remembers which export files reached the server so they are not
// sent twice.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS uploaded_exports (
		hash        TEXT PRIMARY KEY,
		path        TEXT NOT NULL,
		workouts    INTEGER NOT NULL,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("creating state table: %w", err), db.Close())
	}

	return &StateDB{db: db}, nil
}

// IsUploaded reports whether a file with this content hash was sent before.
// The hash is content-only, so a renamed export is still recognised.
func (s *StateDB) IsUploaded(ctx context.Context, hash string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uploaded_exports WHERE hash = ?`, hash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkUploaded records a successfully sent file.
func (s *StateDB) MarkUploaded(ctx context.Context, path, hash string, workouts int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO uploaded_exports (hash, path, workouts) VALUES (?, ?, ?)`,
		hash, path, workouts,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// readAndHash returns the file contents and their hex SHA-256, the same hash
// the server keeps in its import log.
func readAndHash(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	h := sha256.New()
	data, err := io.ReadAll(io.TeeReader(f, h))
	if err != nil {
		return nil, "", err
	}
	return data, hex.EncodeToString(h.Sum(nil)), nil
}
