package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/kettlebell/internal/models"
)

// SeedSettings inserts each default setting that is not stored yet.
func (db *DB) SeedSettings(ctx context.Context) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		query := db.rebind(`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`)
		for key, v := range models.DefaultSettings {
			raw, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encoding default %s: %w", key, err)
			}
			if _, err := tx.ExecContext(ctx, query, key, string(raw)); err != nil {
				return fmt.Errorf("seeding setting %s: %w", key, err)
			}
		}
		return nil
	})
}

// GetSettings returns every stored setting as raw JSON keyed by name.
func (db *DB) GetSettings(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	result := map[string]json.RawMessage{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		result[key] = json.RawMessage(value)
	}
	return result, rows.Err()
}

// LoadSettings returns the typed settings view.
func (db *DB) LoadSettings(ctx context.Context) (models.Settings, error) {
	raw, err := db.GetSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	return models.SettingsFromMap(raw)
}

// GetSetting returns one setting's raw JSON value, or ErrNotFound.
func (db *DB) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	var value string
	err := db.sql.QueryRowContext(ctx, db.rebind(`SELECT value FROM settings WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return json.RawMessage(value), nil
}

// SetSetting stores value (any JSON-encodable value) under key.
func (db *DB) SetSetting(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding setting %s: %w", key, err)
	}
	_, err = db.sql.ExecContext(ctx, db.rebind(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`), key, string(raw))
	if err != nil {
		return fmt.Errorf("storing setting %s: %w", key, err)
	}
	return nil
}
