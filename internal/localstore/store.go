// Package localstore is the device-style key-value storage: the active
// workout snapshot, the mirrored history and the dashboard graph list, kept
// per user in a SQLite file.
package localstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meltforce/ironlog/internal/models"

	_ "modernc.org/sqlite"
)

const (
	keyActive  = "active-workout"
	keyHistory = "history"
	keyGraphs  = "graphs"
)

// Store is a per-user JSON key-value store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite store at dir/local.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "local.db"))
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		user_id    INTEGER NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, key)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &Store{db: db}, nil
}

// Get decodes the value stored under key into dest. It reports false when
// the key is absent.
func (s *Store) Get(userID int, key string, dest any) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE user_id = ? AND key = ?`, userID, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// Put stores v as JSON under key.
func (s *Store) Put(userID int, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO kv (user_id, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		userID, key, string(b),
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(userID int, key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE user_id = ? AND key = ?`, userID, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// SaveActive stores the active workout, or clears it when w is nil.
func (s *Store) SaveActive(userID int, w *models.Workout) error {
	if w == nil {
		return s.Delete(userID, keyActive)
	}
	return s.Put(userID, keyActive, w)
}

// LoadActive returns the stored active workout, or nil.
func (s *Store) LoadActive(userID int) (*models.Workout, error) {
	var w models.Workout
	ok, err := s.Get(userID, keyActive, &w)
	if err != nil || !ok {
		return nil, err
	}
	return &w, nil
}

// SaveHistory mirrors the user's history. A nil slice clears it.
func (s *Store) SaveHistory(userID int, workouts []models.Workout) error {
	if workouts == nil {
		return s.Delete(userID, keyHistory)
	}
	return s.Put(userID, keyHistory, workouts)
}

// LoadHistory returns the mirrored history, or nil if none is stored.
func (s *Store) LoadHistory(userID int) ([]models.Workout, error) {
	var ws []models.Workout
	ok, err := s.Get(userID, keyHistory, &ws)
	if err != nil || !ok {
		return nil, err
	}
	if ws == nil {
		ws = []models.Workout{}
	}
	return ws, nil
}

// SaveGraphs stores the dashboard graph list.
func (s *Store) SaveGraphs(userID int, graphs []models.GraphConfig) error {
	if graphs == nil {
		graphs = []models.GraphConfig{}
	}
	return s.Put(userID, keyGraphs, graphs)
}

// LoadGraphs returns the dashboard graph list, empty if none is stored.
func (s *Store) LoadGraphs(userID int) ([]models.GraphConfig, error) {
	graphs := []models.GraphConfig{}
	if _, err := s.Get(userID, keyGraphs, &graphs); err != nil {
		return nil, err
	}
	return graphs, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
