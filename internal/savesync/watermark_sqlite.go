package savesync

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/openlauncher/savesync/internal/utils"
)

const watermarkSchema = `
CREATE TABLE IF NOT EXISTS watermarks (
    game_id  TEXT NOT NULL,
    location TEXT NOT NULL,
    ts       REAL NOT NULL,
    PRIMARY KEY (game_id, location)
);
`

// SQLiteWatermarkStore is a WatermarkStore backed by a local SQLite database,
// for installs that want per-row durability instead of the single JSON file.
type SQLiteWatermarkStore struct {
	db *sqlx.DB
}

func NewSQLiteWatermarkStore(dbPath string) (*SQLiteWatermarkStore, error) {
	if err := utils.EnsureParent(dbPath); err != nil {
		return nil, fmt.Errorf("create watermark db dir: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open watermark db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(watermarkSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init watermark schema: %w", err)
	}

	return &SQLiteWatermarkStore{db: db}, nil
}

func (s *SQLiteWatermarkStore) Get(gameID, location string) (float64, error) {
	var ts float64
	err := s.db.Get(&ts, "SELECT ts FROM watermarks WHERE game_id = ? AND location = ?", gameID, location)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("query watermark %s/%s: %w", gameID, location, err)
	}
	return ts, nil
}

func (s *SQLiteWatermarkStore) Set(gameID, location string, ts float64) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO watermarks (game_id, location, ts) VALUES (?, ?, ?)",
		gameID, location, ts,
	)
	if err != nil {
		return fmt.Errorf("set watermark %s/%s: %w", gameID, location, err)
	}
	return nil
}

func (s *SQLiteWatermarkStore) Close() error {
	return s.db.Close()
}
