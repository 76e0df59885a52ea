// Package store keeps the monitor's reading history in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/relabs-tech/posture_node/internal/orientation"
	"github.com/relabs-tech/posture_node/internal/report"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS readings (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	received_at  INTEGER NOT NULL,
	data_enabled INTEGER NOT NULL,
	roll_deg     REAL    NOT NULL,
	temp_c       REAL    NOT NULL,
	posture      TEXT    NOT NULL,
	distance_cm  INTEGER NOT NULL,
	button       INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS readings_received_at ON readings (received_at)`,
}

// Store is safe for concurrent use; SQLite serialises the writes.
type Store struct {
	db *sql.DB
}

// Open creates the database file and its parent directory if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migrate: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert appends r. A zero Time is stored as now.
func (s *Store) Insert(ctx context.Context, r report.Reading) error {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (received_at, data_enabled, roll_deg, temp_c, posture, distance_cm, button)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Time.UnixNano(), boolToInt(r.DataEnabled), r.Roll, r.TemperatureC,
		string(r.Posture), r.DistanceCM, boolToInt(r.Button),
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// Recent returns up to limit readings, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]report.Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT received_at, data_enabled, roll_deg, temp_c, posture, distance_cm, button
		 FROM readings ORDER BY received_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []report.Reading
	for rows.Next() {
		var (
			r                   report.Reading
			receivedAt          int64
			dataEnabled, button int64
			posture             string
		)
		if err := rows.Scan(&receivedAt, &dataEnabled, &r.Roll, &r.TemperatureC, &posture, &r.DistanceCM, &button); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Time = time.Unix(0, receivedAt).UTC()
		r.DataEnabled = dataEnabled != 0
		r.Button = button != 0
		r.Posture = orientation.Posture(posture)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
