package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/unoroom/internal/game"
)

const timeFormat = time.RFC3339Nano

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	stage      TEXT NOT NULL,
	state      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteBackend stores rooms as JSON documents in a SQLite table.
type SQLiteBackend struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteBackend{sqlDB: sqlDB}, nil
}

func (b *SQLiteBackend) Load(ctx context.Context) ([]*game.Room, error) {
	rows, err := b.sqlDB.QueryContext(ctx, `SELECT id, state FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*game.Room
	for rows.Next() {
		var id, state string
		if err := rows.Scan(&id, &state); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		var room game.Room
		if err := json.Unmarshal([]byte(state), &room); err != nil {
			return nil, fmt.Errorf("decode room %s: %w", id, err)
		}
		rooms = append(rooms, &room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}
	return rooms, nil
}

func (b *SQLiteBackend) Save(ctx context.Context, room *game.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}
	_, err = b.sqlDB.ExecContext(ctx, `
INSERT INTO rooms (id, stage, state, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	stage = excluded.stage,
	state = excluded.state,
	updated_at = excluded.updated_at`,
		room.ID, string(room.Stage), string(data), room.UpdatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("upsert room: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, id string) error {
	if _, err := b.sqlDB.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (b *SQLiteBackend) Close() error {
	if b == nil || b.sqlDB == nil {
		return nil
	}
	return b.sqlDB.Close()
}
