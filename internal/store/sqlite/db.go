// Package sqlite implements the document store contracts on an embedded
// SQLite database. Live queries re-run the backing query after every write
// and publish the full ordered result to watchers.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	// The watch implementation issues reads from callback goroutines while a
	// write is still holding a connection.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates the schema. Statements are idempotent. Timestamps are unix
// milliseconds; rowid breaks ordering ties by insertion order.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL,
			display_name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			photo_url TEXT DEFAULT NULL,
			is_online INTEGER NOT NULL DEFAULT 0,
			last_seen_at INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			participant_count INTEGER NOT NULL DEFAULT 0,
			is_public INTEGER NOT NULL DEFAULT 1,
			last_message_text TEXT DEFAULT NULL,
			last_message_sender TEXT DEFAULT NULL,
			last_message_at INTEGER DEFAULT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			text TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			sender_name TEXT NOT NULL,
			sender_photo TEXT DEFAULT NULL,
			sent_at INTEGER NOT NULL,
			reactions TEXT NOT NULL DEFAULT '{}',
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_is_online ON profiles(is_online);`,
		`CREATE INDEX IF NOT EXISTS idx_rooms_created_at ON rooms(created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at ASC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
