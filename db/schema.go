// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// DriverName maps a configured database type to its database/sql driver.
func DriverName(dbType string) (string, error) {
	switch strings.ToLower(dbType) {
	case TypeSQLite, "":
		return "sqlite", nil
	case TypePostgres, "postgresql":
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The statements are written in the subset shared by PostgreSQL and SQLite.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropSchema removes every table created by CreateSchema. Used by tests.
func DropSchema(db *sql.DB) error {
	for _, table := range []string{
		"session_like", "session_option", "session_participant",
		"swipe_session", "option", "category", "app_user",
	} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

// schema holds one statement per entry.
var schema = []string{
	// Users. Identity is owned by the identity provider, this row holds push state.
	`CREATE TABLE IF NOT EXISTS app_user (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		device_token TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	// Catalog (read-only to the session core)
	`CREATE TABLE IF NOT EXISTS category (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		icon_url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS option (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES category(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_option_category_id ON option(category_id)`,

	// Sessions
	`CREATE TABLE IF NOT EXISTS swipe_session (
		id TEXT PRIMARY KEY,
		creator_id TEXT NOT NULL REFERENCES app_user(id),
		category_id TEXT NOT NULL,
		quorum_n INTEGER NOT NULL CHECK (quorum_n >= 1),
		status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'matched', 'closed')),
		matched_option_id TEXT,
		invite_code TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		matched_at TIMESTAMP,
		closed_at TIMESTAMP,
		CHECK ((status = 'matched') = (matched_option_id IS NOT NULL AND matched_at IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_swipe_session_status ON swipe_session(status)`,

	// Participants
	`CREATE TABLE IF NOT EXISTS session_participant (
		session_id TEXT NOT NULL REFERENCES swipe_session(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES app_user(id),
		joined_at TIMESTAMP NOT NULL,
		PRIMARY KEY (session_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_participant_user_id ON session_participant(user_id)`,

	// Candidate deck of a session
	`CREATE TABLE IF NOT EXISTS session_option (
		session_id TEXT NOT NULL REFERENCES swipe_session(id) ON DELETE CASCADE,
		option_id TEXT NOT NULL,
		order_index INTEGER NOT NULL,
		PRIMARY KEY (session_id, option_id)
	)`,

	// Likes
	`CREATE TABLE IF NOT EXISTS session_like (
		session_id TEXT NOT NULL REFERENCES swipe_session(id) ON DELETE CASCADE,
		option_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (session_id, option_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_like_option ON session_like(session_id, option_id)`,
}
