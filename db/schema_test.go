// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func tableNames(t *testing.T, conn *sql.DB) map[string]bool {
	t.Helper()
	rows, err := conn.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		t.Fatalf("Failed to list tables: %v", err)
	}
	defer rows.Close()

	names := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("Failed to scan table name: %v", err)
		}
		names[name] = true
	}
	return names
}

var allTables = []string{
	"app_user", "category", "option", "swipe_session",
	"session_participant", "session_option", "session_like",
}

func TestCreateSchema(t *testing.T) {
	conn := openSQLite(t)

	// Running twice must be a no-op the second time
	for i := 0; i < 2; i++ {
		if err := CreateSchema(conn); err != nil {
			t.Fatalf("CreateSchema() run %d error = %v", i+1, err)
		}
	}

	names := tableNames(t, conn)
	for _, table := range allTables {
		if !names[table] {
			t.Errorf("Expected table %s to exist", table)
		}
	}
}

func TestDropSchema(t *testing.T) {
	conn := openSQLite(t)

	if err := CreateSchema(conn); err != nil {
		t.Fatalf("CreateSchema() error = %v", err)
	}
	if err := DropSchema(conn); err != nil {
		t.Fatalf("DropSchema() error = %v", err)
	}
	if names := tableNames(t, conn); len(names) != 0 {
		t.Errorf("Expected no tables after drop, got %v", names)
	}
	if err := CreateSchema(conn); err != nil {
		t.Fatalf("CreateSchema() after drop error = %v", err)
	}
}

func TestSchemaMatchedCheck(t *testing.T) {
	conn := openSQLite(t)
	if err := CreateSchema(conn); err != nil {
		t.Fatalf("CreateSchema() error = %v", err)
	}

	// matched without a matched option violates the status CHECK
	_, err := conn.Exec(`
		INSERT INTO swipe_session (id, creator_id, category_id, quorum_n, status, invite_code, created_at)
		VALUES ('s1', 'u1', 'c1', 1, 'matched', 'ABCDEFGH', CURRENT_TIMESTAMP)
	`)
	if err == nil {
		t.Error("Expected CHECK violation for matched session without option")
	}
}

func TestDriverName(t *testing.T) {
	tests := []struct {
		dbType  string
		want    string
		wantErr bool
	}{
		{"", "sqlite", false},
		{"sqlite", "sqlite", false},
		{"postgres", "postgres", false},
		{"PostgreSQL", "postgres", false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			got, err := DriverName(tt.dbType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DriverName(%q) error = %v", tt.dbType, err)
			}
			if got != tt.want {
				t.Errorf("DriverName(%q) = %q, want %q", tt.dbType, got, tt.want)
			}
		})
	}
}
