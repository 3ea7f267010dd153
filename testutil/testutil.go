// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/swivo/auth"
	"github.com/danielhkuo/swivo/cliparse"
	"github.com/danielhkuo/swivo/db"
)

// TestJWTSecret signs the bearer tokens used in tests
const TestJWTSecret = "test-jwt-secret"

// DBType reports which database the tests run against. Setting
// TEST_DATABASE_URL switches from in-memory SQLite to PostgreSQL.
func DBType() string {
	if os.Getenv("TEST_DATABASE_URL") != "" {
		return db.TypePostgres
	}
	return db.TypeSQLite
}

// SetupTestDB creates a fresh test database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	var (
		conn *sql.DB
		err  error
	)
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		conn, err = sql.Open("postgres", url)
	} else {
		conn, err = sql.Open("sqlite", "file::memory:?_pragma=busy_timeout(5000)")
		if err == nil {
			// Each connection to :memory: is its own database.
			conn.SetMaxOpenConns(1)
			conn.SetMaxIdleConns(1)
		}
	}
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.DropSchema(conn); err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseType:    DBType(),
		JWTSecret:       TestJWTSecret,
		PushConcurrency: 4,
		StoreTimeout:    5 * time.Second,
		PushTimeout:     2 * time.Second,
	}
}

// CreateTestCategory inserts a category with one option per label and
// returns the option ids in deck order
func CreateTestCategory(t *testing.T, conn *sql.DB, categoryID string, labels ...string) []string {
	t.Helper()

	_, err := conn.Exec(`INSERT INTO category (id, name) VALUES ($1, $2)`, categoryID, "Category "+categoryID)
	if err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}

	ids := make([]string, 0, len(labels))
	for i, label := range labels {
		// Zero padded so ids sort in insertion order.
		id := fmt.Sprintf("%s-opt-%02d", categoryID, i)
		_, err := conn.Exec(`
			INSERT INTO option (id, category_id, label, image_url)
			VALUES ($1, $2, $3, $4)
		`, id, categoryID, label, "https://img.example.com/"+id+".jpg")
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

// SetTestDeviceToken stores a push token for a user
func SetTestDeviceToken(t *testing.T, conn *sql.DB, userID, token string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO app_user (id, device_token, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE SET device_token = excluded.device_token, updated_at = excluded.updated_at
	`, userID, token, now)
	if err != nil {
		t.Fatalf("Failed to set device token: %v", err)
	}
}

// IssueTestToken returns a bearer token for userID signed with TestJWTSecret
func IssueTestToken(t *testing.T, userID string) string {
	t.Helper()

	token, err := auth.NewVerifier(TestJWTSecret).Issue(userID, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// AuthHeaders returns request headers authenticating as userID
func AuthHeaders(t *testing.T, userID string) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + IssueTestToken(t, userID)}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
