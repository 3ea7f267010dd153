// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danielhkuo/swivo/catalog"
	"github.com/danielhkuo/swivo/middleware"
	"github.com/danielhkuo/swivo/models"
	"github.com/danielhkuo/swivo/notify"
	"github.com/danielhkuo/swivo/session"
	"github.com/danielhkuo/swivo/store"
	"github.com/danielhkuo/swivo/testutil"
)

// matchEvent is one NotifyMatch call seen by recordingNotifier
type matchEvent struct {
	SessionID string
	OptionID  string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []matchEvent
}

func (n *recordingNotifier) NotifyMatch(ctx context.Context, sessionID, optionID string) (notify.Report, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, matchEvent{SessionID: sessionID, OptionID: optionID})
	return notify.Report{SessionID: sessionID, OptionID: optionID}, nil
}

func (n *recordingNotifier) Events() []matchEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]matchEvent(nil), n.events...)
}

type testEnv struct {
	db       *sql.DB
	svc      *session.Service
	notifier *recordingNotifier
	sessions *SessionHandler
	devices  *DeviceHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	notifier := &recordingNotifier{}

	st := store.New(db, cfg.DatabaseType, nil)
	svc := session.NewService(st, catalog.NewSQLCatalog(db), notifier, session.Config{StoreTimeout: cfg.StoreTimeout})

	return &testEnv{
		db:       db,
		svc:      svc,
		notifier: notifier,
		sessions: NewSessionHandler(svc),
		devices:  NewDeviceHandler(svc),
	}
}

// asUser attaches an authenticated user id the way RequireUser does
func asUser(req *http.Request, userID string) *http.Request {
	if userID == "" {
		return req
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// createSession creates a session over categoryID as creatorID
func (e *testEnv) createSession(t *testing.T, creatorID, categoryID string, quorumN int) models.Session {
	t.Helper()

	req := asUser(testutil.MakeRequest("POST", "/sessions", models.CreateSessionRequest{
		CategoryID: categoryID,
		QuorumN:    quorumN,
	}, nil), creatorID)
	w := httptest.NewRecorder()
	e.sessions.CreateSession(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create session: %d %s", w.Code, w.Body.String())
	}

	var sess models.Session
	testutil.AssertJSON(t, w, &sess)
	return sess
}

// join adds userID to the session behind inviteCode
func (e *testEnv) join(t *testing.T, userID, inviteCode string) {
	t.Helper()

	req := asUser(testutil.MakeRequest("POST", "/sessions/join", models.JoinSessionRequest{InviteCode: inviteCode}, nil), userID)
	w := httptest.NewRecorder()
	e.sessions.JoinSession(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to join session: %d %s", w.Code, w.Body.String())
	}
}

// like posts a like and returns the recorder
func (e *testEnv) like(userID, sessionID, optionID string) *httptest.ResponseRecorder {
	req := asUser(testutil.MakeRequest("POST", "/sessions/"+sessionID+"/likes", models.LikeOptionRequest{OptionID: optionID}, nil), userID)
	req.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	e.sessions.LikeOption(w, req)
	return w
}
