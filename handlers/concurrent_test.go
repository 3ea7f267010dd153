// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/swivo/models"
	"github.com/danielhkuo/swivo/testutil"
)

// TestConcurrentLikesSingleMatch verifies that when every participant likes
// the same option at once, exactly one request reports the match and
// exactly one notification goes out
func TestConcurrentLikesSingleMatch(t *testing.T) {
	env := newTestEnv(t)
	opts := testutil.CreateTestCategory(t, env.db, "food", "Pizza", "Sushi")

	numUsers := 8
	sess := env.createSession(t, "user-0", "food", numUsers)
	for i := 1; i < numUsers; i++ {
		env.join(t, fmt.Sprintf("user-%d", i), sess.InviteCode)
	}

	var matchCount, okCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numUsers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			w := env.like(fmt.Sprintf("user-%d", idx), sess.ID, opts[0])
			if w.Code != http.StatusCreated {
				t.Errorf("User %d: expected 201, got %d: %s", idx, w.Code, w.Body.String())
				return
			}
			okCount.Add(1)

			var resp models.LikeOptionResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Errorf("User %d: failed to decode response: %v", idx, err)
				return
			}
			if resp.MatchFound {
				matchCount.Add(1)
			}
		}(i)
	}
	wg.Wait()
	env.svc.Wait()

	if okCount.Load() != int32(numUsers) {
		t.Errorf("Expected %d successful likes, got %d", numUsers, okCount.Load())
	}
	if matchCount.Load() != 1 {
		t.Errorf("Expected exactly 1 match_found response, got %d", matchCount.Load())
	}
	if events := env.notifier.Events(); len(events) != 1 {
		t.Errorf("Expected exactly 1 notification, got %d", len(events))
	}

	var status string
	var matchedOption string
	err := env.db.QueryRow(`SELECT status, matched_option_id FROM swipe_session WHERE id = $1`, sess.ID).Scan(&status, &matchedOption)
	if err != nil {
		t.Fatalf("Failed to query session: %v", err)
	}
	if status != models.StatusMatched || matchedOption != opts[0] {
		t.Errorf("Expected matched on %s, got %s on %s", opts[0], status, matchedOption)
	}
}

// TestConcurrentLikesCompetingOptions has two options reach quorum at the
// same time. Only one may become the match.
func TestConcurrentLikesCompetingOptions(t *testing.T) {
	env := newTestEnv(t)
	opts := testutil.CreateTestCategory(t, env.db, "food", "Pizza", "Sushi")

	sess := env.createSession(t, "alice", "food", 2)
	env.join(t, "bob", sess.InviteCode)

	// Each option has one like already
	testutil.AssertStatus(t, env.like("alice", sess.ID, opts[0]), http.StatusCreated)
	testutil.AssertStatus(t, env.like("alice", sess.ID, opts[1]), http.StatusCreated)

	var matchCount atomic.Int32
	var wg sync.WaitGroup
	for _, optionID := range opts {
		wg.Add(1)
		go func(optionID string) {
			defer wg.Done()

			w := env.like("bob", sess.ID, optionID)
			if w.Code == http.StatusCreated {
				var resp models.LikeOptionResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Errorf("Failed to decode response: %v", err)
					return
				}
				if resp.MatchFound {
					matchCount.Add(1)
				}
			} else if w.Code != http.StatusConflict {
				t.Errorf("Expected 201 or 409, got %d: %s", w.Code, w.Body.String())
			}
		}(optionID)
	}
	wg.Wait()
	env.svc.Wait()

	if matchCount.Load() != 1 {
		t.Errorf("Expected exactly 1 match, got %d", matchCount.Load())
	}
	if events := env.notifier.Events(); len(events) != 1 {
		t.Errorf("Expected exactly 1 notification, got %d", len(events))
	}
}

// TestConcurrentJoins verifies a burst of joins records every participant
// exactly once
func TestConcurrentJoins(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestCategory(t, env.db, "food", "Pizza")
	sess := env.createSession(t, "alice", "food", 2)

	numUsers := 10
	var successCount atomic.Int32
	var wg sync.WaitGroup

	// Every user joins twice; the second attempt must conflict
	for i := 0; i < numUsers*2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			userID := fmt.Sprintf("joiner-%d", idx%numUsers)
			req := asUser(testutil.MakeRequest("POST", "/sessions/join", models.JoinSessionRequest{InviteCode: sess.InviteCode}, nil), userID)
			w := httptest.NewRecorder()
			env.sessions.JoinSession(w, req)

			switch w.Code {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusConflict:
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(i)
	}
	wg.Wait()

	if successCount.Load() != int32(numUsers) {
		t.Errorf("Expected %d successful joins, got %d", numUsers, successCount.Load())
	}

	var n int
	if err := env.db.QueryRow(`SELECT COUNT(*) FROM session_participant WHERE session_id = $1`, sess.ID).Scan(&n); err != nil {
		t.Fatalf("Failed to count participants: %v", err)
	}
	if n != numUsers+1 {
		t.Errorf("Expected %d participants, got %d", numUsers+1, n)
	}
}

// TestConcurrentSessionCreation verifies invite codes stay unique under a
// burst of creates
func TestConcurrentSessionCreation(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestCategory(t, env.db, "food", "Pizza")

	numSessions := 25
	codes := make(chan string, numSessions)
	var wg sync.WaitGroup

	for i := 0; i < numSessions; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := asUser(testutil.MakeRequest("POST", "/sessions", models.CreateSessionRequest{CategoryID: "food", QuorumN: 2}, nil), fmt.Sprintf("creator-%d", idx))
			w := httptest.NewRecorder()
			env.sessions.CreateSession(w, req)
			if w.Code != http.StatusCreated {
				t.Errorf("Expected 201, got %d: %s", w.Code, w.Body.String())
				return
			}

			var sess models.Session
			if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
				t.Errorf("Failed to decode session: %v", err)
				return
			}
			codes <- sess.InviteCode
		}(i)
	}
	wg.Wait()
	close(codes)

	seen := map[string]bool{}
	for code := range codes {
		if seen[code] {
			t.Errorf("Duplicate invite code %s", code)
		}
		seen[code] = true
	}
	if len(seen) != numSessions {
		t.Errorf("Expected %d sessions, got %d", numSessions, len(seen))
	}
}

// TestCloseRacesFinalLike runs a close and the quorum-completing like at
// the same time. Exactly one of them wins.
func TestCloseRacesFinalLike(t *testing.T) {
	for round := 0; round < 5; round++ {
		env := newTestEnv(t)
		opts := testutil.CreateTestCategory(t, env.db, "food", "Pizza")

		sess := env.createSession(t, "alice", "food", 2)
		env.join(t, "bob", sess.InviteCode)
		testutil.AssertStatus(t, env.like("alice", sess.ID, opts[0]), http.StatusCreated)

		var likeW, closeW *httptest.ResponseRecorder
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			likeW = env.like("bob", sess.ID, opts[0])
		}()
		go func() {
			defer wg.Done()
			req := asUser(testutil.MakeRequest("POST", "/sessions/"+sess.ID+"/close", nil, nil), "alice")
			req.SetPathValue("id", sess.ID)
			closeW = httptest.NewRecorder()
			env.sessions.CloseSession(closeW, req)
		}()
		wg.Wait()
		env.svc.Wait()

		matched := likeW.Code == http.StatusCreated
		closed := closeW.Code == http.StatusOK
		if matched == closed {
			t.Fatalf("Round %d: expected exactly one winner, like=%d close=%d", round, likeW.Code, closeW.Code)
		}

		var status string
		if err := env.db.QueryRow(`SELECT status FROM swipe_session WHERE id = $1`, sess.ID).Scan(&status); err != nil {
			t.Fatalf("Failed to query status: %v", err)
		}
		if matched && status != models.StatusMatched {
			t.Errorf("Round %d: like won but status is %s", round, status)
		}
		if closed && status != models.StatusClosed {
			t.Errorf("Round %d: close won but status is %s", round, status)
		}
		if closed && len(env.notifier.Events()) != 0 {
			t.Errorf("Round %d: closed session must not notify", round)
		}
	}
}
