// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/danielhkuo/swivo/apperr"
	"github.com/danielhkuo/swivo/db"
	"github.com/danielhkuo/swivo/invite"
	"github.com/danielhkuo/swivo/models"
)

// Store persists sessions, participants, likes and device tokens. Every
// mutating operation runs in one transaction that first locks the session
// row, so concurrent callers in different processes serialize on the
// database rather than on an in-process mutex.
type Store struct {
	db      *sql.DB
	dbType  string
	invites *invite.Generator
	now     func() time.Time
}

func New(conn *sql.DB, dbType string, invites *invite.Generator) *Store {
	if invites == nil {
		invites = invite.NewGenerator(invite.DefaultLength)
	}
	return &Store{
		db:      conn,
		dbType:  dbType,
		invites: invites,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// forUpdate returns the row lock clause for the configured dialect. SQLite
// has no row locks; it serializes writers on the whole database instead.
func (s *Store) forUpdate() string {
	if s.dbType == db.TypePostgres {
		return " FOR UPDATE"
	}
	return ""
}

func newID() string {
	return uuid.NewString()
}

type rowScanner interface {
	Scan(dest ...any) error
}

const sessionColumns = `id, creator_id, category_id, quorum_n, status, matched_option_id,
	invite_code, created_at, matched_at, closed_at`

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		sess      models.Session
		matchedID sql.NullString
		matchedAt sql.NullTime
		closedAt  sql.NullTime
	)
	err := row.Scan(
		&sess.ID, &sess.CreatorID, &sess.CategoryID, &sess.QuorumN, &sess.Status,
		&matchedID, &sess.InviteCode, &sess.CreatedAt, &matchedAt, &closedAt,
	)
	if err != nil {
		return nil, err
	}
	if matchedID.Valid {
		sess.MatchedOptionID = &matchedID.String
	}
	if matchedAt.Valid {
		t := matchedAt.Time
		sess.MatchedAt = &t
	}
	if closedAt.Valid {
		t := closedAt.Time
		sess.ClosedAt = &t
	}
	return &sess, nil
}

// failed classifies a database error. Unknown failures are reported as
// transient: the write may or may not have committed.
func failed(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.Lookup(err); ok {
		return err
	}
	return apperr.Transient(err, msg)
}

func isUniqueViolation(err error, column string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, column)
	}
	// modernc.org/sqlite reports constraint failures by message
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return failed(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return failed(err, "failed to commit transaction")
	}
	return nil
}

func (s *Store) ensureUser(ctx context.Context, tx *sql.Tx, userID string) error {
	now := s.now()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO app_user (id, created_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, userID, now, now)
	return failed(err, "failed to upsert user")
}

// lockSession reads a session and, on PostgreSQL, holds its row lock until
// the transaction ends.
func (s *Store) lockSession(ctx context.Context, tx *sql.Tx, where string, arg any) (*models.Session, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM swipe_session WHERE `+where+s.forUpdate(), arg)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, failed(err, "failed to load session")
	}
	return sess, nil
}

// CreateSession inserts an open session, its creator as first participant
// and the candidate deck in one transaction. The invite code is drawn
// again on a uniqueness collision.
func (s *Store) CreateSession(ctx context.Context, creatorID, categoryID string, quorumN int, optionIDs []string) (*models.Session, error) {
	if quorumN < 1 {
		return nil, apperr.Invalid("quorum_n must be at least 1")
	}
	if len(optionIDs) == 0 {
		return nil, apperr.Invalid("category has no options")
	}

	var created *models.Session
	_, err := invite.Allocate(ctx, s.invites, func(code string) error {
		sess := &models.Session{
			ID:         newID(),
			CreatorID:  creatorID,
			CategoryID: categoryID,
			QuorumN:    quorumN,
			Status:     models.StatusOpen,
			InviteCode: code,
			CreatedAt:  s.now(),
		}

		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if err := s.ensureUser(ctx, tx, creatorID); err != nil {
				return err
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO swipe_session (id, creator_id, category_id, quorum_n, status, invite_code, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, sess.ID, sess.CreatorID, sess.CategoryID, sess.QuorumN, sess.Status, sess.InviteCode, sess.CreatedAt)
			if err != nil {
				if isUniqueViolation(err, "invite_code") {
					return invite.ErrCollision
				}
				return failed(err, "failed to insert session")
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO session_participant (session_id, user_id, joined_at)
				VALUES ($1, $2, $3)
			`, sess.ID, creatorID, sess.CreatedAt)
			if err != nil {
				return failed(err, "failed to insert creator participant")
			}

			for i, optionID := range optionIDs {
				_, err = tx.ExecContext(ctx, `
					INSERT INTO session_option (session_id, option_id, order_index)
					VALUES ($1, $2, $3)
					ON CONFLICT DO NOTHING
				`, sess.ID, optionID, i)
				if err != nil {
					return failed(err, "failed to insert session option")
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		created = sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// JoinSession adds userID to the open session identified by inviteCode.
func (s *Store) JoinSession(ctx context.Context, inviteCode, userID string) (*models.Session, error) {
	var sess *models.Session
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureUser(ctx, tx, userID); err != nil {
			return err
		}

		var err error
		sess, err = s.lockSession(ctx, tx, "invite_code = $1", inviteCode)
		if err != nil {
			return err
		}

		switch sess.Status {
		case models.StatusMatched:
			return apperr.ErrSessionAlreadyMatched
		case models.StatusClosed:
			return apperr.ErrSessionClosed
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO session_participant (session_id, user_id, joined_at)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, sess.ID, userID, s.now())
		if err != nil {
			return failed(err, "failed to insert participant")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return failed(err, "failed to read rows affected")
		}
		if n == 0 {
			return apperr.ErrAlreadyJoined
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// CloseSession moves an open session to closed. Only the creator may do so.
func (s *Store) CloseSession(ctx context.Context, sessionID, requesterID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		sess, err := s.lockSession(ctx, tx, "id = $1", sessionID)
		if err != nil {
			return err
		}
		if sess.CreatorID != requesterID {
			return apperr.ErrUnauthorized
		}
		if sess.Status != models.StatusOpen {
			return errors.Wrapf(apperr.ErrInvalidState, "session is %s", sess.Status)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE swipe_session
			SET status = $1, closed_at = $2
			WHERE id = $3 AND status = $4
		`, models.StatusClosed, s.now(), sessionID, models.StatusOpen)
		if err != nil {
			return failed(err, "failed to close session")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return failed(err, "failed to read rows affected")
		}
		if n == 0 {
			return apperr.ErrInvalidState
		}
		return nil
	})
}

// GetSession returns a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM swipe_session WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, failed(err, "failed to query session")
	}
	return sess, nil
}

// ListSessionsForUser returns the sessions userID participates in, newest
// first, optionally restricted to the given statuses.
func (s *Store) ListSessionsForUser(ctx context.Context, userID string, statuses []string) ([]models.Session, error) {
	query := `
		SELECT s.id, s.creator_id, s.category_id, s.quorum_n, s.status, s.matched_option_id,
		       s.invite_code, s.created_at, s.matched_at, s.closed_at
		FROM swipe_session s
		JOIN session_participant p ON p.session_id = s.id
		WHERE p.user_id = $1`
	args := []any{userID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			args = append(args, st)
			placeholders[i] = "$" + strconv.Itoa(len(args))
		}
		query += ` AND s.status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY s.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, failed(err, "failed to query sessions")
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan session")
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, failed(err, "failed to iterate sessions")
	}
	return sessions, nil
}

// ListParticipants returns the members of a session in join order.
func (s *Store) ListParticipants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, user_id, joined_at
		FROM session_participant
		WHERE session_id = $1
		ORDER BY joined_at, user_id
	`, sessionID)
	if err != nil {
		return nil, failed(err, "failed to query participants")
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.SessionID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan participant")
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, failed(err, "failed to iterate participants")
	}
	return participants, nil
}

// IsParticipant reports whether userID has joined sessionID.
func (s *Store) IsParticipant(ctx context.Context, sessionID, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM session_participant
			WHERE session_id = $1 AND user_id = $2
		)
	`, sessionID, userID).Scan(&exists)
	if err != nil {
		return false, failed(err, "failed to check participant")
	}
	return exists, nil
}

// SessionOptionIDs returns the candidate deck of a session in swipe order.
func (s *Store) SessionOptionIDs(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT option_id
		FROM session_option
		WHERE session_id = $1
		ORDER BY order_index
	`, sessionID)
	if err != nil {
		return nil, failed(err, "failed to query session options")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan session option")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, failed(err, "failed to iterate session options")
	}
	return ids, nil
}

// CountLikes returns how many distinct participants liked optionID.
func (s *Store) CountLikes(ctx context.Context, sessionID, optionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, countLikesQuery, sessionID, optionID).Scan(&n)
	if err != nil {
		return 0, failed(err, "failed to count likes")
	}
	return n, nil
}
