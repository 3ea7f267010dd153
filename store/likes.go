// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/danielhkuo/swivo/apperr"
	"github.com/danielhkuo/swivo/models"
	"github.com/danielhkuo/swivo/quorum"
)

// Likes only count while the liker is still a participant.
const countLikesQuery = `
	SELECT COUNT(DISTINCT l.user_id)
	FROM session_like l
	JOIN session_participant p ON p.session_id = l.session_id AND p.user_id = l.user_id
	WHERE l.session_id = $1 AND l.option_id = $2
`

// RecordLikeAndEvaluateQuorum stores a like and, if the option now has
// quorum, moves the session to matched. The whole read-modify-write runs in
// one transaction holding the session row lock, and the final transition is
// a compare-and-swap on status: when several options cross quorum at the
// same time, the first commit wins and every later caller sees matched.
//
// A repeated like returns AlreadyLiked without re-evaluating, even if the
// session has since been matched or closed. A new like on a session that
// is no longer open fails with ErrSessionNotOpen; the returned result then
// still carries the matched option, if any.
func (s *Store) RecordLikeAndEvaluateQuorum(ctx context.Context, sessionID, optionID, userID string) (models.LikeResult, error) {
	var result models.LikeResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		sess, err := s.lockSession(ctx, tx, "id = $1", sessionID)
		if err != nil {
			return err
		}
		result.MatchedOptionID = sess.MatchedOptionID

		var isParticipant, inDeck, liked bool
		err = tx.QueryRowContext(ctx, `
			SELECT
				EXISTS(SELECT 1 FROM session_participant WHERE session_id = $1 AND user_id = $2),
				EXISTS(SELECT 1 FROM session_option WHERE session_id = $1 AND option_id = $3),
				EXISTS(SELECT 1 FROM session_like WHERE session_id = $1 AND user_id = $2 AND option_id = $3)
		`, sessionID, userID, optionID).Scan(&isParticipant, &inDeck, &liked)
		if err != nil {
			return failed(err, "failed to check like preconditions")
		}
		if !isParticipant {
			return apperr.ErrNotParticipant
		}
		if !inDeck {
			return apperr.ErrOptionNotInSession
		}
		if liked {
			result.AlreadyLiked = true
			return nil
		}
		if sess.Status != models.StatusOpen {
			return apperr.ErrSessionNotOpen
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO session_like (session_id, option_id, user_id, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, sessionID, optionID, userID, s.now())
		if err != nil {
			return failed(err, "failed to insert like")
		}
		if n, err := res.RowsAffected(); err != nil {
			return failed(err, "failed to read rows affected")
		} else if n == 0 {
			result.AlreadyLiked = true
			return nil
		}

		tally := quorum.Tally{Status: sess.Status, QuorumN: sess.QuorumN}
		err = tx.QueryRowContext(ctx, countLikesQuery, sessionID, optionID).Scan(&tally.LikeCount)
		if err != nil {
			return failed(err, "failed to count likes")
		}
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM session_participant WHERE session_id = $1
		`, sessionID).Scan(&tally.ParticipantCount)
		if err != nil {
			return failed(err, "failed to count participants")
		}

		if quorum.Evaluate(tally) != quorum.Transition {
			return nil
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE swipe_session
			SET status = $1, matched_option_id = $2, matched_at = $3
			WHERE id = $4 AND status = $5
		`, models.StatusMatched, optionID, s.now(), sessionID, models.StatusOpen)
		if err != nil {
			return failed(err, "failed to transition session")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return failed(err, "failed to read rows affected")
		}
		if n == 1 {
			result.Matched = true
			matched := optionID
			result.MatchedOptionID = &matched
		}
		return nil
	})
	if errors.Is(err, apperr.ErrSessionNotOpen) {
		// The caller can still learn which option won.
		return models.LikeResult{MatchedOptionID: result.MatchedOptionID}, err
	}
	if err != nil {
		return models.LikeResult{}, err
	}

	if result.Matched {
		slog.Info("session matched", "session_id", sessionID, "option_id", optionID)
	}
	return result, nil
}
