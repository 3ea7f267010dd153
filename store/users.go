// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/danielhkuo/swivo/models"
)

// SetDeviceToken stores the push token of a user, creating the user row if
// needed. A nil token removes push capability.
func (s *Store) SetDeviceToken(ctx context.Context, userID string, token *string) error {
	var t sql.NullString
	if token != nil && *token != "" {
		t = sql.NullString{String: *token, Valid: true}
	}

	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_user (id, device_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			device_token = EXCLUDED.device_token,
			updated_at = EXCLUDED.updated_at
	`, userID, t, now, now)
	return failed(err, "failed to update device token")
}

// DeviceToken returns the stored push token of a user, or nil.
func (s *Store) DeviceToken(ctx context.Context, userID string) (*string, error) {
	var t sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT device_token FROM app_user WHERE id = $1`, userID).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, failed(err, "failed to query device token")
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.String, nil
}

// ClearDeviceToken removes token from the user record, but only if the
// record still holds that exact token; a token refreshed in the meantime
// is left alone. Reports whether a row was changed.
func (s *Store) ClearDeviceToken(ctx context.Context, userID, token string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE app_user
		SET device_token = NULL, updated_at = $1
		WHERE id = $2 AND device_token = $3
	`, s.now(), userID, token)
	if err != nil {
		return false, failed(err, "failed to clear device token")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read rows affected")
	}
	return n > 0, nil
}

// Recipients returns the participants of a session that have a push token.
func (s *Store) Recipients(ctx context.Context, sessionID string) ([]models.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.device_token
		FROM session_participant p
		JOIN app_user u ON u.id = p.user_id
		WHERE p.session_id = $1
		  AND u.device_token IS NOT NULL
		  AND u.device_token <> ''
		ORDER BY p.joined_at
	`, sessionID)
	if err != nil {
		return nil, failed(err, "failed to query recipients")
	}
	defer rows.Close()

	recipients := []models.Recipient{}
	for rows.Next() {
		var r models.Recipient
		if err := rows.Scan(&r.UserID, &r.DeviceToken); err != nil {
			return nil, errors.Wrap(err, "failed to scan recipient")
		}
		recipients = append(recipients, r)
	}
	if err := rows.Err(); err != nil {
		return nil, failed(err, "failed to iterate recipients")
	}
	return recipients, nil
}
