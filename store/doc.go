// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists sessions, participants, likes and push tokens.

# Transactions

Every mutating operation runs in a single transaction that first reads the
session row. On PostgreSQL the read takes a row lock (FOR UPDATE); SQLite
serializes writers on the whole database. Either way concurrent likes on
one session are evaluated one after another.

# Matching

RecordLikeAndEvaluateQuorum inserts the like, counts likes for the option
among current participants and, if quorum is met, swaps the status from
open to matched:

	UPDATE swipe_session SET status = 'matched', ...
	WHERE id = $1 AND status = 'open'

Only the caller whose UPDATE affected a row reports Matched, so the match
notification fires once per session.

# Errors

Domain failures are returned as apperr sentinels (ErrNotFound,
ErrSessionNotOpen, ErrAlreadyJoined, ...). Unclassified database failures
are wrapped with apperr.Transient since the write may or may not have
committed.
*/
package store
