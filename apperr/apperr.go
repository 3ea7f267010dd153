// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package apperr classifies application errors by kind so that transports
// can pick a status and callers can tell retryable failures apart.
package apperr

import (
	"context"
	"database/sql/driver"
	"net"

	"github.com/pkg/errors"
)

// Kind classifies an error for callers that need to decide between
// reporting, retrying and alerting.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthorized
	KindUnauthenticated
	KindTransient
	KindExhausted
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindTransient:
		return "transient"
	case KindExhausted:
		return "exhausted"
	}
	return "internal"
}

// Error is a classified application error. Code is stable and machine
// readable, Message is safe to show to end users.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidInput    = newError(KindValidation, "invalid_input", "The request is invalid")
	ErrUnauthenticated = newError(KindUnauthenticated, "unauthenticated", "You need to be signed in to perform this action")
	ErrUnauthorized    = newError(KindUnauthorized, "unauthorized", "Only the session creator can do that")

	ErrNotFound           = newError(KindNotFound, "not_found", "Session not found")
	ErrOptionNotInSession = newError(KindNotFound, "option_not_in_session", "This option is not part of the session")

	ErrSessionClosed         = newError(KindConflict, "session_closed", "This session has been closed")
	ErrSessionAlreadyMatched = newError(KindConflict, "session_already_matched", "This session already has a match")
	ErrAlreadyJoined         = newError(KindConflict, "already_joined", "You have already joined this session")
	ErrSessionNotOpen        = newError(KindConflict, "session_not_open", "This session is no longer accepting likes")
	ErrNotParticipant        = newError(KindUnauthorized, "not_participant", "You are not a participant of this session")
	ErrInvalidState          = newError(KindConflict, "invalid_state", "This session is not open")

	ErrInviteSpaceExhausted = newError(KindExhausted, "resource_exhausted", "Could not allocate an invite code")
)

// Invalid returns a validation error carrying a specific user message.
func Invalid(message string) error {
	return &Error{Kind: KindValidation, Code: ErrInvalidInput.Code, Message: message, Err: ErrInvalidInput}
}

// Transient marks err as a retryable infrastructure failure. A nil err
// stays nil, and errors that are already classified are returned as is.
func Transient(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return errors.Wrap(err, msg)
	}
	return &Error{
		Kind:    KindTransient,
		Code:    "transient",
		Message: "Temporary failure, the outcome is unknown; re-check the session before retrying",
		Err:     errors.Wrap(err, msg),
	}
}

// KindOf reports the classification of err. Unclassified errors are
// inspected for well-known transient causes before falling back to
// KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if IsTimeout(err) {
		return KindTransient
	}
	return KindInternal
}

// Lookup returns the classified error carried by err, if any.
func Lookup(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsTimeout reports whether err was caused by a deadline, a cancelled
// context, a broken driver connection or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

// Retryable reports whether the caller may safely retry.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}
