// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Session status constants
const (
	StatusOpen    = "open"
	StatusMatched = "matched"
	StatusClosed  = "closed"
)

// Status filters accepted by ListSessions
const (
	FilterOpen    = "open"
	FilterHistory = "history" // matched or closed
)

// Request types

type CreateSessionRequest struct {
	CategoryID string `json:"category_id"`
	QuorumN    int    `json:"quorum_n"`
}

type JoinSessionRequest struct {
	InviteCode string `json:"invite_code"`
}

type LikeOptionRequest struct {
	OptionID string `json:"option_id"`
}

// Token is a pointer so that an explicit null clears the stored token.
type UpdateDeviceTokenRequest struct {
	Token *string `json:"token"`
}

// Response types

type LikeOptionResponse struct {
	MatchFound      bool    `json:"match_found"`
	AlreadyLiked    bool    `json:"already_liked"`
	MatchedOptionID *string `json:"matched_option_id,omitempty"`
}

type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

type SessionOptionsResponse struct {
	SessionID string   `json:"session_id"`
	Options   []Option `json:"options"`
}

type DeviceStatusResponse struct {
	UserID      string `json:"user_id"`
	PushEnabled bool   `json:"push_enabled"`
}

// Domain types

type Session struct {
	ID              string     `json:"id"`
	CreatorID       string     `json:"creator_id"`
	CategoryID      string     `json:"category_id"`
	QuorumN         int        `json:"quorum_n"`
	Status          string     `json:"status"`
	MatchedOptionID *string    `json:"matched_option_id,omitempty"`
	InviteCode      string     `json:"invite_code"`
	CreatedAt       time.Time  `json:"created_at"`
	MatchedAt       *time.Time `json:"matched_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
}

type Participant struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`
}

type Option struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Label      string `json:"label"`
	ImageURL   string `json:"image_url,omitempty"`
	OrderIndex int    `json:"order_index"`
}

// SessionDetail is the GetSession view.
type SessionDetail struct {
	Session       Session       `json:"session"`
	Participants  []Participant `json:"participants"`
	MatchedOption *Option       `json:"matched_option,omitempty"`
}

// LikeResult is the outcome of recording one like. Matched is true only on
// the call that moved the session from open to matched.
type LikeResult struct {
	AlreadyLiked    bool
	Matched         bool
	MatchedOptionID *string
}

// Recipient is a participant that can receive push notifications.
type Recipient struct {
	UserID      string
	DeviceToken string
}

// Error response

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`

	// Set on session_not_open when the session ended in a match
	MatchedOptionID *string `json:"matched_option_id,omitempty"`
}
