// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreateSessionRequest: category_id, quorum_n
  - JoinSessionRequest: invite_code
  - LikeOptionRequest: option_id
  - UpdateDeviceTokenRequest: token (null clears)

# Response Types

  - LikeOptionResponse: match_found, already_liked, matched_option_id
  - ListSessionsResponse: sessions
  - SessionOptionsResponse: session_id, options
  - DeviceStatusResponse: user_id, push_enabled

# Domain Types

  - Session: session metadata and lifecycle state
  - Participant: a member of a session
  - Option: a candidate with its position in the deck
  - SessionDetail: a session with its members and matched option
  - LikeResult: outcome of recording a like
  - Recipient: a participant with a push token

# Constants

Status values:

	StatusOpen    = "open"
	StatusMatched = "matched"
	StatusClosed  = "closed"
*/
package models
