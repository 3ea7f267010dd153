// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the swivo API.

# Handler Types

Each handler is a thin struct over the session service:

  - SessionHandler: Session lifecycle, likes and listings
  - DeviceHandler: Push token registration

	sessionHandler := handlers.NewSessionHandler(svc)

Handlers decode the request, call the service with the user id that
middleware.RequireUser placed in the context, and encode the result.
Errors are written with middleware.WriteError, which picks the status
from the error's classification.

# Session Lifecycle

Sessions move from open to exactly one of matched or closed:

	POST /sessions              → CreateSession (returns invite_code)
	POST /sessions/join         → JoinSession (open sessions only)
	POST /sessions/{id}/likes   → LikeOption (may report match_found)
	POST /sessions/{id}/close   → CloseSession (creator only)

A like answers 201 when recorded and 200 with already_liked when the same
user liked the same option before. match_found is true only on the like
that moved the session to matched.

# Device Tokens

	PUT /me/device-token → UpdateDeviceToken ({"token": null} clears)
	GET /me              → GetMe
*/
package handlers
