// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies the bearer credentials that identify users.

# Bearer Tokens

Users are authenticated by an external identity provider that issues
HS256-signed JWTs. The subject claim is the opaque user id:

	v := auth.NewVerifier(secret)
	userID, err := v.UserID(auth.BearerToken(r))

Tokens signed with any other algorithm, expired tokens and tokens without a
subject are rejected with ErrInvalidToken. A missing header yields
ErrMissingToken.

# Local Tokens

Issue signs tokens with the same secret. It is used by tests and by local
development setups that have no identity provider:

	token, err := v.Issue("user-123", time.Hour)
*/
package auth
