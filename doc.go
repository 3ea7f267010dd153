// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the swivo API server.

swivo runs group swipe sessions: a creator opens a session over a category
of options, others join with an invite code, and everyone likes options.
The first option liked by quorum_n participants becomes the match, and
every participant with a device token receives a push notification.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:swivo.db JWT_SECRET=dev go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -jwt-secret dev

A .env file in the working directory is loaded first.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - JWT_SECRET (-jwt-secret): Secret for bearer token verification

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - REDIS_URL (-redis): Option label cache
  - PUSH_GATEWAY_URL / PUSH_GATEWAY_KEY: Push delivery; pushes are only
    logged when unset

# Architecture

  - session: The API boundary; validation, timeouts, match dispatch
  - store: Transactions over sessions, participants and likes
  - quorum: The match rule
  - invite: Invite code generation and allocation
  - catalog, cache: Categories and option labels, optionally Redis backed
  - notify: Match fan-out over the push transport
  - handlers, router, middleware: HTTP surface
  - apperr: Error classification shared by every layer
  - auth, cliparse, db, metrics, models: Supporting packages

See package documentation for each component.
*/
package main
