// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the swivo API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, svc, verifier)

# Endpoints

Operational (no authentication):

	GET /health  - Database ping
	GET /metrics - Prometheus metrics
	GET /        - Version banner

Sessions (bearer token required):

	POST /sessions              - Create session over a category
	POST /sessions/join         - Join by invite code
	GET  /sessions?status=...   - List own sessions (open, history, matched, closed)
	GET  /sessions/{id}         - Session with participants and match
	GET  /sessions/{id}/options - Candidate deck (participants only)
	POST /sessions/{id}/likes   - Like an option
	POST /sessions/{id}/close   - Close without a match (creator only)

Current user (bearer token required):

	GET /me                - Push status
	PUT /me/device-token   - Set or clear push token
*/
package router
