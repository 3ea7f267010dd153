// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation for PostgreSQL and SQLite.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
DriverName maps the configured database type ("postgres", "postgresql",
"sqlite") to the database/sql driver name.

# Tables

  - app_user: Push state of an authenticated user
  - category: Catalog categories
  - option: Candidate options per category
  - swipe_session: Session metadata and lifecycle state
  - session_participant: Members of a session
  - session_option: The candidate deck of a session, in swipe order
  - session_like: One row per (session, option, user)

# Relationships

	category 1──* option
	swipe_session 1──* session_participant
	swipe_session 1──* session_option
	swipe_session 1──* session_like

A CHECK constraint ties status to the match columns: a session is matched
exactly when matched_option_id and matched_at are set.
*/
package db
