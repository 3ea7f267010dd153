// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

main loads a .env file with godotenv before calling it, so local settings
can live next to the binary.

# CLI Flags and Environment Variables

	-p                 PORT              Server port (default 3318)
	-d                 DATABASE_URL      Database URL (required)
	-t                 DATABASE_TYPE     sqlite or postgres (default sqlite)
	-jwt-secret        JWT_SECRET        Bearer token secret (required)
	-redis             REDIS_URL         Option label cache (optional)
	-push-url          PUSH_GATEWAY_URL  Push gateway; empty logs pushes
	-push-key          PUSH_GATEWAY_KEY  Push gateway API key
	-push-concurrency  PUSH_CONCURRENCY  Concurrent sends per match (default 8)
	-store-timeout     STORE_TIMEOUT     Per store call (default 5s)
	-push-timeout      PUSH_TIMEOUT      Per push send (default 10s)

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if DATABASE_URL or JWT_SECRET is missing, or if
a numeric or duration value does not parse.
*/
package cliparse
