// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, client IP) and completion (status,
duration_ms), and observes the request latency histogram.

# Authentication

RequireUser verifies the bearer token and stores the user id in the request
context:

	mux.HandleFunc("POST /sessions", middleware.WithLogging(
		middleware.RequireUser(verifier, h.CreateSession)))

	userID := middleware.UserID(r.Context())

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

WriteError maps a classified error onto its HTTP status and error code.
Transient failures are reported as 503 with "retryable": true:

	if err != nil {
		middleware.WriteError(w, err)
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
