// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/swivo/auth"
	"github.com/danielhkuo/swivo/handlers"
	"github.com/danielhkuo/swivo/metrics"
	"github.com/danielhkuo/swivo/middleware"
	"github.com/danielhkuo/swivo/session"
)

func NewRouter(db *sql.DB, svc *session.Service, verifier *auth.Verifier) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(svc)
	deviceHandler := handlers.NewDeviceHandler(svc)

	// authed wraps a handler with logging and bearer authentication
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireUser(verifier, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", metrics.Handler())

	// Sessions
	mux.HandleFunc("POST /sessions", authed(sessionHandler.CreateSession))
	mux.HandleFunc("POST /sessions/join", authed(sessionHandler.JoinSession))
	mux.HandleFunc("GET /sessions", authed(sessionHandler.ListSessions))
	mux.HandleFunc("GET /sessions/{id}", authed(sessionHandler.GetSession))
	mux.HandleFunc("GET /sessions/{id}/options", authed(sessionHandler.GetSessionOptions))
	mux.HandleFunc("POST /sessions/{id}/likes", authed(sessionHandler.LikeOption))
	mux.HandleFunc("POST /sessions/{id}/close", authed(sessionHandler.CloseSession))

	// Current user
	mux.HandleFunc("GET /me", authed(deviceHandler.GetMe))
	mux.HandleFunc("PUT /me/device-token", authed(deviceHandler.UpdateDeviceToken))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("swivo API v1"))
	})

	return mux
}
