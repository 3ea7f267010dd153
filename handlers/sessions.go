// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/swivo/middleware"
	"github.com/danielhkuo/swivo/models"
	"github.com/danielhkuo/swivo/session"
)

type SessionHandler struct {
	svc *session.Service
}

func NewSessionHandler(svc *session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, err := h.svc.CreateSession(r.Context(), middleware.UserID(r.Context()), req.CategoryID, req.QuorumN)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, sess)
}

// JoinSession handles POST /sessions/join
func (h *SessionHandler) JoinSession(w http.ResponseWriter, r *http.Request) {
	var req models.JoinSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sess, err := h.svc.JoinSession(r.Context(), middleware.UserID(r.Context()), req.InviteCode)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, sess)
}

// ListSessions handles GET /sessions?status=open|history|matched|closed
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListSessions(r.Context(), middleware.UserID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListSessionsResponse{Sessions: sessions})
}

// GetSession handles GET /sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetSession(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// GetSessionOptions handles GET /sessions/{id}/options
func (h *SessionHandler) GetSessionOptions(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	options, err := h.svc.SessionOptions(r.Context(), middleware.UserID(r.Context()), sessionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SessionOptionsResponse{
		SessionID: sessionID,
		Options:   options,
	})
}

// LikeOption handles POST /sessions/{id}/likes
// A repeated like returns 200 with already_liked set; it never creates a
// second like or a second match. A new like on a matched session answers
// 409 session_not_open with the winning matched_option_id.
func (h *SessionHandler) LikeOption(w http.ResponseWriter, r *http.Request) {
	var req models.LikeOptionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.svc.LikeOption(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"), req.OptionID)
	if err != nil {
		status, body := middleware.ErrorBody(err)
		body.MatchedOptionID = res.MatchedOptionID
		middleware.JSONResponse(w, status, body)
		return
	}

	status := http.StatusCreated
	if res.AlreadyLiked {
		status = http.StatusOK
	}
	middleware.JSONResponse(w, status, models.LikeOptionResponse{
		MatchFound:      res.Matched,
		AlreadyLiked:    res.AlreadyLiked,
		MatchedOptionID: res.MatchedOptionID,
	})
}

// CloseSession handles POST /sessions/{id}/close
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	if err := h.svc.CloseSession(r.Context(), middleware.UserID(r.Context()), sessionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		"status":     models.StatusClosed,
	})
}
