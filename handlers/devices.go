// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/danielhkuo/swivo/middleware"
	"github.com/danielhkuo/swivo/models"
	"github.com/danielhkuo/swivo/session"
)

type DeviceHandler struct {
	svc *session.Service
}

func NewDeviceHandler(svc *session.Service) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

// UpdateDeviceToken handles PUT /me/device-token
// {"token": "..."} registers a push token, {"token": null} clears it.
func (h *DeviceHandler) UpdateDeviceToken(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateDeviceTokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	userID := middleware.UserID(r.Context())
	if err := h.svc.UpdateDeviceToken(r.Context(), userID, req.Token); err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeviceStatusResponse{
		UserID:      userID,
		PushEnabled: req.Token != nil && strings.TrimSpace(*req.Token) != "",
	})
}

// GetMe handles GET /me
func (h *DeviceHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	enabled, err := h.svc.PushEnabled(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeviceStatusResponse{
		UserID:      userID,
		PushEnabled: enabled,
	})
}
