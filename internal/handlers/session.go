package handlers

import (
	"net/http"
	"strings"

	"github.com/abrezinsky/pickem/internal/auth"
)

// handleCreateSession validates a provider token and stores it in the
// session cookie
func (h *Handlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		respondError(w, BadRequest("token is required"))
		return
	}

	id, err := h.Auth.ValidateToken(token)
	if err != nil {
		respondError(w, Unauthorized("Invalid token"))
		return
	}
	if _, err := h.Users.EnsureProfile(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	auth.SetTokenCookie(w, token)
	respondOK(w, SessionResponse{UID: id.UID, Role: id.Role, DisplayName: id.DisplayName})
}

// handleDeleteSession clears the session cookie
func (h *Handlers) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	respondDeleted(w)
}

// handleGetMe returns the caller's profile
func (h *Handlers) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.EnsureProfile(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, user)
}
