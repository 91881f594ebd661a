package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/pickem/internal/auth"
)

// handleGetMyPick returns the caller's pick for a round
func (h *Handlers) handleGetMyPick(w http.ResponseWriter, r *http.Request) {
	view, err := h.Picks.GetMyPick(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, view)
}

// handleSubmitPick creates or replaces the caller's selections
func (h *Handlers) handleSubmitPick(w http.ResponseWriter, r *http.Request) {
	var req PickSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	pick, err := h.Picks.SubmitPick(r.Context(), chi.URLParam(r, "id"), auth.FromContext(r.Context()), req.Selections)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, pick)
}
