package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListRounds returns every round with its status
func (h *Handlers) handleListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.Rounds.ListRounds(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, rounds)
}

// handleCurrentRound returns the round participants land on
func (h *Handlers) handleCurrentRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.Rounds.CurrentRound(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, round)
}

func (h *Handlers) handleGetRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.Rounds.GetRound(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, round)
}

func (h *Handlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.Leaderboard.GetLeaderboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, board)
}

// handleRoundQR serves a PNG QR code linking to the round
func (h *Handlers) handleRoundQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.Rounds.ShareQR(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
