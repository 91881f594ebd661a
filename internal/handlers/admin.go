package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/services"
)

func (req RoundRequest) input() services.RoundInput {
	return services.RoundInput{
		Name:      req.Name,
		Slug:      req.Slug,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		MatchIDs:  req.MatchIDs,
		Active:    req.Active,
	}
}

// ==================== Rounds ====================

func (h *Handlers) handleCreateRound(w http.ResponseWriter, r *http.Request) {
	var req RoundRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Rounds.CreateRound(r.Context(), req.input())
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleUpdateRound(w http.ResponseWriter, r *http.Request) {
	var req RoundRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.Rounds.UpdateRound(r.Context(), id, req.input()); err != nil {
		respondError(w, err)
		return
	}
	round, err := h.Rounds.GetRound(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, round)
}

func (h *Handlers) handleDeleteRound(w http.ResponseWriter, r *http.Request) {
	if err := h.Rounds.DeleteRound(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// handleRescoreRound reruns reconciliation for one round
func (h *Handlers) handleRescoreRound(w http.ResponseWriter, r *http.Request) {
	res, err := h.Rescorer.ReconcileRound(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, res)
}

// handleRescoreAll reruns reconciliation for every round
func (h *Handlers) handleRescoreAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.Rescorer.ReconcileAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, res)
}

// ==================== Matches ====================

func (h *Handlers) handleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.Matches.ListMatches(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, matches)
}

func (h *Handlers) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Matches.CreateMatch(r.Context(), services.MatchInput{
		ID:      req.ID,
		EventID: req.EventID,
		Date:    req.Date,
		TeamAID: req.TeamAID,
		TeamBID: req.TeamBID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

func (h *Handlers) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	var req MatchResultRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	err := h.Matches.RecordResult(r.Context(), chi.URLParam(r, "id"), services.ResultInput{
		Status:     req.Status,
		TeamAScore: req.TeamAScore,
		TeamBScore: req.TeamBScore,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, map[string]string{"message": "Result recorded"})
}

func (h *Handlers) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.Matches.DeleteMatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// ==================== Teams ====================

func (h *Handlers) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Matches.ListTeams(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, teams)
}

func (h *Handlers) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req TeamCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.Matches.CreateTeam(r.Context(), models.Team{ID: req.ID, Name: req.Name, ShortName: req.ShortName})
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, IDResponse{ID: id})
}

// ==================== Picks ====================

// handleSetPickScore overrides a pick's stored score
func (h *Handlers) handleSetPickScore(w http.ResponseWriter, r *http.Request) {
	var req PickScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Score == nil {
		respondError(w, services.ErrInvalidScore)
		return
	}

	if err := h.Picks.SetScore(r.Context(), chi.URLParam(r, "id"), *req.Score); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, map[string]int{"score": *req.Score})
}
