package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/abrezinsky/pickem/internal/handlers"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/services"
	"github.com/abrezinsky/pickem/internal/testutil"
)

func TestHandleSubmitPick(t *testing.T) {
	s := newTestSetup(t)

	rec := s.do(t, http.MethodPut, "/api/rounds/R1/pick", s.userToken, handlers.PickSubmitRequest{Selections: testutil.P1Selections()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var pick models.Pick
	decodeBody(t, rec, &pick)
	if pick.UserID != testutil.UserID || pick.RoundID != testutil.RoundID || len(pick.Selections) != 3 {
		t.Errorf("unexpected pick %+v", pick)
	}

	rec = s.do(t, http.MethodGet, "/api/rounds/R1/pick", s.userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view services.PickView
	decodeBody(t, rec, &view)
	if view.Pick == nil || !view.CanSubmit || view.Result.TotalCorrect != 1 {
		t.Errorf("unexpected pick view %+v", view)
	}
}

func TestHandleSubmitPick_Errors(t *testing.T) {
	s := newTestSetup(t)

	incomplete := handlers.PickSubmitRequest{Selections: testutil.P1Selections()[:1]}
	wrongTeam := handlers.PickSubmitRequest{Selections: testutil.P1Selections()}
	wrongTeam.Selections[0].PredictedWinnerTeamID = "B3"

	tests := []struct {
		name   string
		path   string
		token  string
		body   interface{}
		status int
		code   string
	}{
		{"anonymous", "/api/rounds/R1/pick", "", handlers.PickSubmitRequest{}, http.StatusUnauthorized, handlers.ErrCodeUnauthorized},
		{"bad token", "/api/rounds/R1/pick", "garbage", handlers.PickSubmitRequest{}, http.StatusUnauthorized, handlers.ErrCodeUnauthorized},
		{"invalid json", "/api/rounds/R1/pick", s.userToken, "{", http.StatusBadRequest, handlers.ErrCodeBadRequest},
		{"incomplete", "/api/rounds/R1/pick", s.userToken, incomplete, http.StatusBadRequest, handlers.ErrCodeIncompletePick},
		{"wrong team", "/api/rounds/R1/pick", s.userToken, wrongTeam, http.StatusBadRequest, services.ErrInvalidSelection.Code},
		{"unknown round", "/api/rounds/R9/pick", s.userToken, handlers.PickSubmitRequest{Selections: testutil.P1Selections()}, http.StatusNotFound, handlers.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, s.do(t, http.MethodPut, tt.path, tt.token, tt.body), tt.status, tt.code)
		})
	}
}

func TestHandleSubmitPick_RoundClosed(t *testing.T) {
	s := newTestSetup(t)
	ctx := context.Background()

	round, err := s.repo.GetRound(ctx, testutil.RoundID)
	if err != nil {
		t.Fatalf("GetRound failed: %v", err)
	}
	round.Active = false
	if err := s.repo.UpdateRound(ctx, *round); err != nil {
		t.Fatalf("UpdateRound failed: %v", err)
	}

	rec := s.do(t, http.MethodPut, "/api/rounds/R1/pick", s.userToken, handlers.PickSubmitRequest{Selections: testutil.P1Selections()})
	expectError(t, rec, http.StatusForbidden, handlers.ErrCodeRoundClosed)
}

func TestHandleGetMe(t *testing.T) {
	s := newTestSetup(t)

	rec := s.do(t, http.MethodGet, "/api/me", s.userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var user models.User
	decodeBody(t, rec, &user)
	if user.UID != testutil.UserID || user.Role != models.RoleUser {
		t.Errorf("unexpected profile %+v", user)
	}
}
