package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abrezinsky/pickem/internal/auth"
	"github.com/abrezinsky/pickem/internal/handlers"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/pickem"
	"github.com/abrezinsky/pickem/internal/repository/mock"
	"github.com/abrezinsky/pickem/internal/scoring"
	"github.com/abrezinsky/pickem/internal/services"
	"github.com/abrezinsky/pickem/internal/testutil"
)

const testSecret = "test-secret"

type testSetup struct {
	repo       *mock.Repository
	router     chi.Router
	provider   *auth.JWTProvider
	userToken  string
	adminToken string
}

func newTestSetup(t *testing.T) *testSetup {
	t.Helper()

	realRepo := testutil.NewTestRepository(t)
	testutil.SeedWeekOne(t, realRepo)
	repo := mock.NewRepository(realRepo)

	log := logger.NewNop()
	clock := pickem.FixedClock{At: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)}
	reg := prometheus.NewRegistry()

	provider := auth.NewJWTProvider(testSecret, "pickem-test")
	h := handlers.New(handlers.Deps{
		Rounds:      services.NewRoundService(log, repo, clock, "http://pickem.test"),
		Matches:     services.NewMatchService(log, repo),
		Picks:       services.NewPickService(log, repo, clock),
		Leaderboard: services.NewLeaderboardService(log, repo, clock),
		Users:       services.NewUserService(log, repo),
		Rescorer:    scoring.NewReconciler(log, repo, scoring.Options{Metrics: scoring.NewMetrics(reg)}),
		Auth:        provider,
		Limiter:     auth.NewRateLimiter(100, 100),
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Health:      realRepo.Ping,
		Log:         log,
	})

	userToken, err := provider.GenerateToken(auth.Identity{UID: testutil.UserID, Role: models.RoleUser, DisplayName: "Player One"}, time.Hour)
	if err != nil {
		t.Fatalf("failed to mint user token: %v", err)
	}
	adminToken, err := provider.GenerateToken(auth.Identity{UID: "admin1", Role: models.RoleAdmin, DisplayName: "Admin"}, time.Hour)
	if err != nil {
		t.Fatalf("failed to mint admin token: %v", err)
	}

	return &testSetup{
		repo:       repo,
		router:     h.Router(),
		provider:   provider,
		userToken:  userToken,
		adminToken: adminToken,
	}
}

// do sends a request through the router. body is JSON encoded unless it
// is already a string.
func (s *testSetup) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	var apiErr handlers.APIError
	decodeBody(t, rec, &apiErr)
	if apiErr.Code != code {
		t.Errorf("expected code %q, got %q (%s)", code, apiErr.Code, apiErr.Message)
	}
}

func TestHealth(t *testing.T) {
	s := newTestSetup(t)

	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics_ExposesScoringCounters(t *testing.T) {
	s := newTestSetup(t)

	if rec := s.do(t, http.MethodPost, "/api/admin/rescore", s.adminToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("rescore failed: %d %s", rec.Code, rec.Body.String())
	}

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("pickem_scoring_passes_total")) {
		t.Error("expected scoring metrics in output")
	}
}

func TestSession_CreateAndDelete(t *testing.T) {
	s := newTestSetup(t)

	rec := s.do(t, http.MethodPost, "/api/session", "", handlers.SessionRequest{Token: s.userToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != s.userToken {
		t.Fatal("expected session cookie with the token")
	}

	user, err := s.repo.GetUser(context.Background(), testutil.UserID)
	if err != nil {
		t.Fatalf("expected profile to be created: %v", err)
	}
	if user.DisplayName != "Player One" {
		t.Errorf("unexpected profile %+v", user)
	}

	// the cookie alone authenticates
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	s.router.ServeHTTP(me, req)
	if me.Code != http.StatusOK {
		t.Errorf("expected cookie to authenticate, got %d", me.Code)
	}

	rec = s.do(t, http.MethodDelete, "/api/session", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestSession_Rejections(t *testing.T) {
	s := newTestSetup(t)

	expectError(t, s.do(t, http.MethodPost, "/api/session", "", "not json"), http.StatusBadRequest, handlers.ErrCodeBadRequest)
	expectError(t, s.do(t, http.MethodPost, "/api/session", "", handlers.SessionRequest{}), http.StatusBadRequest, handlers.ErrCodeBadRequest)
	expectError(t, s.do(t, http.MethodPost, "/api/session", "", handlers.SessionRequest{Token: "garbage"}), http.StatusUnauthorized, handlers.ErrCodeUnauthorized)

	other := auth.NewJWTProvider("other-secret", "pickem-test")
	forged, err := other.GenerateToken(auth.Identity{UID: "x", Role: models.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	expectError(t, s.do(t, http.MethodPost, "/api/session", "", handlers.SessionRequest{Token: forged}), http.StatusUnauthorized, handlers.ErrCodeUnauthorized)
}

func TestRateLimit_Participant(t *testing.T) {
	realRepo := testutil.NewTestRepository(t)
	testutil.SeedWeekOne(t, realRepo)
	log := logger.NewNop()
	provider := auth.NewJWTProvider(testSecret, "")
	h := handlers.New(handlers.Deps{
		Users:   services.NewUserService(log, realRepo),
		Auth:    provider,
		Limiter: auth.NewRateLimiter(0.001, 1),
	})
	router := h.Router()
	token, err := provider.GenerateToken(auth.Identity{UID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("expected [200 429], got %v", codes)
	}
}
