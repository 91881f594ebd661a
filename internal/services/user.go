package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/abrezinsky/pickem/internal/auth"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/repository"
)

// UserService manages participant profiles
type UserService struct {
	log  logger.Logger
	repo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(log logger.Logger, repo repository.UserRepository) *UserService {
	return &UserService{log: log, repo: repo}
}

// EnsureProfile returns the caller's profile, creating it on first sight.
// A stored role is kept; new profiles take the token's role.
func (s *UserService) EnsureProfile(ctx context.Context, id *auth.Identity) (*models.User, error) {
	if id == nil || id.UID == "" {
		return nil, ErrNotSignedIn
	}

	name := strings.TrimSpace(id.DisplayName)
	if name == "" {
		name = displayNameFromEmail(id.Email)
	}

	existing, err := s.repo.GetUser(ctx, id.UID)
	switch {
	case err == nil:
		if (name == "" || existing.DisplayName == name) && existing.Email == id.Email {
			return existing, nil
		}
		if name != "" {
			existing.DisplayName = name
		}
		existing.Email = id.Email
		if err := s.repo.UpsertUser(ctx, *existing); err != nil {
			return nil, err
		}
		return existing, nil
	case !stderrors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	user := models.User{
		UID:         id.UID,
		DisplayName: name,
		Email:       id.Email,
		Role:        auth.NormalizeRole(id.Role),
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("Profile created", "uid", user.UID, "role", user.Role)
	return &user, nil
}

func displayNameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return ""
}
