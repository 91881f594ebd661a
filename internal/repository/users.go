package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/abrezinsky/pickem/internal/docstore"
	"github.com/abrezinsky/pickem/internal/models"
)

func (r *Repository) GetUser(ctx context.Context, uid string) (*models.User, error) {
	doc, err := r.store.Get(ctx, models.CollectionUsers, uid)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	u := decodeUser(*doc)
	return &u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	docs, err := r.store.List(ctx, models.CollectionUsers, docstore.Query{})
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, decodeUser(doc))
	}
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].DisplayName) < strings.ToLower(users[j].DisplayName)
	})
	return users, nil
}

// UpsertUser merges the profile into an existing user document or creates it
func (r *Repository) UpsertUser(ctx context.Context, user models.User) error {
	fields := map[string]any{
		fieldDisplay:   user.DisplayName,
		fieldEmail:     user.Email,
		fieldRole:      user.Role,
		fieldUpdatedAt: docstore.ServerTimestamp,
	}
	err := r.store.Update(ctx, models.CollectionUsers, user.UID, fields)
	if !errors.Is(err, docstore.ErrNotFound) {
		return mapStoreErr(err)
	}

	fields[fieldCreatedAt] = docstore.ServerTimestamp
	_, err = r.store.Create(ctx, models.CollectionUsers, user.UID, fields)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		// created concurrently, merge again
		return mapStoreErr(r.store.Update(ctx, models.CollectionUsers, user.UID, fields))
	}
	return mapStoreErr(err)
}

// ListTeams returns teams ordered by name
func (r *Repository) ListTeams(ctx context.Context) ([]models.Team, error) {
	docs, err := r.store.List(ctx, models.CollectionTeams, docstore.Query{OrderBy: fieldName})
	if err != nil {
		return nil, err
	}
	teams := make([]models.Team, 0, len(docs))
	for _, doc := range docs {
		teams = append(teams, decodeTeam(doc))
	}
	return teams, nil
}

func (r *Repository) CreateTeam(ctx context.Context, team models.Team) (string, error) {
	id, err := r.store.Create(ctx, models.CollectionTeams, team.ID, map[string]any{
		fieldName:      team.Name,
		fieldShortName: team.ShortName,
	})
	return id, mapStoreErr(err)
}
