package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/abrezinsky/pickem/internal/docstore"
	"github.com/abrezinsky/pickem/internal/models"
)

// ListMatches returns matches by date, undated matches last
func (r *Repository) ListMatches(ctx context.Context) ([]models.Match, error) {
	docs, err := r.store.List(ctx, models.CollectionMatches, docstore.Query{})
	if err != nil {
		return nil, err
	}

	matches := make([]models.Match, 0, len(docs))
	for _, doc := range docs {
		matches = append(matches, decodeMatch(doc))
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].Date, matches[j].Date
		switch {
		case a == nil || b == nil:
			return a != nil && b == nil
		case a.Equal(*b):
			return matches[i].ID < matches[j].ID
		}
		return a.Before(*b)
	})
	return matches, nil
}

func (r *Repository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	doc, err := r.store.Get(ctx, models.CollectionMatches, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	m := decodeMatch(*doc)
	return &m, nil
}

func (r *Repository) GetMatches(ctx context.Context, ids []string) ([]models.Match, []string, error) {
	found := make([]models.Match, 0, len(ids))
	var missing []string
	for _, id := range ids {
		m, err := r.GetMatch(ctx, id)
		if errors.Is(err, ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		found = append(found, *m)
	}
	return found, missing, nil
}

func (r *Repository) CreateMatch(ctx context.Context, match models.Match) (string, error) {
	if match.Status == "" {
		match.Status = models.MatchUpcoming
	}
	id, err := r.store.Create(ctx, models.CollectionMatches, match.ID, encodeMatch(match))
	return id, mapStoreErr(err)
}

func (r *Repository) UpdateMatchResult(ctx context.Context, id, status string, teamAScore, teamBScore int) error {
	return mapStoreErr(r.store.Update(ctx, models.CollectionMatches, id, map[string]any{
		fieldStatus:     status,
		fieldTeamAScore: teamAScore,
		fieldTeamBScore: teamBScore,
		fieldUpdatedAt:  docstore.ServerTimestamp,
	}))
}

func (r *Repository) DeleteMatch(ctx context.Context, id string) error {
	return mapStoreErr(r.store.Delete(ctx, models.CollectionMatches, id))
}
