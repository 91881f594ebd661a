package repository

import (
	"context"
	"sort"

	"github.com/abrezinsky/pickem/internal/docstore"
	"github.com/abrezinsky/pickem/internal/models"
)

// ListRounds returns rounds newest first. Rounds without a start date sort last.
func (r *Repository) ListRounds(ctx context.Context) ([]models.Round, error) {
	docs, err := r.store.List(ctx, models.CollectionRounds, docstore.Query{})
	if err != nil {
		return nil, err
	}

	rounds := make([]models.Round, 0, len(docs))
	for _, doc := range docs {
		rounds = append(rounds, decodeRound(doc))
	}
	SortRounds(rounds)
	return rounds, nil
}

// SortRounds orders rounds by start date descending, undated rounds last
func SortRounds(rounds []models.Round) {
	sort.SliceStable(rounds, func(i, j int) bool {
		a, b := rounds[i].StartDate, rounds[j].StartDate
		switch {
		case a == nil && b == nil:
			return rounds[i].ID < rounds[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return rounds[i].ID < rounds[j].ID
		}
		return a.After(*b)
	})
}

func (r *Repository) GetRound(ctx context.Context, id string) (*models.Round, error) {
	doc, err := r.store.Get(ctx, models.CollectionRounds, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	round := decodeRound(*doc)
	return &round, nil
}

func (r *Repository) CreateRound(ctx context.Context, round models.Round) (string, error) {
	data := encodeRound(round)
	data[fieldCreatedAt] = docstore.ServerTimestamp
	data[fieldUpdatedAt] = docstore.ServerTimestamp
	id, err := r.store.Create(ctx, models.CollectionRounds, round.ID, data)
	return id, mapStoreErr(err)
}

func (r *Repository) UpdateRound(ctx context.Context, round models.Round) error {
	data := encodeRound(round)
	data[fieldUpdatedAt] = docstore.ServerTimestamp
	return mapStoreErr(r.store.Update(ctx, models.CollectionRounds, round.ID, data))
}

func (r *Repository) DeleteRound(ctx context.Context, id string) error {
	return mapStoreErr(r.store.Delete(ctx, models.CollectionRounds, id))
}
