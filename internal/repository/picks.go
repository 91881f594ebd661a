package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/abrezinsky/pickem/internal/docstore"
	"github.com/abrezinsky/pickem/internal/models"
)

// PickID is the document id of a participant's pick for a round. One pick
// per (round, user) is enforced by the id itself.
func PickID(roundID, userID string) string {
	return roundID + "_" + userID
}

// ListPicksForRound returns a round's picks by score descending, earliest
// update first among equal scores
func (r *Repository) ListPicksForRound(ctx context.Context, roundID string) ([]models.Pick, error) {
	docs, err := r.store.List(ctx, models.CollectionPicks, docstore.Where(fieldRoundID, roundID))
	if err != nil {
		return nil, err
	}

	picks := make([]models.Pick, 0, len(docs))
	for _, doc := range docs {
		picks = append(picks, decodePick(doc))
	}
	SortPicks(picks)
	return picks, nil
}

// SortPicks orders picks by score descending then updatedAt ascending
func SortPicks(picks []models.Pick) {
	sort.SliceStable(picks, func(i, j int) bool {
		a, b := picks[i], picks[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.UpdatedAt == nil || b.UpdatedAt == nil:
			if (a.UpdatedAt == nil) != (b.UpdatedAt == nil) {
				return a.UpdatedAt != nil
			}
		case !a.UpdatedAt.Equal(*b.UpdatedAt):
			return a.UpdatedAt.Before(*b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}

func (r *Repository) GetPick(ctx context.Context, id string) (*models.Pick, error) {
	doc, err := r.store.Get(ctx, models.CollectionPicks, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	p := decodePick(*doc)
	return &p, nil
}

// GetPickForUser finds the user's pick for a round. Picks stored under
// other ids are found by query.
func (r *Repository) GetPickForUser(ctx context.Context, roundID, userID string) (*models.Pick, error) {
	p, err := r.GetPick(ctx, PickID(roundID, userID))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	docs, err := r.store.List(ctx, models.CollectionPicks, docstore.Query{
		Where: []docstore.Filter{
			{Field: fieldRoundID, Value: roundID},
			{Field: fieldUserID, Value: userID},
		},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	pick := decodePick(docs[0])
	return &pick, nil
}

// CreatePick stores a new pick under PickID. Returns ErrAlreadyExists when
// the user already has a pick for the round.
func (r *Repository) CreatePick(ctx context.Context, pick models.Pick) (string, error) {
	id := pick.ID
	if id == "" {
		id = PickID(pick.RoundID, pick.UserID)
	}
	id, err := r.store.Create(ctx, models.CollectionPicks, id, map[string]any{
		fieldUserID:     pick.UserID,
		fieldRoundID:    pick.RoundID,
		fieldSelections: encodeSelections(pick.Selections),
		fieldScore:      pick.Score,
		fieldCreatedAt:  docstore.ServerTimestamp,
		fieldUpdatedAt:  docstore.ServerTimestamp,
	})
	return id, mapStoreErr(err)
}

func (r *Repository) UpdatePickSelections(ctx context.Context, id string, selections []models.Selection) error {
	return mapStoreErr(r.store.Update(ctx, models.CollectionPicks, id, map[string]any{
		fieldSelections: encodeSelections(selections),
		fieldUpdatedAt:  docstore.ServerTimestamp,
	}))
}

// UpdatePickScore writes only the score and the update time
func (r *Repository) UpdatePickScore(ctx context.Context, id string, score int) error {
	return mapStoreErr(r.store.Update(ctx, models.CollectionPicks, id, map[string]any{
		fieldScore:     score,
		fieldUpdatedAt: docstore.ServerTimestamp,
	}))
}

func (r *Repository) DeletePick(ctx context.Context, id string) error {
	return mapStoreErr(r.store.Delete(ctx, models.CollectionPicks, id))
}
