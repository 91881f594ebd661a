package repository

import (
	"context"

	"github.com/abrezinsky/pickem/internal/docstore"
	"github.com/abrezinsky/pickem/internal/models"
)

func (r *Repository) WatchRounds(ctx context.Context) (<-chan []models.Round, error) {
	return watch(ctx, r.store, models.CollectionRounds, decodeRound)
}

func (r *Repository) WatchMatches(ctx context.Context) (<-chan []models.Match, error) {
	return watch(ctx, r.store, models.CollectionMatches, decodeMatch)
}

func (r *Repository) WatchPicks(ctx context.Context) (<-chan []models.Pick, error) {
	return watch(ctx, r.store, models.CollectionPicks, decodePick)
}

// watch decodes every snapshot of a collection, keeping only the latest one
// for slow readers
func watch[T any](ctx context.Context, store docstore.Store, collection string, decode func(docstore.Document) T) (<-chan []T, error) {
	src, err := store.Subscribe(ctx, collection, docstore.Query{})
	if err != nil {
		return nil, err
	}

	out := make(chan []T, 1)
	go func() {
		defer close(out)
		for docs := range src {
			items := make([]T, 0, len(docs))
			for _, doc := range docs {
				items = append(items, decode(doc))
			}
			select {
			case <-out:
			default:
			}
			select {
			case out <- items:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
