package repository

import (
	"context"
	"log/slog"

	"github.com/abrezinsky/pickem/internal/docstore"
	"github.com/abrezinsky/pickem/internal/models"
)

// Repository provides typed data access on top of a document store
type Repository struct {
	store docstore.Store
}

// New creates a Repository over store
func New(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// OpenSQLite creates a Repository backed by a SQLite file at path.
// Use ":memory:" for tests.
func OpenSQLite(path string, log *slog.Logger) (*Repository, error) {
	store, err := docstore.OpenSQLite(path, log)
	if err != nil {
		return nil, err
	}
	return New(store), nil
}

// Store returns the underlying document store
func (r *Repository) Store() docstore.Store {
	return r.store
}

// Close closes the underlying store
func (r *Repository) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// Ping checks if the store is reachable
func (r *Repository) Ping(ctx context.Context) error {
	if p, ok := r.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := r.store.List(ctx, models.CollectionRounds, docstore.Query{Limit: 1})
	return err
}
