// Package docstore is a small document database abstraction with live
// queries. Documents are JSON-like maps grouped into named collections.
package docstore

import (
	"context"
	"errors"
	"regexp"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrInvalidField  = errors.New("invalid field name")
	ErrClosed        = errors.New("store closed")
)

type serverTimestamp struct{}

// ServerTimestamp is a field value replaced by the backend's write time
var ServerTimestamp = serverTimestamp{}

// Document is one stored record
type Document struct {
	ID         string
	Data       map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// Filter matches documents whose field equals Value
type Filter struct {
	Field string
	Value any
}

// Query selects documents within a collection
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Where returns a query with a single equality filter
func Where(field string, value any) Query {
	return Query{Where: []Filter{{Field: field, Value: value}}}
}

// Store is implemented by every backend
type Store interface {
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Create inserts a new document. An empty id gets a generated one.
	Create(ctx context.Context, collection, id string, data map[string]any) (string, error)
	// Update merges fields into an existing document
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Set creates or replaces a document
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Subscribe emits the query result now and after every change to the
	// collection. Slow consumers only see the latest result. The channel
	// is closed when ctx is done.
	Subscribe(ctx context.Context, collection string, q Query) (<-chan []Document, error)
	Close() error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidField reports whether name is usable in filters and ordering
func ValidField(name string) bool {
	return fieldPattern.MatchString(name)
}

func validateQuery(q Query) error {
	for _, f := range q.Where {
		if !ValidField(f.Field) {
			return ErrInvalidField
		}
	}
	if q.OrderBy != "" && !ValidField(q.OrderBy) {
		return ErrInvalidField
	}
	return nil
}

// offer replaces any unread result in out with docs. Only safe with a single
// sender per channel.
func offer(out chan []Document, docs []Document) {
	select {
	case <-out:
	default:
	}
	out <- docs
}
