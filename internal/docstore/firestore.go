package docstore

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is a Store backed by Cloud Firestore
type FirestoreStore struct {
	client *firestore.Client
	log    *slog.Logger
}

// OpenFirestore connects to Firestore for projectID. When
// FIRESTORE_EMULATOR_HOST is set the client talks to the emulator without
// credentials.
func OpenFirestore(ctx context.Context, projectID string, log *slog.Logger) (*FirestoreStore, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var opts []option.ClientOption
	if host := os.Getenv("FIRESTORE_EMULATOR_HOST"); host != "" {
		opts = append(opts, option.WithoutAuthentication())
		log.Info("Connecting to Firestore emulator", "host", host)
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}
	return NewFirestore(client, log), nil
}

// NewFirestore wraps an existing client
func NewFirestore(client *firestore.Client, log *slog.Logger) *FirestoreStore {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &FirestoreStore{client: client, log: log}
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) query(collection string, q Query) firestore.Query {
	fq := s.client.Collection(collection).Query
	for _, f := range q.Where {
		fq = fq.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func (s *FirestoreStore) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	iter := s.query(collection, q).Documents(ctx)
	defer iter.Stop()
	return collect(iter)
}

func collect(iter *firestore.DocumentIterator) ([]Document, error) {
	var docs []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return docs, nil
		}
		if err != nil {
			return nil, mapFirestoreErr(err)
		}
		docs = append(docs, fromSnapshot(snap))
	}
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreErr(err)
	}
	doc := fromSnapshot(snap)
	return &doc, nil
}

func (s *FirestoreStore) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if _, err := s.client.Collection(collection).Doc(id).Create(ctx, toFirestoreData(data)); err != nil {
		return "", mapFirestoreErr(err)
	}
	return id, nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range toFirestoreData(fields) {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	return mapFirestoreErr(err)
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, toFirestoreData(data))
	return mapFirestoreErr(err)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return mapFirestoreErr(err)
}

func (s *FirestoreStore) Subscribe(ctx context.Context, collection string, q Query) (<-chan []Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	snaps := s.query(collection, q).Snapshots(ctx)
	out := make(chan []Document, 1)

	go func() {
		defer close(out)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					s.log.Error("Firestore listener stopped", "collection", collection, "error", err)
				}
				return
			}
			docs, err := collect(snap.Documents)
			if err != nil {
				s.log.Warn("Failed to read snapshot", "collection", collection, "error", err)
				continue
			}
			offer(out, docs)
		}
	}()

	return out, nil
}

func fromSnapshot(snap *firestore.DocumentSnapshot) Document {
	return Document{
		ID:         snap.Ref.ID,
		Data:       snap.Data(),
		CreateTime: snap.CreateTime,
		UpdateTime: snap.UpdateTime,
	}
}

// toFirestoreData swaps ServerTimestamp for the Firestore sentinel
func toFirestoreData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case serverTimestamp:
			out[k] = firestore.ServerTimestamp
		case map[string]any:
			out[k] = toFirestoreData(val)
		default:
			out[k] = v
		}
	}
	return out
}

func mapFirestoreErr(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	}
	return err
}
