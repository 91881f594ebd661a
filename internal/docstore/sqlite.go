package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps every collection in a single JSON document table
type SQLiteStore struct {
	db     *sql.DB
	feed   *changeFeed
	log    *slog.Logger
	now    func() time.Time
	closed atomic.Bool
}

// OpenSQLite opens (creating if needed) a document database at path.
// Use ":memory:" for a throwaway store.
func OpenSQLite(path string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single connection, and ":memory:" needs it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s, err := NewSQLite(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database handle and runs migrations
func NewSQLite(db *sql.DB, log *slog.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &SQLiteStore{
		db:   db,
		feed: newChangeFeed(log),
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(collection, updated_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ping checks if the database connection is alive
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close stops live queries and closes the database
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	feedErr := s.feed.close()
	if err := s.db.Close(); err != nil {
		return err
	}
	return feedErr
}

func (s *SQLiteStore) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	var sb strings.Builder
	args := []any{collection}
	sb.WriteString(`SELECT id, data, created_at, updated_at FROM documents WHERE collection = ?`)
	for _, f := range q.Where {
		sb.WriteString(` AND json_extract(data, '$.` + f.Field + `') = ?`)
		args = append(args, sqlValue(f.Value))
	}
	if q.OrderBy != "" {
		sb.WriteString(` ORDER BY json_extract(data, '$.` + q.OrderBy + `')`)
		if q.Desc {
			sb.WriteString(` DESC`)
		}
		sb.WriteString(`, id`)
	} else {
		sb.WriteString(` ORDER BY id`)
	}
	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

func (s *SQLiteStore) Create(ctx context.Context, collection, id string, data map[string]any) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	body, err := s.encode(data, now)
	if err != nil {
		return "", err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO NOTHING`,
		collection, id, body, formatTime(now), formatTime(now))
	if err != nil {
		return "", err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", ErrAlreadyExists
	}

	s.notify(collection)
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	merged := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		merged[k] = v
	}

	now := s.now()
	body, err := s.encode(merged, now)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		body, formatTime(now), collection, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.notify(collection)
	return nil
}

func (s *SQLiteStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	now := s.now()
	body, err := s.encode(data, now)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, id, body, formatTime(now), formatTime(now)); err != nil {
		return err
	}

	s.notify(collection)
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.notify(collection)
	}
	return nil
}

func (s *SQLiteStore) Subscribe(ctx context.Context, collection string, q Query) (<-chan []Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}

	changes, err := s.feed.subscribe(ctx, collection)
	if err != nil {
		return nil, err
	}
	initial, err := s.List(ctx, collection, q)
	if err != nil {
		return nil, err
	}

	out := make(chan []Document, 1)
	out <- initial

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-changes:
				if !ok {
					return
				}
				msg.Ack()
				// coalesce a burst of writes into one query
				for drained := false; !drained; {
					select {
					case m, ok := <-changes:
						if !ok {
							return
						}
						m.Ack()
					default:
						drained = true
					}
				}

				docs, err := s.List(ctx, collection, q)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					s.log.Warn("live query failed", "collection", collection, "error", err)
					continue
				}
				offer(out, docs)
			}
		}
	}()

	return out, nil
}

func (s *SQLiteStore) notify(collection string) {
	if s.closed.Load() {
		return
	}
	if err := s.feed.publish(collection); err != nil {
		s.log.Warn("change notification failed", "collection", collection, "error", err)
	}
}

// encode resolves ServerTimestamp sentinels and serializes the document
func (s *SQLiteStore) encode(data map[string]any, now time.Time) (string, error) {
	body, err := json.Marshal(resolveTimestamps(data, now))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(body), nil
}

func resolveTimestamps(data map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case serverTimestamp:
			out[k] = formatTime(now)
		case time.Time:
			out[k] = formatTime(val)
		case *time.Time:
			if val == nil {
				out[k] = nil
			} else {
				out[k] = formatTime(*val)
			}
		case map[string]any:
			out[k] = resolveTimestamps(val, now)
		default:
			out[k] = v
		}
	}
	return out
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	var (
		doc                Document
		raw, created, updt string
	)
	if err := row.Scan(&doc.ID, &raw, &created, &updt); err != nil {
		return nil, err
	}
	doc.Data = map[string]any{}
	if err := json.Unmarshal([]byte(raw), &doc.Data); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	doc.CreateTime, _ = time.Parse(time.RFC3339Nano, created)
	doc.UpdateTime, _ = time.Parse(time.RFC3339Nano, updt)
	return &doc, nil
}

// sqlValue converts a filter value to what json_extract yields for it
func sqlValue(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return 1
		}
		return 0
	case time.Time:
		return formatTime(val)
	default:
		return v
	}
}

// fixed width so stored timestamps sort as strings
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
