// Package docstore is the gateway to the shop's document database. It exposes
// a small Firestore-shaped contract: documents addressed by collection and id,
// whole-collection subscriptions delivering ordered snapshots, and atomic
// multi-document batches. Backends: in-memory (default, also backs tests),
// PostgreSQL and DynamoDB, with a Kafka change feed driving subscriptions for
// the backends that have no native watch support.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrUnavailable = errors.New("document store unavailable")
)

// ServerTimestamp is a sentinel field value. The store replaces it with the
// commit-time server clock before the write is applied.
var ServerTimestamp = serverTimestamp{}

type serverTimestamp struct{}

// Document is one stored record. Data always holds plain JSON types
// (map[string]any, []any, string, float64, bool, nil); timestamps are
// RFC 3339 strings.
type Document struct {
	ID        string
	Data      map[string]any
	UpdatedAt time.Time
}

// DataTo decodes the document body into v via a JSON round trip.
func (d Document) DataTo(v any) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// Store is the write/read contract shared by all backends.
type Store interface {
	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// List returns every document in a collection, ordered by id.
	List(ctx context.Context, collection string) ([]Document, error)

	// Add inserts a document under a generated id and returns the id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)

	// Set writes a document. With merge, submitted top-level fields are
	// merged over the existing document; otherwise the document is replaced.
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error

	// Update patches fields on an existing document. ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Batch starts an atomic multi-document write.
	Batch() Batch
}

// Batch stages writes that commit together or not at all.
type Batch interface {
	Set(collection, id string, data map[string]any)
	Delete(collection, id string)
	Commit(ctx context.Context) error
}

// Watcher serves live collection and document subscriptions.
type Watcher interface {
	Watch(ctx context.Context, collection string) (*Subscription, error)
	WatchDoc(ctx context.Context, collection, id string) (*Subscription, error)
}

// normalize resolves ServerTimestamp sentinels against now and flattens the
// body to plain JSON types so that every backend stores and returns the same
// shapes.
func normalize(data map[string]any, now time.Time) (map[string]any, error) {
	resolved := resolveTimestamps(data, now).(map[string]any)
	raw, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("encode document body: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize document body: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func resolveTimestamps(v any, now time.Time) any {
	switch t := v.(type) {
	case serverTimestamp:
		return now
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = resolveTimestamps(val, now)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = resolveTimestamps(val, now)
		}
		return out
	default:
		return v
	}
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyData(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}
