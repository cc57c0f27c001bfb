package feed

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"

	"github.com/segmentio/kafka-go"
)

// Listener consumes the change feed into an in-memory mirror and serves
// subscriptions from it. Seed the mirror from the backing store before Run so
// the first snapshot a subscriber sees is complete.
type Listener struct {
	reader *kafka.Reader
	mirror *docstore.MemoryStore
}

func NewListener(brokers []string, topic, groupID string) *Listener {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Listener{
		reader: reader,
		mirror: docstore.NewMemoryStore(),
	}
}

// Seed copies the named collections from the backing store into the mirror.
func (l *Listener) Seed(ctx context.Context, store docstore.Store, collections ...string) error {
	for _, collection := range collections {
		docs, err := store.List(ctx, collection)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := l.mirror.Set(ctx, collection, doc.ID, doc.Data, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run consumes change records until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Feed] Error reading change record: %v", err)
			continue
		}

		var rec ChangeRecord
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			log.Printf("[Feed] Malformed change record: %v", err)
			continue
		}

		if err := l.apply(ctx, rec); err != nil {
			log.Printf("[Feed] Error applying change to %s/%s: %v", rec.Collection, rec.DocID, err)
		}
	}
}

func (l *Listener) apply(ctx context.Context, rec ChangeRecord) error {
	switch rec.Op {
	case OpDelete:
		return l.mirror.Delete(ctx, rec.Collection, rec.DocID)
	case OpSet:
		var data map[string]any
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			return err
		}
		return l.mirror.Set(ctx, rec.Collection, rec.DocID, data, false)
	}
	return nil
}

// Watch serves a collection subscription from the mirror.
func (l *Listener) Watch(ctx context.Context, collection string) (*docstore.Subscription, error) {
	return l.mirror.Watch(ctx, collection)
}

// WatchDoc serves a document subscription from the mirror.
func (l *Listener) WatchDoc(ctx context.Context, collection, id string) (*docstore.Subscription, error) {
	return l.mirror.WatchDoc(ctx, collection, id)
}

func (l *Listener) Close() error {
	return l.reader.Close()
}
