package feed

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
)

// Publisher decorates a docstore.Store so that every successful write also
// emits a change record. The write commits first; publication failures are
// logged, not surfaced, since the store remains the source of truth and the
// mirror catches up on the next change.
type Publisher struct {
	inner    docstore.Store
	producer *Producer
}

func NewPublisher(inner docstore.Store, producer *Producer) *Publisher {
	return &Publisher{inner: inner, producer: producer}
}

func (p *Publisher) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	return p.inner.Get(ctx, collection, id)
}

func (p *Publisher) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	return p.inner.List(ctx, collection)
}

func (p *Publisher) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id, err := p.inner.Add(ctx, collection, data)
	if err != nil {
		return "", err
	}
	p.publishSet(ctx, collection, id)
	return id, nil
}

func (p *Publisher) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	if err := p.inner.Set(ctx, collection, id, data, merge); err != nil {
		return err
	}
	p.publishSet(ctx, collection, id)
	return nil
}

func (p *Publisher) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := p.inner.Update(ctx, collection, id, fields); err != nil {
		return err
	}
	p.publishSet(ctx, collection, id)
	return nil
}

func (p *Publisher) Delete(ctx context.Context, collection, id string) error {
	if err := p.inner.Delete(ctx, collection, id); err != nil {
		return err
	}
	p.publish(ctx, ChangeRecord{Collection: collection, DocID: id, Op: OpDelete, At: time.Now()})
	return nil
}

func (p *Publisher) Batch() docstore.Batch {
	return &publisherBatch{pub: p, inner: p.inner.Batch()}
}

// publishSet reads the post-write document back so the record carries the
// full body, matching the whole-document semantics subscribers expect.
func (p *Publisher) publishSet(ctx context.Context, collection, id string) {
	doc, err := p.inner.Get(ctx, collection, id)
	if err != nil {
		log.Printf("[Feed] Read-back of %s/%s failed: %v", collection, id, err)
		return
	}
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		log.Printf("[Feed] Encode of %s/%s failed: %v", collection, id, err)
		return
	}
	p.publish(ctx, ChangeRecord{
		Collection: collection,
		DocID:      id,
		Op:         OpSet,
		Data:       raw,
		At:         doc.UpdatedAt,
	})
}

func (p *Publisher) publish(ctx context.Context, records ...ChangeRecord) {
	if err := p.producer.Publish(ctx, records...); err != nil {
		log.Printf("[Feed] Publish failed: %v", err)
	}
}

type stagedWrite struct {
	collection string
	id         string
	deleted    bool
}

type publisherBatch struct {
	pub   *Publisher
	inner docstore.Batch
	ops   []stagedWrite
}

func (b *publisherBatch) Set(collection, id string, data map[string]any) {
	b.inner.Set(collection, id, data)
	b.ops = append(b.ops, stagedWrite{collection: collection, id: id})
}

func (b *publisherBatch) Delete(collection, id string) {
	b.inner.Delete(collection, id)
	b.ops = append(b.ops, stagedWrite{collection: collection, id: id, deleted: true})
}

func (b *publisherBatch) Commit(ctx context.Context) error {
	if err := b.inner.Commit(ctx); err != nil {
		return err
	}
	for _, op := range b.ops {
		if op.deleted {
			b.pub.publish(ctx, ChangeRecord{Collection: op.collection, DocID: op.id, Op: OpDelete, At: time.Now()})
			continue
		}
		b.pub.publishSet(ctx, op.collection, op.id)
	}
	return nil
}
