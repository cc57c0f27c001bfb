package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process memory. It is the default backend in
// dev mode, the mirror behind the Kafka change feed, and the store the tests
// run against. It supports native watches.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	watchers    map[string][]*memoryWatcher
	nowFn       func() time.Time
}

type memoryWatcher struct {
	collection string
	docID      string // empty for collection watches
	sub        *Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		watchers:    make(map[string][]*memoryWatcher),
		nowFn:       time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (m *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(collection), nil
}

func (m *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.New().String()
	if err := m.Set(ctx, collection, id, data, false); err != nil {
		return "", err
	}
	return id, nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	now := m.nowFn()
	body, err := normalize(data, now)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.setLocked(collection, id, body, merge, now)
	notify := m.snapshotNotifications(collection, id)
	m.mu.Unlock()

	notify()
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	now := m.nowFn()
	body, err := normalize(fields, now)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, ok := m.collections[collection][id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.setLocked(collection, id, body, true, now)
	notify := m.snapshotNotifications(collection, id)
	m.mu.Unlock()

	notify()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	delete(m.collections[collection], id)
	notify := m.snapshotNotifications(collection, id)
	m.mu.Unlock()

	notify()
	return nil
}

func (m *MemoryStore) Batch() Batch {
	return &memoryBatch{store: m}
}

// Watch opens a live subscription on a collection. The current contents are
// delivered as the first snapshot.
func (m *MemoryStore) Watch(ctx context.Context, collection string) (*Subscription, error) {
	return m.watch(ctx, collection, "")
}

// WatchDoc opens a live subscription on a single document.
func (m *MemoryStore) WatchDoc(ctx context.Context, collection, id string) (*Subscription, error) {
	return m.watch(ctx, collection, id)
}

func (m *MemoryStore) watch(ctx context.Context, collection, docID string) (*Subscription, error) {
	w := &memoryWatcher{collection: collection, docID: docID}
	sub := newSubscription(func() { m.removeWatcher(w) })
	w.sub = sub

	// The initial snapshot goes out before the lock is released. Sending it
	// after would let a concurrent write deliver a newer snapshot first, which
	// the stale initial would then overwrite in the coalescing buffer.
	m.mu.Lock()
	m.watchers[collection] = append(m.watchers[collection], w)
	sub.send(m.snapshotFor(w))
	m.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

func (m *MemoryStore) removeWatcher(w *memoryWatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.watchers[w.collection]
	for i, cand := range list {
		if cand == w {
			m.watchers[w.collection] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// setLocked applies a write. Callers hold the write lock.
func (m *MemoryStore) setLocked(collection, id string, body map[string]any, merge bool, now time.Time) {
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Document)
	}
	if merge {
		if existing, ok := m.collections[collection][id]; ok {
			merged := copyData(existing.Data)
			for k, v := range body {
				merged[k] = v
			}
			body = merged
		}
	}
	m.collections[collection][id] = Document{ID: id, Data: body, UpdatedAt: now}
}

func (m *MemoryStore) listLocked(collection string) []Document {
	docs := make([]Document, 0, len(m.collections[collection]))
	for _, doc := range m.collections[collection] {
		docs = append(docs, cloneDoc(doc))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// snapshotNotifications builds the per-watcher deliveries for a change to one
// document while the lock is held, returning a closure that sends them after
// the lock is released.
func (m *MemoryStore) snapshotNotifications(collection, docID string) func() {
	type delivery struct {
		sub  *Subscription
		snap Snapshot
	}
	var deliveries []delivery
	for _, w := range m.watchers[collection] {
		if w.docID != "" && w.docID != docID {
			continue
		}
		deliveries = append(deliveries, delivery{w.sub, m.snapshotFor(w)})
	}
	return func() {
		for _, d := range deliveries {
			d.sub.send(d.snap)
		}
	}
}

func (m *MemoryStore) snapshotFor(w *memoryWatcher) Snapshot {
	if w.docID == "" {
		return Snapshot{Docs: m.listLocked(w.collection), Exists: true}
	}
	doc, ok := m.collections[w.collection][w.docID]
	if !ok {
		return Snapshot{Exists: false}
	}
	return Snapshot{Docs: []Document{cloneDoc(doc)}, Exists: true}
}

func cloneDoc(doc Document) Document {
	return Document{ID: doc.ID, Data: copyData(doc.Data), UpdatedAt: doc.UpdatedAt}
}

type batchOp struct {
	collection string
	id         string
	data       map[string]any // nil means delete
}

type memoryBatch struct {
	store *MemoryStore
	ops   []batchOp
}

func (b *memoryBatch) Set(collection, id string, data map[string]any) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id, data: data})
}

func (b *memoryBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{collection: collection, id: id})
}

// Commit applies every staged write under one lock acquisition. Bodies are
// normalized before the lock is taken so a malformed document aborts the whole
// batch with nothing applied.
func (b *memoryBatch) Commit(ctx context.Context) error {
	now := b.store.nowFn()

	normalized := make([]map[string]any, len(b.ops))
	for i, op := range b.ops {
		if op.data == nil {
			continue
		}
		body, err := normalize(op.data, now)
		if err != nil {
			return err
		}
		normalized[i] = body
	}

	b.store.mu.Lock()
	var notifies []func()
	for i, op := range b.ops {
		if op.data == nil {
			delete(b.store.collections[op.collection], op.id)
		} else {
			b.store.setLocked(op.collection, op.id, normalized[i], false, now)
		}
		notifies = append(notifies, b.store.snapshotNotifications(op.collection, op.id))
	}
	b.store.mu.Unlock()

	for _, notify := range notifies {
		notify()
	}
	return nil
}
