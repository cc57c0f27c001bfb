// Package docstoretest provides a store double for unit tests: a real
// in-memory store wrapped with call recording and error injection.
package docstoretest

import (
	"context"
	"sync"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
)

// Store wraps a MemoryStore, records writes, and fails on demand.
type Store struct {
	*docstore.MemoryStore

	mu sync.Mutex

	// Errors to inject. When set, the corresponding operation fails without
	// touching the underlying store.
	SetErr    error
	UpdateErr error
	DeleteErr error
	CommitErr error

	SetCalls    []WriteCall
	UpdateCalls []WriteCall
	DeleteCalls []WriteCall
	Commits     int
}

// WriteCall records the target of a write.
type WriteCall struct {
	Collection string
	ID         string
	Data       map[string]any
}

func NewStore() *Store {
	return &Store{MemoryStore: docstore.NewMemoryStore()}
}

func (s *Store) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	s.mu.Lock()
	s.SetCalls = append(s.SetCalls, WriteCall{collection, id, data})
	err := s.SetErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Set(ctx, collection, id, data, merge)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	s.UpdateCalls = append(s.UpdateCalls, WriteCall{collection, id, fields})
	err := s.UpdateErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Update(ctx, collection, id, fields)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	s.DeleteCalls = append(s.DeleteCalls, WriteCall{Collection: collection, ID: id})
	err := s.DeleteErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, collection, id)
}

func (s *Store) Batch() docstore.Batch {
	return &batch{store: s, inner: s.MemoryStore.Batch()}
}

type batch struct {
	store *Store
	inner docstore.Batch
}

func (b *batch) Set(collection, id string, data map[string]any) {
	b.inner.Set(collection, id, data)
}

func (b *batch) Delete(collection, id string) {
	b.inner.Delete(collection, id)
}

// Commit fails with CommitErr before anything is applied, mimicking a batch
// rejected by the backend.
func (b *batch) Commit(ctx context.Context) error {
	b.store.mu.Lock()
	b.store.Commits++
	err := b.store.CommitErr
	b.store.mu.Unlock()
	if err != nil {
		return err
	}
	return b.inner.Commit(ctx)
}
