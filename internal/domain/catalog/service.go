package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
)

// Service manages the catalog collection.
type Service struct {
	store      docstore.Store
	collection string
}

func NewService(store docstore.Store, shopID string) *Service {
	return &Service{
		store:      store,
		collection: Collection(shopID),
	}
}

// Get returns one catalog item.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	doc, err := s.store.Get(ctx, s.collection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return itemFromDoc(doc)
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	docs, err := s.store.List(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items := make([]Item, 0, len(docs))
	for _, doc := range docs {
		item, err := itemFromDoc(doc)
		if err != nil {
			log.Printf("[Catalog] Skipping malformed document %s: %v", doc.ID, err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Save validates a submission and persists it. With an id it patches the
// existing item; without one it creates a new item stamped with the store's
// clock. The returned id identifies the saved item either way.
func (s *Service) Save(ctx context.Context, id string, in Input) (string, error) {
	item, err := in.Validate()
	if err != nil {
		return "", err
	}

	fields := map[string]any{
		"name":        item.Name,
		"description": item.Description,
		"price":       item.Price,
		"stock":       item.Stock,
		"imageUrl":    item.ImageURL,
	}

	if id != "" {
		if err := s.store.Update(ctx, s.collection, id, fields); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return "", ErrItemNotFound
			}
			return "", fmt.Errorf("update item: %w", err)
		}
		log.Printf("[Catalog] Updated item %s", id)
		return id, nil
	}

	fields["createdAt"] = docstore.ServerTimestamp
	newID, err := s.store.Add(ctx, s.collection, fields)
	if err != nil {
		return "", fmt.Errorf("add item: %w", err)
	}
	log.Printf("[Catalog] Created item %s (%s)", newID, item.Name)
	return newID, nil
}

// Delete removes an item. It refuses to act unless the caller explicitly
// confirmed the deletion.
func (s *Service) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmRequired
	}
	// The store treats deleting an absent document as success, so existence
	// has to be checked first for unknown ids to surface.
	if _, err := s.store.Get(ctx, s.collection, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("delete item: %w", err)
	}
	if err := s.store.Delete(ctx, s.collection, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	log.Printf("[Catalog] Deleted item %s", id)
	return nil
}

func itemFromDoc(doc docstore.Document) (Item, error) {
	var item Item
	if err := doc.DataTo(&item); err != nil {
		return Item{}, err
	}
	item.ID = doc.ID
	return item, nil
}
