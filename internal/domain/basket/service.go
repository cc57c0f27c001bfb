package basket

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/catalog"
)

// CatalogView supplies current stock and pricing for basket mutations. The
// catalog mirror satisfies it.
type CatalogView interface {
	Item(id string) (catalog.Item, bool)
}

// Service manages basket documents. The document id is the identity id, so
// each shopper owns exactly one basket.
type Service struct {
	store      docstore.Store
	catalog    CatalogView
	collection string
}

func NewService(store docstore.Store, view CatalogView, shopID string) *Service {
	return &Service{
		store:      store,
		catalog:    view,
		collection: Collection(shopID),
	}
}

// Get returns the shopper's basket. A shopper with no stored basket gets an
// empty one.
func (s *Service) Get(ctx context.Context, identityID string) (Basket, error) {
	if identityID == "" {
		return Basket{}, ErrUnauthenticated
	}

	doc, err := s.store.Get(ctx, s.collection, identityID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Basket{Items: []Line{}}, nil
		}
		return Basket{}, fmt.Errorf("get basket: %w", err)
	}

	var b Basket
	if err := doc.DataTo(&b); err != nil {
		return Basket{}, fmt.Errorf("decode basket: %w", err)
	}
	if b.Items == nil {
		b.Items = []Line{}
	}
	return b, nil
}

// Add puts one unit of an item into the basket, clamped against live stock.
func (s *Service) Add(ctx context.Context, identityID, itemID string) (Basket, error) {
	if identityID == "" {
		return Basket{}, ErrUnauthenticated
	}

	item, ok := s.catalog.Item(itemID)
	if !ok {
		return Basket{}, ErrItemNotFound
	}
	if item.Stock <= 0 {
		return Basket{}, ErrOutOfStock
	}

	b, err := s.Get(ctx, identityID)
	if err != nil {
		return Basket{}, err
	}

	if i := b.find(itemID); i >= 0 {
		if b.Items[i].Quantity >= item.Stock {
			return Basket{}, ErrStockLimitReached
		}
		b.Items[i].Quantity++
	} else {
		b.Items = append(b.Items, Line{
			ItemID:   itemID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: 1,
			ImageURL: item.ImageURL,
		})
	}

	if err := s.persist(ctx, identityID, b); err != nil {
		return Basket{}, err
	}
	log.Printf("[Basket] Added item %s for %s", itemID, identityID)
	return b, nil
}

// SetQuantity sets an existing line to an exact quantity. Zero or less removes
// the line.
func (s *Service) SetQuantity(ctx context.Context, identityID, itemID string, quantity int) (Basket, error) {
	if identityID == "" {
		return Basket{}, ErrUnauthenticated
	}

	// Stale references fail before any clamping, even to zero.
	item, ok := s.catalog.Item(itemID)
	if !ok {
		return Basket{}, ErrItemNotFound
	}

	if quantity <= 0 {
		return s.Remove(ctx, identityID, itemID)
	}

	b, err := s.Get(ctx, identityID)
	if err != nil {
		return Basket{}, err
	}

	i := b.find(itemID)
	if i < 0 {
		return Basket{}, ErrItemNotFound
	}

	if quantity > item.Stock {
		return Basket{}, ErrStockExceeded
	}
	b.Items[i].Quantity = quantity

	if err := s.persist(ctx, identityID, b); err != nil {
		return Basket{}, err
	}
	return b, nil
}

// Remove drops a line from the basket. Removing an absent line is a no-op.
func (s *Service) Remove(ctx context.Context, identityID, itemID string) (Basket, error) {
	if identityID == "" {
		return Basket{}, ErrUnauthenticated
	}

	b, err := s.Get(ctx, identityID)
	if err != nil {
		return Basket{}, err
	}

	i := b.find(itemID)
	if i < 0 {
		return b, nil
	}
	b.Items = append(b.Items[:i], b.Items[i+1:]...)

	if err := s.persist(ctx, identityID, b); err != nil {
		return Basket{}, err
	}
	log.Printf("[Basket] Removed item %s for %s", itemID, identityID)
	return b, nil
}

// ClearDoc stages an empty basket write on a batch. Order placement uses this
// so the basket empties in the same transaction that records the order.
func (s *Service) ClearDoc(batch docstore.Batch, identityID string) {
	batch.Set(s.collection, identityID, map[string]any{
		"items":     []any{},
		"updatedAt": docstore.ServerTimestamp,
	})
}

func (s *Service) persist(ctx context.Context, identityID string, b Basket) error {
	items := make([]any, 0, len(b.Items))
	for _, line := range b.Items {
		items = append(items, map[string]any{
			"sweetId":  line.ItemID,
			"name":     line.Name,
			"price":    line.Price,
			"quantity": line.Quantity,
			"imageUrl": line.ImageURL,
		})
	}

	err := s.store.Set(ctx, s.collection, identityID, map[string]any{
		"items":     items,
		"updatedAt": docstore.ServerTimestamp,
	}, true)
	if err != nil {
		return fmt.Errorf("persist basket: %w", err)
	}
	return nil
}
