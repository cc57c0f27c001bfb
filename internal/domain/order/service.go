package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/basket"
)

// Guard deduplicates checkout submissions. Acquire returns false when an
// equivalent request was accepted recently; Release frees the key after a
// failed placement so the shopper can retry.
type Guard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

// BasketSource supplies the basket to freeze and a way to stage its clearing
// on the placement batch.
type BasketSource interface {
	Get(ctx context.Context, identityID string) (basket.Basket, error)
	ClearDoc(b docstore.Batch, identityID string)
}

// Service places orders and manages their fulfilment status.
type Service struct {
	store      docstore.Store
	baskets    BasketSource
	guard      Guard
	policy     TransitionPolicy
	collection string
}

func NewService(store docstore.Store, baskets BasketSource, guard Guard, policy TransitionPolicy, shopID string) *Service {
	return &Service{
		store:      store,
		baskets:    baskets,
		guard:      guard,
		policy:     policy,
		collection: Collection(shopID),
	}
}

// Place freezes the shopper's basket into a new order and empties the basket,
// both in one atomic batch. On any failure nothing is written and the basket
// keeps its contents.
func (s *Service) Place(ctx context.Context, identityID string) (string, error) {
	if identityID == "" {
		return "", ErrEmptyOrUnauthenticated
	}

	b, err := s.baskets.Get(ctx, identityID)
	if err != nil {
		return "", fmt.Errorf("load basket: %w", err)
	}
	if len(b.Items) == 0 {
		return "", ErrEmptyOrUnauthenticated
	}

	key := requestKey(identityID, b)
	ok, err := s.guard.Acquire(ctx, key)
	if err != nil {
		// A broken guard must not block checkout.
		log.Printf("[Order] Idempotency guard unavailable: %v", err)
	} else if !ok {
		return "", ErrDuplicateRequest
	}

	orderID := uuid.New().String()
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

	batch := s.store.Batch()
	batch.Set(s.collection, orderID, map[string]any{
		"userId":          identityID,
		"items":           items,
		"totalAmount":     b.Total(),
		"status":          string(StatusPlaced),
		"orderDate":       docstore.ServerTimestamp,
		"customerDetails": map[string]any{"userId": identityID},
	})
	s.baskets.ClearDoc(batch, identityID)

	if err := batch.Commit(ctx); err != nil {
		s.guard.Release(ctx, key)
		return "", fmt.Errorf("commit order: %w", err)
	}

	log.Printf("[Order] Placed order %s for %s (%.2f)", orderID, identityID, b.Total())
	return orderID, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	doc, err := s.store.Get(ctx, s.collection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return orderFromDoc(doc)
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	docs, err := s.store.List(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]Order, 0, len(docs))
	for _, doc := range docs {
		o, err := orderFromDoc(doc)
		if err != nil {
			log.Printf("[Order] Skipping malformed document %s: %v", doc.ID, err)
			continue
		}
		orders = append(orders, o)
	}
	sortNewestFirst(orders)
	return orders, nil
}

// ListByUser returns one shopper's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, identityID string) ([]Order, error) {
	if identityID == "" {
		return nil, ErrEmptyOrUnauthenticated
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0)
	for _, o := range all {
		if o.UserID == identityID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

// UpdateStatus moves an order to a new fulfilment status, subject to the
// configured transition policy.
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.Allows(current.Status, to) {
		return fmt.Errorf("%w: %s to %s", ErrTransitionNotAllowed, current.Status, to)
	}

	if err := s.store.Update(ctx, s.collection, id, map[string]any{
		"status": string(to),
	}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("update status: %w", err)
	}

	log.Printf("[Order] Order %s: %s -> %s", id, current.Status, to)
	return nil
}

func orderFromDoc(doc docstore.Document) (Order, error) {
	var o Order
	if err := doc.DataTo(&o); err != nil {
		return Order{}, err
	}
	o.ID = doc.ID
	return o, nil
}

func sortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}

// requestKey fingerprints a checkout so an identical double submit hits the
// same idempotency key.
func requestKey(identityID string, b basket.Basket) string {
	key := "order:" + identityID
	for _, line := range b.Items {
		key += fmt.Sprintf(":%s=%d", line.ItemID, line.Quantity)
	}
	return key
}
