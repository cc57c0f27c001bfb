package mirror

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/order"
)

// Orders is the live order view backing the admin dashboard.
type Orders struct {
	watcher    docstore.Watcher
	notify     Notifier
	collection string

	mu      sync.RWMutex
	orders  []order.Order
	loading bool
}

func NewOrders(watcher docstore.Watcher, notify Notifier, shopID string) *Orders {
	return &Orders{
		watcher:    watcher,
		notify:     notify,
		collection: order.Collection(shopID),
		loading:    true,
	}
}

// Run consumes order snapshots until the context ends.
func (o *Orders) Run(ctx context.Context) {
	run(ctx, o.watcher, o.collection, o.notify, "Could not load orders.", o.apply, o.markFailed)
}

func (o *Orders) markFailed() {
	o.mu.Lock()
	o.loading = false
	o.mu.Unlock()
}

func (o *Orders) apply(snap docstore.Snapshot) {
	orders := make([]order.Order, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var ord order.Order
		if err := doc.DataTo(&ord); err != nil {
			log.Printf("[Mirror] Skipping malformed order document %s: %v", doc.ID, err)
			continue
		}
		ord.ID = doc.ID
		orders = append(orders, ord)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})

	o.mu.Lock()
	o.orders = orders
	o.loading = false
	o.mu.Unlock()
}

// All returns every order, newest first.
func (o *Orders) All() []order.Order {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]order.Order, len(o.orders))
	copy(out, o.orders)
	return out
}

// Loading reports whether the first snapshot has not yet arrived.
func (o *Orders) Loading() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loading
}
