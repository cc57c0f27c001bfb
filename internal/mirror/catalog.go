package mirror

import (
	"context"
	"log"
	"sync"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/catalog"
)

// Catalog is the live product view backing the storefront and basket stock
// checks. It satisfies basket.CatalogView.
type Catalog struct {
	watcher    docstore.Watcher
	notify     Notifier
	collection string

	// OnSize, when set before Run, is called with the catalog size after
	// every applied snapshot.
	OnSize func(n int)

	mu      sync.RWMutex
	items   map[string]catalog.Item
	order   []string
	loading bool
}

func NewCatalog(watcher docstore.Watcher, notify Notifier, shopID string) *Catalog {
	return &Catalog{
		watcher:    watcher,
		notify:     notify,
		collection: catalog.Collection(shopID),
		items:      map[string]catalog.Item{},
		loading:    true,
	}
}

// Run consumes catalog snapshots until the context ends.
func (c *Catalog) Run(ctx context.Context) {
	run(ctx, c.watcher, c.collection, c.notify, "Could not load products.", c.apply, c.markFailed)
}

func (c *Catalog) markFailed() {
	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
}

func (c *Catalog) apply(snap docstore.Snapshot) {
	items := make(map[string]catalog.Item, len(snap.Docs))
	order := make([]string, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var item catalog.Item
		if err := doc.DataTo(&item); err != nil {
			log.Printf("[Mirror] Skipping malformed catalog document %s: %v", doc.ID, err)
			continue
		}
		item.ID = doc.ID
		items[doc.ID] = item
		order = append(order, doc.ID)
	}

	c.mu.Lock()
	c.items = items
	c.order = order
	c.loading = false
	c.mu.Unlock()

	if c.OnSize != nil {
		c.OnSize(len(items))
	}
}

// Item returns one catalog item by id.
func (c *Catalog) Item(id string) (catalog.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	return item, ok
}

// List returns the catalog in snapshot order.
func (c *Catalog) List() []catalog.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]catalog.Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// Loading reports whether the first snapshot has not yet arrived.
func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}
