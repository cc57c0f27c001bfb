package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/catalog"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func TestCatalogMirrorFollowsStore(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewCatalog(store, nil, "sweetshop")
	go m.Run(ctx)

	require.Eventually(t, func() bool { return !m.Loading() }, waitFor, tick,
		"initial snapshot marks the mirror loaded")
	assert.Empty(t, m.List())

	id, err := store.Add(ctx, catalog.Collection("sweetshop"), map[string]any{
		"name":        "Fudge",
		"description": "Soft vanilla fudge",
		"price":       2.50,
		"stock":       3,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := m.Item(id)
		return ok
	}, waitFor, tick)

	item, _ := m.Item(id)
	assert.Equal(t, "Fudge", item.Name)
	assert.Equal(t, 2.50, item.Price)
	assert.Equal(t, 3, item.Stock)

	require.NoError(t, store.Delete(ctx, catalog.Collection("sweetshop"), id))

	require.Eventually(t, func() bool {
		_, ok := m.Item(id)
		return !ok
	}, waitFor, tick, "deletes replace the whole view")
}

func TestCatalogMirrorSizeHook(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sizes := make(chan int, 16)
	m := NewCatalog(store, nil, "sweetshop")
	m.OnSize = func(n int) { sizes <- n }
	go m.Run(ctx)

	_, err := store.Add(ctx, catalog.Collection("sweetshop"), map[string]any{
		"name":        "Fudge",
		"description": "Soft vanilla fudge",
		"price":       2.50,
		"stock":       3,
	})
	require.NoError(t, err)

	deadline := time.After(waitFor)
	for {
		select {
		case n := <-sizes:
			if n == 1 {
				return
			}
		case <-deadline:
			t.Fatal("size hook never saw the added item")
		}
	}
}

// flakyWatcher fails its first Watch calls before delegating to the store.
type flakyWatcher struct {
	store    *docstore.MemoryStore
	failures int
}

func (f *flakyWatcher) Watch(ctx context.Context, collection string) (*docstore.Subscription, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("feed unavailable")
	}
	return f.store.Watch(ctx, collection)
}

func (f *flakyWatcher) WatchDoc(ctx context.Context, collection, id string) (*docstore.Subscription, error) {
	return f.store.WatchDoc(ctx, collection, id)
}

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

func TestCatalogMirrorRetriesAndNotifiesOnFailure(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := store.Add(ctx, catalog.Collection("sweetshop"), map[string]any{
		"name":        "Fudge",
		"description": "Soft vanilla fudge",
		"price":       2.50,
		"stock":       3,
	})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	m := NewCatalog(&flakyWatcher{store: store, failures: 1}, notifier, "sweetshop")
	go m.Run(ctx)

	// The failed watch surfaces a notification and clears the loading flag
	// even though no snapshot has arrived yet.
	require.Eventually(t, func() bool { return notifier.count() > 0 }, waitFor, tick)
	assert.False(t, m.Loading())
	assert.Empty(t, m.List(), "no data yet, but not loading either")

	// The retry succeeds and the catalog comes through.
	require.Eventually(t, func() bool { return len(m.List()) == 1 }, 5*time.Second, tick)
}

func TestOrdersMirrorNewestFirst(t *testing.T) {
	store := docstore.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	col := "shops/sweetshop/orders"
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	require.NoError(t, store.Set(ctx, col, "a", map[string]any{
		"userId":      "shopper-1",
		"totalAmount": 5.0,
		"status":      "placed",
		"orderDate":   older,
	}, false))
	require.NoError(t, store.Set(ctx, col, "b", map[string]any{
		"userId":      "shopper-2",
		"totalAmount": 7.0,
		"status":      "placed",
		"orderDate":   newer,
	}, false))

	m := NewOrders(store, nil, "sweetshop")
	go m.Run(ctx)

	require.Eventually(t, func() bool { return len(m.All()) == 2 }, waitFor, tick)

	all := m.All()
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
	assert.False(t, m.Loading())
}
