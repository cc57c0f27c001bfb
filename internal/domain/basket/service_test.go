package basket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore/docstoretest"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/catalog"
)

type fakeCatalog map[string]catalog.Item

func (f fakeCatalog) Item(id string) (catalog.Item, bool) {
	item, ok := f[id]
	return item, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"fudge":  {ID: "fudge", Name: "Fudge", Price: 2.50, Stock: 3},
		"bonbon": {ID: "bonbon", Name: "Bonbon", Price: 1.20, Stock: 10},
		"toffee": {ID: "toffee", Name: "Toffee", Price: 3.00, Stock: 0},
	}
}

func newTestService() (*Service, *docstoretest.Store) {
	store := docstoretest.NewStore()
	return NewService(store, testCatalog(), "sweetshop"), store
}

// ============================================================
// Totals
// ============================================================

func TestBasketTotal(t *testing.T) {
	b := Basket{Items: []Line{
		{ItemID: "fudge", Price: 2.50, Quantity: 3},
		{ItemID: "bonbon", Price: 1.20, Quantity: 5},
	}}

	assert.InDelta(t, 13.50, b.Total(), 0.0001)
	assert.Equal(t, 8, b.ItemCount())
}

func TestEmptyBasketTotal(t *testing.T) {
	var b Basket
	assert.Equal(t, 0.0, b.Total())
	assert.Equal(t, 0, b.ItemCount())
}

// ============================================================
// Get
// ============================================================

func TestGetMissingBasketIsEmpty(t *testing.T) {
	svc, _ := newTestService()

	b, err := svc.Get(context.Background(), "shopper-1")
	require.NoError(t, err)
	assert.Empty(t, b.Items)
}

func TestGetRequiresIdentity(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// ============================================================
// Add
// ============================================================

func TestAddNewLine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	b, err := svc.Add(ctx, "shopper-1", "fudge")
	require.NoError(t, err)
	require.Len(t, b.Items, 1)
	assert.Equal(t, "fudge", b.Items[0].ItemID)
	assert.Equal(t, "Fudge", b.Items[0].Name)
	assert.Equal(t, 2.50, b.Items[0].Price)
	assert.Equal(t, 1, b.Items[0].Quantity)

	// The basket survives a reload.
	reloaded, err := svc.Get(ctx, "shopper-1")
	require.NoError(t, err)
	assert.Equal(t, b.Items, reloaded.Items)
}

func TestAddIncrementsExistingLine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "shopper-1", "fudge")
	require.NoError(t, err)
	b, err := svc.Add(ctx, "shopper-1", "fudge")
	require.NoError(t, err)

	require.Len(t, b.Items, 1)
	assert.Equal(t, 2, b.Items[0].Quantity)
}

func TestAddStopsAtStockLimit(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	// fudge has stock 3.
	for i := 0; i < 3; i++ {
		_, err := svc.Add(ctx, "shopper-1", "fudge")
		require.NoError(t, err)
	}

	_, err := svc.Add(ctx, "shopper-1", "fudge")
	assert.ErrorIs(t, err, ErrStockLimitReached)

	b, err := svc.Get(ctx, "shopper-1")
	require.NoError(t, err)
	assert.Equal(t, 3, b.Items[0].Quantity, "failed add must not change the basket")
}

func TestAddOutOfStockItem(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.Add(context.Background(), "shopper-1", "toffee")
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Empty(t, store.SetCalls)
}

func TestAddUnknownItem(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), "shopper-1", "nougat")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAddRequiresIdentity(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), "", "fudge")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// ============================================================
// SetQuantity
// ============================================================

func TestSetQuantity(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "shopper-1", "bonbon")
	require.NoError(t, err)

	b, err := svc.SetQuantity(ctx, "shopper-1", "bonbon", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, b.Items[0].Quantity)
	assert.InDelta(t, 6.0, b.Total(), 0.0001)
}

func TestSetQuantityAboveStock(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "shopper-1", "fudge")
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, "shopper-1", "fudge", 4)
	assert.ErrorIs(t, err, ErrStockExceeded)

	b, err := svc.Get(ctx, "shopper-1")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Items[0].Quantity)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "shopper-1", "fudge")
	require.NoError(t, err)

	b, err := svc.SetQuantity(ctx, "shopper-1", "fudge", 0)
	require.NoError(t, err)
	assert.Empty(t, b.Items)
}

func TestSetQuantityZeroOnRemovedCatalogItem(t *testing.T) {
	view := testCatalog()
	store := docstoretest.NewStore()
	svc := NewService(store, view, "sweetshop")
	ctx := context.Background()

	_, err := svc.Add(ctx, "shopper-1", "fudge")
	require.NoError(t, err)

	// The item leaves the catalog while it sits in the basket. A stale
	// reference fails even when the requested quantity would remove it.
	delete(view, "fudge")

	_, err = svc.SetQuantity(ctx, "shopper-1", "fudge", 0)
	assert.ErrorIs(t, err, ErrItemNotFound)

	b, err := svc.Get(ctx, "shopper-1")
	require.NoError(t, err)
	require.Len(t, b.Items, 1)
	assert.Equal(t, 1, b.Items[0].Quantity, "failed update must not change the basket")
}

func TestSetQuantityUnknownLine(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.SetQuantity(context.Background(), "shopper-1", "fudge", 2)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// ============================================================
// Remove
// ============================================================

func TestRemoveLine(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "shopper-1", "fudge")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "shopper-1", "bonbon")
	require.NoError(t, err)

	b, err := svc.Remove(ctx, "shopper-1", "fudge")
	require.NoError(t, err)
	require.Len(t, b.Items, 1)
	assert.Equal(t, "bonbon", b.Items[0].ItemID)
}

func TestRemoveAbsentLineIsNoop(t *testing.T) {
	svc, store := newTestService()

	b, err := svc.Remove(context.Background(), "shopper-1", "fudge")
	require.NoError(t, err)
	assert.Empty(t, b.Items)
	assert.Empty(t, store.SetCalls, "removing an absent line writes nothing")
}

// ============================================================
// Isolation
// ============================================================

func TestBasketsAreIsolatedPerIdentity(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Add(ctx, "shopper-1", "fudge")
	require.NoError(t, err)

	b, err := svc.Get(ctx, "shopper-2")
	require.NoError(t, err)
	assert.Empty(t, b.Items)
}
