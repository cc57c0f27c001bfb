package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdi-Suufi/sweetshop/internal/docstore/docstoretest"
)

// ============================================================
// Validation
// ============================================================

func TestInputValidate(t *testing.T) {
	valid := Input{
		Name:        "Fudge",
		Description: "Soft vanilla fudge",
		Price:       2.50,
		Stock:       10,
		ImageURL:    "https://example.com/fudge.jpg",
	}

	tests := []struct {
		name    string
		mutate  func(*Input)
		wantErr bool
	}{
		{"valid input", func(in *Input) {}, false},
		{"empty name", func(in *Input) { in.Name = "" }, true},
		{"whitespace name", func(in *Input) { in.Name = "   " }, true},
		{"empty description", func(in *Input) { in.Description = "" }, true},
		{"zero price", func(in *Input) { in.Price = 0 }, true},
		{"negative price", func(in *Input) { in.Price = -1.50 }, true},
		{"negative stock", func(in *Input) { in.Stock = -1 }, true},
		{"fractional stock", func(in *Input) { in.Stock = 2.5 }, true},
		{"zero stock", func(in *Input) { in.Stock = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInputValidateTrims(t *testing.T) {
	in := Input{
		Name:        "  Fudge  ",
		Description: " Soft vanilla fudge ",
		Price:       2.50,
		Stock:       3,
		ImageURL:    " https://example.com/fudge.jpg ",
	}

	item, err := in.Validate()
	require.NoError(t, err)

	assert.Equal(t, "Fudge", item.Name)
	assert.Equal(t, "Soft vanilla fudge", item.Description)
	assert.Equal(t, "https://example.com/fudge.jpg", item.ImageURL)
	assert.Equal(t, 3, item.Stock)
}

// ============================================================
// Save
// ============================================================

func TestSaveCreatesNewItem(t *testing.T) {
	store := docstoretest.NewStore()
	svc := NewService(store, "sweetshop")
	ctx := context.Background()

	id, err := svc.Save(ctx, "", Input{
		Name:        "Bonbon",
		Description: "Strawberry bonbon",
		Price:       1.20,
		Stock:       25,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	item, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bonbon", item.Name)
	assert.Equal(t, 1.20, item.Price)
	assert.Equal(t, 25, item.Stock)
	assert.False(t, item.CreatedAt.IsZero(), "new items carry a creation timestamp")
}

func TestSavePatchesExistingItem(t *testing.T) {
	store := docstoretest.NewStore()
	svc := NewService(store, "sweetshop")
	ctx := context.Background()

	id, err := svc.Save(ctx, "", Input{
		Name:        "Bonbon",
		Description: "Strawberry bonbon",
		Price:       1.20,
		Stock:       25,
	})
	require.NoError(t, err)

	created, err := svc.Get(ctx, id)
	require.NoError(t, err)

	returnedID, err := svc.Save(ctx, id, Input{
		Name:        "Bonbon",
		Description: "Strawberry bonbon",
		Price:       1.50,
		Stock:       20,
	})
	require.NoError(t, err)
	assert.Equal(t, id, returnedID)

	updated, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1.50, updated.Price)
	assert.Equal(t, 20, updated.Stock)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt, "patch must not touch createdAt")
}

func TestSaveRejectsInvalidInput(t *testing.T) {
	store := docstoretest.NewStore()
	svc := NewService(store, "sweetshop")

	_, err := svc.Save(context.Background(), "", Input{Name: "", Description: "x", Price: 1, Stock: 1})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, store.SetCalls, "invalid input must not reach the store")
}

func TestSaveUnknownItem(t *testing.T) {
	store := docstoretest.NewStore()
	svc := NewService(store, "sweetshop")

	_, err := svc.Save(context.Background(), "missing", Input{
		Name:        "Bonbon",
		Description: "Strawberry bonbon",
		Price:       1.20,
		Stock:       25,
	})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// ============================================================
// Delete
// ============================================================

func TestDeleteRequiresConfirmation(t *testing.T) {
	store := docstoretest.NewStore()
	svc := NewService(store, "sweetshop")
	ctx := context.Background()

	id, err := svc.Save(ctx, "", Input{
		Name:        "Bonbon",
		Description: "Strawberry bonbon",
		Price:       1.20,
		Stock:       25,
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, id, false)
	assert.ErrorIs(t, err, ErrConfirmRequired)

	_, err = svc.Get(ctx, id)
	assert.NoError(t, err, "unconfirmed delete must leave the item in place")

	require.NoError(t, svc.Delete(ctx, id, true))

	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDeleteUnknownItem(t *testing.T) {
	store := docstoretest.NewStore()
	svc := NewService(store, "sweetshop")

	err := svc.Delete(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// ============================================================
// List
// ============================================================

func TestListSkipsMalformedDocuments(t *testing.T) {
	store := docstoretest.NewStore()
	svc := NewService(store, "sweetshop")
	ctx := context.Background()

	_, err := svc.Save(ctx, "", Input{
		Name:        "Bonbon",
		Description: "Strawberry bonbon",
		Price:       1.20,
		Stock:       25,
	})
	require.NoError(t, err)

	// A document whose price is not numeric cannot decode into an Item.
	require.NoError(t, store.Set(ctx, Collection("sweetshop"), "broken", map[string]any{
		"name":  "Broken",
		"price": "not a number",
	}, false))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Bonbon", items[0].Name)
}

func TestGetUnknownItem(t *testing.T) {
	store := docstoretest.NewStore()
	svc := NewService(store, "sweetshop")

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrItemNotFound))
}
