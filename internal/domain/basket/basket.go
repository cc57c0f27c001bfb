// Package basket holds each shopper's basket as a single document keyed by
// identity. Every mutation clamps quantities against live catalog stock and
// persists the whole basket in one write, so a reload always shows exactly
// what was stored.
package basket

import (
	"errors"
	"time"
)

var (
	ErrUnauthenticated   = errors.New("no identity for basket")
	ErrItemNotFound      = errors.New("item not in basket")
	ErrOutOfStock        = errors.New("item is out of stock")
	ErrStockLimitReached = errors.New("no more stock available for item")
	ErrStockExceeded     = errors.New("requested quantity exceeds stock")
)

// Line is one item entry in a basket. Name, price and image are denormalised
// from the catalog at the time the line was added.
type Line struct {
	ItemID   string  `json:"sweetId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// Basket is a shopper's full basket document.
type Basket struct {
	Items     []Line    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Total returns the basket value, computed from the stored lines at read
// time rather than persisted.
func (b Basket) Total() float64 {
	var total float64
	for _, line := range b.Items {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

// ItemCount returns the number of units across all lines.
func (b Basket) ItemCount() int {
	var count int
	for _, line := range b.Items {
		count += line.Quantity
	}
	return count
}

func (b Basket) find(itemID string) int {
	for i, line := range b.Items {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}

// Collection returns the baskets collection path for a shop namespace.
func Collection(shopID string) string {
	return "shops/" + shopID + "/baskets"
}
