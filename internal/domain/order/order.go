// Package order records checkouts and drives the fulfilment status machine.
// An order freezes the basket lines and total at placement time; later catalog
// price changes never alter a placed order.
package order

import (
	"errors"
	"time"

	"github.com/Abdi-Suufi/sweetshop/internal/domain/basket"
)

var (
	ErrEmptyOrUnauthenticated = errors.New("basket is empty or no identity established")
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidStatus          = errors.New("invalid order status")
	ErrTransitionNotAllowed   = errors.New("status transition not allowed")
	ErrDuplicateRequest       = errors.New("duplicate order request")
)

// Status is an order's fulfilment state.
type Status string

const (
	StatusPlaced     Status = "placed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPlaced, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// forwardRank orders the fulfilment pipeline for the forward-only policy.
var forwardRank = map[Status]int{
	StatusPlaced:     0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// TransitionPolicy decides which status changes an admin may apply.
type TransitionPolicy int

const (
	// PolicyUnrestricted lets an admin set any valid status at any time.
	PolicyUnrestricted TransitionPolicy = iota
	// PolicyForwardOnly permits only forward pipeline steps, plus
	// cancellation from any non-terminal state.
	PolicyForwardOnly
)

// Allows reports whether the policy permits moving from one status to another.
// Under the unrestricted policy re-selecting the current status is a harmless
// no-op, not an error.
func (p TransitionPolicy) Allows(from, to Status) bool {
	if !to.Valid() {
		return false
	}
	if p == PolicyUnrestricted {
		return true
	}
	if from == to || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return forwardRank[to] > forwardRank[from]
}

// CustomerDetails identifies who placed the order.
type CustomerDetails struct {
	UserID string `json:"userId"`
}

// Order is one placed order document.
type Order struct {
	ID              string          `json:"-"`
	UserID          string          `json:"userId"`
	Items           []basket.Line   `json:"items"`
	TotalAmount     float64         `json:"totalAmount"`
	Status          Status          `json:"status"`
	OrderDate       time.Time       `json:"orderDate,omitempty"`
	CustomerDetails CustomerDetails `json:"customerDetails"`
}

// Collection returns the orders collection path for a shop namespace.
func Collection(shopID string) string {
	return "shops/" + shopID + "/orders"
}
