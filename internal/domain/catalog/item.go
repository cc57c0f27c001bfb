package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrItemNotFound    = errors.New("catalog item not found")
	ErrValidation      = errors.New("invalid product submission")
	ErrConfirmRequired = errors.New("deletion requires confirmation")
)

// Item is one sweet in the catalog.
type Item struct {
	ID          string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Input is an admin product submission. Price and Stock arrive as whatever
// the form sent; Validate re-coerces and range-checks them regardless of any
// checking the form already did.
type Input struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       float64 `json:"stock"`
	ImageURL    string  `json:"imageUrl"`
}

// Validate trims and checks the submission, returning the clean item fields.
func (in Input) Validate() (Item, error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)

	if name == "" {
		return Item{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if description == "" {
		return Item{}, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if in.Price <= 0 {
		return Item{}, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if in.Stock < 0 {
		return Item{}, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}
	if in.Stock != float64(int(in.Stock)) {
		return Item{}, fmt.Errorf("%w: stock must be a whole number", ErrValidation)
	}

	return Item{
		Name:        name,
		Description: description,
		Price:       in.Price,
		Stock:       int(in.Stock),
		ImageURL:    strings.TrimSpace(in.ImageURL),
	}, nil
}

// Collection returns the catalog collection path for a shop namespace.
func Collection(shopID string) string {
	return "shops/" + shopID + "/sweets"
}
