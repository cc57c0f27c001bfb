package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Abdi-Suufi/sweetshop/internal/api/middleware"
	"github.com/Abdi-Suufi/sweetshop/internal/docstore"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/basket"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/catalog"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/order"
	"github.com/Abdi-Suufi/sweetshop/internal/metrics"
	"github.com/Abdi-Suufi/sweetshop/internal/mirror"
	"github.com/Abdi-Suufi/sweetshop/internal/notification"
)

type Handlers struct {
	catalogMirror *mirror.Catalog
	ordersMirror  *mirror.Orders
	catalogSvc    *catalog.Service
	basketSvc     *basket.Service
	orderSvc      *order.Service
	relay         *notification.Relay
	metrics       *metrics.Registry
}

func NewHandlers(catalogMirror *mirror.Catalog, ordersMirror *mirror.Orders, catalogSvc *catalog.Service, basketSvc *basket.Service, orderSvc *order.Service, relay *notification.Relay, reg *metrics.Registry) *Handlers {
	return &Handlers{
		catalogMirror: catalogMirror,
		ordersMirror:  ordersMirror,
		catalogSvc:    catalogSvc,
		basketSvc:     basketSvc,
		orderSvc:      orderSvc,
		relay:         relay,
		metrics:       reg,
	}
}

// Catalog Handlers

func (h *Handlers) GetItems(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"items":   itemsWithIDs(h.catalogMirror.List()),
		"loading": h.catalogMirror.Loading(),
	})
}

func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/items/")
	item, ok := h.catalogMirror.Item(id)
	if !ok {
		respondJSONError(w, "Item not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, itemWithID(item))
}

// Basket Handlers

type basketResponse struct {
	Items     []basket.Line `json:"items"`
	Total     float64       `json:"total"`
	ItemCount int           `json:"itemCount"`
}

func (h *Handlers) GetBasket(w http.ResponseWriter, r *http.Request) {
	b, err := h.basketSvc.Get(r.Context(), middleware.GetIdentityID(r.Context()))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toBasketResponse(b))
}

func (h *Handlers) AddToBasket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SweetID string `json:"sweetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	b, err := h.basketSvc.Add(r.Context(), middleware.GetIdentityID(r.Context()), req.SweetID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.metrics.BasketMutations.Inc()
	respondJSON(w, http.StatusOK, toBasketResponse(b))
}

func (h *Handlers) SetBasketQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/basket/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	b, err := h.basketSvc.SetQuantity(r.Context(), middleware.GetIdentityID(r.Context()), itemID, req.Quantity)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.metrics.BasketMutations.Inc()
	respondJSON(w, http.StatusOK, toBasketResponse(b))
}

func (h *Handlers) RemoveFromBasket(w http.ResponseWriter, r *http.Request) {
	itemID := extractPathParam(r.URL.Path, "/basket/items/")

	b, err := h.basketSvc.Remove(r.Context(), middleware.GetIdentityID(r.Context()), itemID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.metrics.BasketMutations.Inc()
	respondJSON(w, http.StatusOK, toBasketResponse(b))
}

// Order Handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	identityID := middleware.GetIdentityID(r.Context())

	orderID, err := h.orderSvc.Place(r.Context(), identityID)
	if err != nil {
		h.relay.Error("There was an issue placing your order.")
		h.respondDomainError(w, err)
		return
	}

	placed, err := h.orderSvc.Get(r.Context(), orderID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.metrics.OrdersPlaced.Inc()
	h.metrics.OrderTotal.Observe(placed.TotalAmount)
	h.relay.Success("Order placed successfully!")
	respondJSON(w, http.StatusCreated, orderWithID(placed))
}

func (h *Handlers) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderSvc.ListByUser(r.Context(), middleware.GetIdentityID(r.Context()))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponses(orders))
}

// Notification Handlers

func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.relay.Recent())
}

func (h *Handlers) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/notifications/")
	h.relay.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
}

// Health

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"loading": h.catalogMirror.Loading(),
	})
}

// Error mapping

// respondDomainError translates domain errors into HTTP responses. Store
// failures also surface through the relay so the storefront can toast them.
func (h *Handlers) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, basket.ErrUnauthenticated):
		respondJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, order.ErrEmptyOrUnauthenticated):
		respondJSONError(w, "Your basket is empty or you are not signed in.", http.StatusBadRequest)
	case errors.Is(err, basket.ErrItemNotFound),
		errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, basket.ErrOutOfStock),
		errors.Is(err, basket.ErrStockLimitReached),
		errors.Is(err, basket.ErrStockExceeded),
		errors.Is(err, order.ErrDuplicateRequest),
		errors.Is(err, order.ErrTransitionNotAllowed):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, catalog.ErrValidation),
		errors.Is(err, catalog.ErrConfirmRequired),
		errors.Is(err, order.ErrInvalidStatus):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, docstore.ErrUnavailable):
		h.metrics.StoreWriteFailures.Inc()
		h.relay.Error("The shop is temporarily unavailable.")
		respondJSONError(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func toBasketResponse(b basket.Basket) basketResponse {
	return basketResponse{
		Items:     b.Items,
		Total:     b.Total(),
		ItemCount: b.ItemCount(),
	}
}

// itemWithID flattens an item plus its document id for responses.
func itemWithID(item catalog.Item) map[string]any {
	return map[string]any{
		"id":          item.ID,
		"name":        item.Name,
		"description": item.Description,
		"price":       item.Price,
		"stock":       item.Stock,
		"imageUrl":    item.ImageURL,
		"createdAt":   item.CreatedAt,
	}
}

func itemsWithIDs(items []catalog.Item) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, itemWithID(item))
	}
	return out
}

func orderWithID(o order.Order) map[string]any {
	return map[string]any{
		"id":              o.ID,
		"userId":          o.UserID,
		"items":           o.Items,
		"totalAmount":     o.TotalAmount,
		"status":          o.Status,
		"orderDate":       o.OrderDate,
		"customerDetails": o.CustomerDetails,
	}
}

func toOrderResponses(orders []order.Order) []map[string]any {
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderWithID(o))
	}
	return out
}
