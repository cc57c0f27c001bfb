package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Abdi-Suufi/sweetshop/internal/domain/catalog"
	"github.com/Abdi-Suufi/sweetshop/internal/domain/order"
)

// Admin Handlers

func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.catalogSvc.Save(r.Context(), "", in)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.relay.Success("Product added.")
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/items/")

	var in catalog.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.catalogSvc.Save(r.Context(), id, in); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.relay.Success("Product updated.")
	respondJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/items/")
	confirmed := r.URL.Query().Get("confirm") == "true"

	if err := h.catalogSvc.Delete(r.Context(), id, confirmed); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.relay.Success("Product deleted.")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"orders":  toOrderResponses(h.ordersMirror.All()),
		"loading": h.ordersMirror.Loading(),
	})
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/admin/orders/")
	id := strings.TrimSuffix(path, "/status")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.orderSvc.UpdateStatus(r.Context(), id, order.Status(req.Status)); err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.relay.Success("Order status updated.")
	respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}
