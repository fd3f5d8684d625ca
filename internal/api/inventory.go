package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/labstock/internal/store"
)

// InventoryHandler handles stock level endpoints.
type InventoryHandler struct {
	DB *sqlx.DB
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// SetQuantity handles PUT /api/items/{id}/quantity.
func (h *InventoryHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "quantity is required and must not be negative")
		return
	}

	id := r.PathValue("id")
	err := store.SetQuantity(r.Context(), h.DB, id, *req.Quantity)
	switch {
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, store.ErrNotConsumable):
		jsonError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("failed to set quantity", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to set quantity")
		return
	}

	slog.Info("quantity set", "item", id, "quantity", *req.Quantity)
	jsonResponse(w, http.StatusOK, map[string]int{"quantity": *req.Quantity})
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

// Adjust handles POST /api/items/{id}/adjust. A negative delta consumes stock.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Delta == 0 {
		jsonError(w, http.StatusBadRequest, "delta must be non-zero")
		return
	}

	id := r.PathValue("id")
	err := store.AdjustQuantity(r.Context(), h.DB, id, req.Delta)
	switch {
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, store.ErrNotConsumable), errors.Is(err, store.ErrInsufficientStock):
		jsonError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("failed to adjust quantity", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to adjust quantity")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil || item == nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	slog.Info("quantity adjusted", "item", id, "delta", req.Delta)
	jsonResponse(w, http.StatusOK, map[string]any{"quantity": item.QuantityValue(), "status": item.Status()})
}
