package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/labstock/internal/baseurl"
	"github.com/erazemk/labstock/internal/identity"
	"github.com/erazemk/labstock/internal/notify"
	"github.com/erazemk/labstock/internal/store"
)

// NotifyHandler handles manual notification requests.
type NotifyHandler struct {
	DB         *sqlx.DB
	Resolver   baseurl.Resolver
	Dispatcher *notify.Dispatcher
}

// Notify handles POST /api/notify.
func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req notify.Request
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ItemID != "" && identity.ValidID(req.ItemID) {
		if base := h.Resolver.ResolveRequest(r); base != "" {
			req.Link = base + identity.Path(req.ItemID, false)
		}
		if h.DB != nil {
			item, err := store.GetItem(r.Context(), h.DB, req.ItemID)
			if err != nil {
				slog.Error("failed to get item", "error", err)
			} else if item != nil {
				if req.ItemName == "" {
					req.ItemName = item.Name
				}
				req.PurchaseLink = item.PurchaseLink
			}
		}
	}

	res, err := h.Dispatcher.Dispatch(r.Context(), req)
	var te *notify.TransportError
	switch {
	case errors.Is(err, notify.ErrMissingInput):
		jsonError(w, http.StatusBadRequest, "itemId or itemName is required")
		return
	case errors.Is(err, notify.ErrNotConfigured):
		jsonError(w, http.StatusServiceUnavailable, "notifications are not configured")
		return
	case errors.As(err, &te):
		jsonError(w, http.StatusBadGateway, "failed to send notification")
		return
	case err != nil:
		slog.Error("failed to dispatch notification", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to send notification")
		return
	}

	jsonResponse(w, http.StatusOK, res)
}
