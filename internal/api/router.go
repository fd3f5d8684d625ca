package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/labstock/internal/baseurl"
	"github.com/erazemk/labstock/internal/notify"
)

// Deps holds what the API handlers share.
type Deps struct {
	DB         *sqlx.DB
	Resolver   baseurl.Resolver
	Dispatcher *notify.Dispatcher
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{DB: d.DB}
	inventoryHandler := &InventoryHandler{DB: d.DB}
	labelHandler := &LabelHandler{Resolver: d.Resolver}
	notifyHandler := &NotifyHandler{DB: d.DB, Resolver: d.Resolver, Dispatcher: d.Dispatcher}

	// Labels and barcodes.
	mux.HandleFunc("GET /api/label", labelHandler.Label)
	mux.HandleFunc("GET /api/qr", labelHandler.QR)

	// Notifications.
	mux.HandleFunc("POST /api/notify", notifyHandler.Notify)

	// Items.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("POST /api/items/{id}/notes", itemsHandler.AddNote)
	mux.HandleFunc("PUT /api/items/{id}/quantity", inventoryHandler.SetQuantity)
	mux.HandleFunc("POST /api/items/{id}/adjust", inventoryHandler.Adjust)

	return mux
}
