package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/store"
	"github.com/erazemk/labstock/internal/validate"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	DB *sqlx.DB
}

// itemView is an item with its derived status.
type itemView struct {
	model.Item
	Status model.Status `json:"status,omitempty"`
}

func viewOf(item model.Item) itemView {
	return itemView{Item: item, Status: item.Status()}
}

type itemDetail struct {
	itemView
	Notes         []model.Note         `json:"notes"`
	Notifications []model.Notification `json:"notifications"`
}

type addNoteRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != "" && !model.ValidKind(kind) {
		jsonError(w, http.StatusBadRequest, "invalid kind")
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, kind)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, viewOf(item))
	}
	jsonResponse(w, http.StatusOK, views)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.NewItem
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	if err := validate.Struct(req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "item", item.ID, "name", item.Name)
	jsonResponse(w, http.StatusCreated, viewOf(*item))
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	notes, err := store.ListNotes(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to list notes", "error", err)
	}
	notifications, err := store.ListNotifications(r.Context(), h.DB, id, 10)
	if err != nil {
		slog.Error("failed to list notifications", "error", err)
	}
	if notes == nil {
		notes = []model.Note{}
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	jsonResponse(w, http.StatusOK, itemDetail{
		itemView:      viewOf(*item),
		Notes:         notes,
		Notifications: notifications,
	})
}

// AddNote handles POST /api/items/{id}/notes.
func (h *ItemsHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req addNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Body = strings.TrimSpace(req.Body)

	if err := validate.Struct(req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := store.AddNote(r.Context(), h.DB, r.PathValue("id"), req.Body)
	if errors.Is(err, store.ErrItemNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		slog.Error("failed to add note", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to add note")
		return
	}

	jsonResponse(w, http.StatusCreated, note)
}
