package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/labstock/internal/export"
	"github.com/erazemk/labstock/internal/identity"
	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/scan"
	"github.com/erazemk/labstock/internal/store"
	"github.com/erazemk/labstock/internal/validate"
)

// ActivationParam carries the activation token of a notify view.
const ActivationParam = "activation"

// pendingRefresh is the reload interval of a view still waiting on dispatch.
const pendingRefresh = 2

type itemRow struct {
	model.Item
	Status model.Status
}

// InventoryPage handles GET /inventory.
func (s *Server) InventoryPage(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if !model.ValidKind(kind) {
		kind = ""
	}

	items, err := store.ListItems(r.Context(), s.DB, kind)
	if err != nil {
		slog.Error("failed to list items", "error", err)
	}

	rows := make([]itemRow, 0, len(items))
	low := 0
	for _, item := range items {
		row := itemRow{Item: item, Status: item.Status()}
		if row.Status == model.StatusLow {
			low++
		}
		rows = append(rows, row)
	}

	s.Templates.Render(w, "inventory.html", &struct {
		PageData
		Items []itemRow
		Kind  string
		Low   int
	}{
		PageData: PageData{Title: "Inventory"},
		Items:    rows,
		Kind:     kind,
		Low:      low,
	})
}

// InventoryExport handles GET /inventory/export.xlsx.
func (s *Server) InventoryExport(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), s.DB, "")
	if err != nil {
		slog.Error("failed to list items", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="inventory-`+time.Now().Format("2006-01-02")+`.xlsx"`)
	if err := export.WriteInventory(w, items); err != nil {
		slog.Error("failed to export inventory", "error", err)
	}
}

type itemForm struct {
	Name         string
	Kind         string
	Location     string
	Quantity     string
	MinQuantity  string
	PurchaseLink string
	Notes        string
}

// ItemNewPage handles GET /item/new.
func (s *Server) ItemNewPage(w http.ResponseWriter, r *http.Request) {
	s.renderItemForm(w, http.StatusOK, itemForm{Kind: model.KindConsumable}, "")
}

func (s *Server) renderItemForm(w http.ResponseWriter, status int, form itemForm, errMsg string) {
	s.Templates.RenderStatus(w, status, "item_new.html", &struct {
		PageData
		Form itemForm
	}{
		PageData: PageData{Title: "New item", Error: errMsg},
		Form:     form,
	})
}

// ItemCreateSubmit handles POST /item/new.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	form := itemForm{
		Name:         strings.TrimSpace(r.FormValue("name")),
		Kind:         r.FormValue("kind"),
		Location:     strings.TrimSpace(r.FormValue("location")),
		Quantity:     strings.TrimSpace(r.FormValue("quantity")),
		MinQuantity:  strings.TrimSpace(r.FormValue("min_quantity")),
		PurchaseLink: strings.TrimSpace(r.FormValue("purchase_link")),
		Notes:        strings.TrimSpace(r.FormValue("notes")),
	}

	in := model.NewItem{
		Name:         form.Name,
		Kind:         form.Kind,
		Location:     form.Location,
		PurchaseLink: form.PurchaseLink,
		Notes:        form.Notes,
	}
	var err error
	if in.Quantity, err = optionalInt(form.Quantity); err != nil {
		s.renderItemForm(w, http.StatusBadRequest, form, "quantity must be a whole number")
		return
	}
	if in.MinQuantity, err = optionalInt(form.MinQuantity); err != nil {
		s.renderItemForm(w, http.StatusBadRequest, form, "min_quantity must be a whole number")
		return
	}

	if err := validate.Struct(in); err != nil {
		s.renderItemForm(w, http.StatusBadRequest, form, err.Error())
		return
	}

	item, err := store.CreateItem(r.Context(), s.DB, in)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		s.renderItemForm(w, http.StatusInternalServerError, form, "failed to create item")
		return
	}

	slog.Info("item created", "item", item.ID, "name", item.Name)
	http.Redirect(w, r, identity.Path(item.ID, false), http.StatusSeeOther)
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

type itemDetailData struct {
	PageData
	Item             *model.Item
	Status           model.Status
	Notes            []model.Note
	LastNotification *model.Notification
	Indicator        scan.Indicator
	LabelURL         string
	PrintURL         string
	PNGURL           string
}

// ItemDetailPage handles GET /item/{id}. With the notify intent the first
// request is redirected to a tokenized URL so reloads reuse the same
// activation; the tokenized view loads the item and triggers at most one
// notification.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()

	if !identity.NotifyIntent(q.Get(identity.NotifyParam)) {
		item, err := s.Controller.Activate(id, false, "").Run(r.Context())
		s.renderItem(w, r, item, err, scan.IndicatorNone)
		return
	}

	token := q.Get(ActivationParam)
	if token == "" {
		if !identity.ValidID(id) {
			s.renderNotFound(w)
			return
		}
		link := ""
		if base := s.Resolver.ResolveRequest(r); base != "" {
			link = base + identity.Path(id, false)
		}
		a, reused := s.Registry.Activate(id, clientKey(r), link)
		if reused {
			slog.Info("repeat scan collapsed", "item", id)
		}
		http.Redirect(w, r, identity.Path(id, true)+"&"+ActivationParam+"="+url.QueryEscape(a.Token), http.StatusSeeOther)
		return
	}

	a, ok := s.Registry.Lookup(token)
	if !ok || a.ItemID != id {
		http.Redirect(w, r, identity.Path(id, false), http.StatusSeeOther)
		return
	}

	item, err := a.Run(r.Context())
	if err != nil {
		s.renderItem(w, r, nil, err, scan.IndicatorNone)
		return
	}

	wait := s.DispatchWait
	if wait <= 0 {
		wait = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()
	snap := a.Wait(ctx)

	if snap.Outcome == scan.DispatchFailed {
		slog.Warn("scan notification failed", "item", id, "error", snap.Err)
	}
	s.renderItem(w, r, item, nil, snap.Indicator)
}

func (s *Server) renderItem(w http.ResponseWriter, r *http.Request, item *model.Item, err error, indicator scan.Indicator) {
	if errors.Is(err, scan.ErrNotFound) || (err == nil && item == nil) {
		s.renderNotFound(w)
		return
	}
	if err != nil {
		slog.Error("failed to load item", "error", err)
		s.renderNotFound(w)
		return
	}

	notes, err := store.ListNotes(r.Context(), s.DB, item.ID)
	if err != nil {
		slog.Error("failed to list notes", "error", err)
	}
	last, err := store.LastNotification(r.Context(), s.DB, item.ID)
	if err != nil {
		slog.Error("failed to get last notification", "error", err)
	}

	status := item.Status()
	labelQuery := url.Values{"id": {item.ID}, "name": {item.Name}}
	if status != model.StatusNone {
		labelQuery.Set("status", string(status))
	}

	data := itemDetailData{
		PageData:         PageData{Title: item.Name},
		Item:             item,
		Status:           status,
		Notes:            notes,
		LastNotification: last,
		Indicator:        indicator,
		LabelURL:         "/api/label?" + labelQuery.Encode(),
		PNGURL:           "/api/label?" + labelQuery.Encode() + "&format=png",
		PrintURL:         "/api/label?" + labelQuery.Encode() + "&print=1",
	}
	if indicator == scan.IndicatorPending {
		data.Refresh = pendingRefresh
	}
	s.Templates.Render(w, "item_detail.html", &data)
}

func (s *Server) renderNotFound(w http.ResponseWriter) {
	s.Templates.RenderStatus(w, http.StatusNotFound, "not_found.html", &PageData{Title: "Not found"})
}

// ItemNoteSubmit handles POST /item/{id}/notes.
func (s *Server) ItemNoteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body := strings.TrimSpace(r.FormValue("body"))

	if body != "" {
		if _, err := store.AddNote(r.Context(), s.DB, id, body); errors.Is(err, store.ErrItemNotFound) {
			s.renderNotFound(w)
			return
		} else if err != nil {
			slog.Error("failed to add note", "error", err)
			http.Error(w, "failed to add note", http.StatusInternalServerError)
			return
		}
	}
	http.Redirect(w, r, identity.Path(id, false), http.StatusSeeOther)
}

// ItemQuantitySubmit handles POST /item/{id}/quantity.
func (s *Server) ItemQuantitySubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil || quantity < 0 {
		http.Error(w, "invalid quantity", http.StatusBadRequest)
		return
	}

	err = store.SetQuantity(r.Context(), s.DB, id, quantity)
	switch {
	case errors.Is(err, store.ErrItemNotFound):
		s.renderNotFound(w)
		return
	case errors.Is(err, store.ErrNotConsumable):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		slog.Error("failed to set quantity", "error", err)
		http.Error(w, "failed to set quantity", http.StatusInternalServerError)
		return
	}

	slog.Info("quantity set", "item", id, "quantity", quantity)
	http.Redirect(w, r, identity.Path(id, false), http.StatusSeeOther)
}
