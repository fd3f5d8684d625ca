package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gosimple/slug"

	"github.com/erazemk/labstock/internal/baseurl"
	"github.com/erazemk/labstock/internal/identity"
	"github.com/erazemk/labstock/internal/label"
	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/printing"
)

// Cache lifetimes. A label is fully determined by its query, so it never
// changes; bare barcodes may follow a changed base URL.
const (
	labelCacheControl   = "public, max-age=31536000, immutable"
	barcodeCacheControl = "public, max-age=300"
)

// LabelHandler renders labels and barcodes.
type LabelHandler struct {
	Resolver baseurl.Resolver
}

// Label handles GET /api/label.
func (h *LabelHandler) Label(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		jsonError(w, http.StatusBadRequest, "missing id")
		return
	}

	base := h.Resolver.ResolveRequest(r)
	payload, err := identity.Encode(base, id, true)
	if err != nil {
		if errors.Is(err, identity.ErrNoOrigin) {
			slog.Warn("cannot resolve base URL for label", "host", r.Host)
			jsonError(w, http.StatusBadRequest, "cannot determine base URL")
			return
		}
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if q.Get("print") == "1" {
		h.printPage(w, r, q)
		return
	}

	renderer, err := label.RendererFor(q.Get("format"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := q.Get("name")
	artifact := label.Synthesize(payload, name, model.ParseStatus(q.Get("status")))
	if artifact.Failed() {
		slog.Warn("label barcode encoding failed", "item", id, "error", artifact.Err)
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, artifact); err != nil {
		slog.Error("failed to render label", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render label")
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Cache-Control", labelCacheControl)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, LabelFilename(name, id, renderer.Extension())))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write label response", "error", err)
	}
}

func (h *LabelHandler) printPage(w http.ResponseWriter, r *http.Request, q url.Values) {
	q.Del("print")
	src := (&url.URL{Path: "/api/label", RawQuery: q.Encode()}).String()

	var buf bytes.Buffer
	err := printing.Render(&buf, printing.Page{
		Title:  "Print Label",
		Src:    src,
		Width:  label.Width,
		Height: label.Height,
	})
	if err != nil {
		slog.Error("failed to render print page", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render print page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write print page", "error", err)
	}
}

// QR handles GET /api/qr.
func (h *LabelHandler) QR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var payload string
	switch {
	case q.Get("url") != "":
		u, err := url.Parse(q.Get("url"))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			jsonError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
			return
		}
		payload = u.String()
	case q.Get("id") != "":
		var err error
		payload, err = identity.Encode(h.Resolver.ResolveRequest(r), q.Get("id"), q.Get(identity.NotifyParam) == "1")
		if err != nil {
			if errors.Is(err, identity.ErrNoOrigin) {
				jsonError(w, http.StatusBadRequest, "cannot determine base URL")
				return
			}
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
	default:
		jsonError(w, http.StatusBadRequest, "missing id or url")
		return
	}

	format := q.Get("format")
	contentType := "image/svg+xml"
	if format == label.FormatPNG {
		contentType = "image/png"
	} else if format != "" && format != label.FormatSVG {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	var buf bytes.Buffer
	err := label.RenderBarcode(&buf, payload, format, 512)
	if errors.Is(err, label.ErrEncoding) {
		slog.Warn("barcode encoding failed", "error", err)
	} else if err != nil {
		slog.Error("failed to render barcode", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render barcode")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", barcodeCacheControl)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write barcode response", "error", err)
	}
}

// LabelFilename returns a download filename for an item's label.
func LabelFilename(name, id, ext string) string {
	base := slug.Make(name)
	if base == "" {
		base = slug.Make(id)
	}
	if base == "" {
		base = "item"
	}
	return base + "-label." + ext
}
