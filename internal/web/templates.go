package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	"github.com/yuin/goldmark"

	"github.com/erazemk/labstock/internal/baseurl"
	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/scan"
	webembed "github.com/erazemk/labstock/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// markdown renders note bodies. Raw HTML in the source is dropped.
var markdown = goldmark.New()

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown": func(src string) template.HTML {
			var buf bytes.Buffer
			if err := markdown.Convert([]byte(src), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(src))
			}
			return template.HTML(buf.String())
		},
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return humanize.Time(t)
		},
		"qty": func(n *int) string {
			if n == nil {
				return "-"
			}
			return humanize.Comma(int64(*n))
		},
		"statusClass": func(s model.Status) string {
			switch s {
			case model.StatusLow:
				return "badge badge-low"
			case model.StatusOK:
				return "badge badge-ok"
			default:
				return "badge"
			}
		},
		"kindName": func(kind string) string {
			switch kind {
			case model.KindConsumable:
				return "Consumable"
			case model.KindTool:
				return "Tool"
			default:
				return kind
			}
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"inventory.html",
		"item_new.html",
		"item_detail.html",
		"not_found.html",
		"scan.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data and a 200 status.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	Error   string
	Success string
	// Refresh, when positive, reloads the page after that many seconds.
	Refresh int
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB           *sqlx.DB
	Templates    *Templates
	Resolver     baseurl.Resolver
	Controller   *scan.Controller
	Registry     *scan.Registry
	DispatchWait time.Duration
}
