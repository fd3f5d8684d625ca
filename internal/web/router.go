package web

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/labstock/internal/baseurl"
	"github.com/erazemk/labstock/internal/scan"
	"github.com/erazemk/labstock/internal/store"
	webembed "github.com/erazemk/labstock/web"
)

// Options configures the page router.
type Options struct {
	Resolver        baseurl.Resolver
	Dispatcher      scan.Dispatcher
	DispatchWait    time.Duration
	DispatchTimeout time.Duration
	ActivationTTL   time.Duration
	Debounce        time.Duration
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sqlx.DB, opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	controller := scan.NewController(store.Items{DB: db}, opts.Dispatcher)
	if opts.DispatchTimeout > 0 {
		controller.Timeout = opts.DispatchTimeout
	}

	s := &Server{
		DB:           db,
		Templates:    templates,
		Resolver:     opts.Resolver,
		Controller:   controller,
		Registry:     scan.NewRegistry(controller, opts.ActivationTTL, opts.Debounce, 0),
		DispatchWait: opts.DispatchWait,
	}

	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/inventory", http.StatusSeeOther)
	})

	mux.HandleFunc("GET /inventory", s.InventoryPage)
	mux.HandleFunc("GET /inventory/export.xlsx", s.InventoryExport)

	mux.HandleFunc("GET /item/new", s.ItemNewPage)
	mux.HandleFunc("POST /item/new", s.ItemCreateSubmit)
	mux.HandleFunc("GET /item/{id}", noStore(s.ItemDetailPage))
	mux.HandleFunc("POST /item/{id}/notes", s.ItemNoteSubmit)
	mux.HandleFunc("POST /item/{id}/quantity", s.ItemQuantitySubmit)

	mux.HandleFunc("GET /scan", s.ScanPage)
	mux.HandleFunc("POST /scan", noStore(s.ScanSubmit))

	return mux, nil
}
