package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/labstock/internal/api"
	"github.com/erazemk/labstock/internal/baseurl"
	"github.com/erazemk/labstock/internal/db"
	"github.com/erazemk/labstock/internal/notify"
	"github.com/erazemk/labstock/internal/store"
	"github.com/erazemk/labstock/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the inventory web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DB)

	transport, err := notify.NewTransport(cfg.Notify.Channel, cfg.Notify.Email(), cfg.Notify.WebhookURL)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(transport, store.Journal{DB: database})
	if dispatcher.Configured() {
		slog.Info("notifications enabled", "channel", dispatcher.Channel())
	} else {
		slog.Warn("notifications not configured", "channel", dispatcher.Channel())
	}

	resolver := baseurl.New(cfg.BaseURL)
	if cfg.BaseURL == "" {
		slog.Warn("BASE_URL not set, deriving label origin from request headers")
	}

	apiRouter := api.NewRouter(api.Deps{
		DB:         database,
		Resolver:   resolver,
		Dispatcher: dispatcher,
	})
	webRouter, err := web.NewRouter(database, web.Options{
		Resolver:        resolver,
		Dispatcher:      dispatcher,
		DispatchWait:    cfg.Scan.DispatchWait.Duration,
		DispatchTimeout: cfg.Scan.DispatchTimeout.Duration,
		ActivationTTL:   cfg.Scan.ActivationTTL.Duration,
		Debounce:        cfg.Scan.Debounce.Duration,
	})
	if err != nil {
		return err
	}

	// Combine: API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	slog.Info("server stopped, closing database")
	return nil
}
