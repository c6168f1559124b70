package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config holds server configuration
type Config struct {
	Addr   string
	Store  Store
	Logger *slog.Logger
}

// NewRouter builds the HTTP handler serving every gateway endpoint
func NewRouter(store Store, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := NewHandler(store, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/repositories", h.listRepositories)
	r.Get("/api/tabledata/{id}", h.tableData)

	r.Post("/repository", h.createRepository)
	r.Delete("/repository/{id}", h.deleteRepository)

	r.Post("/createtable", h.createTable)
	r.Delete("/table/{id}", h.deleteTable)

	r.Post("/data", h.createRow)
	r.Put("/updatedatarecord/{id}", h.updateRow)
	r.Delete("/data/{id}", h.deleteRow)

	r.Post("/upload_excel", h.uploadFile)
	r.Get("/download/{id}", h.download)

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled
func Run(ctx context.Context, cfg Config) error {
	if cfg.Store == nil {
		return fmt.Errorf("server: store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg.Store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
