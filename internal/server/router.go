// Package server exposes the dashboard analysis over HTTP. Every request
// parses its own upload, runs one analysis and keeps nothing afterwards.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/ingest"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/KaramelBytes/salesdash/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options are the server-side defaults; request form fields override them.
type Options struct {
	Ingest ingest.Options
	// Analysis.DescribeAll applies to dynamic requests; fixed requests describe numeric columns only.
	Analysis analysis.Options
	// Fixed selects the literal-header mapping when a request names no mode.
	Fixed bool
	// Mapping is the default dynamic mapping; empty roles are guessed from headers.
	Mapping        analysis.ColumnMapping
	Chart          render.ChartOptions
	MaxUploadBytes int64
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Ingest:         ingest.DefaultOptions(),
		Analysis:       analysis.DefaultOptions(),
		Mapping:        analysis.ColumnMapping{},
		Chart:          render.DefaultChartOptions(),
		MaxUploadBytes: 32 << 20,
	}
}

// NewRouter returns the chi router serving the API.
func NewRouter(opt Options) http.Handler {
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = DefaultOptions().MaxUploadBytes
	}
	h := &handler{opt: opt}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth)
		r.Post("/columns", h.Columns)
		r.Post("/analyze", h.Analyze)
		r.Post("/charts/{name}", h.Chart)
	})
	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Logger().Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}
	logging.Logger().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
