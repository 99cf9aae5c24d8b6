// Package api exposes the conversion pipelines over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/wudi/pdf2text/config"
	"github.com/wudi/pdf2text/extract"
	"github.com/wudi/pdf2text/observability"
	"github.com/wudi/pdf2text/pdf"
)

// Service name and version reported by the root endpoint.
const (
	ServiceName = "pdf2text"
	Version     = "0.2.0"
)

// Server routes conversion requests to the two extractors.
type Server struct {
	cfg      config.Config
	standard extract.Extractor
	model    extract.Extractor
	logger   observability.Logger

	// pageCount is a seam for tests; defaults to the pdf package.
	pageCount func(*pdf.Source) (int, error)
}

// NewServer wires the shared extractor instances into an HTTP surface. The
// extractors are process-lifetime singletons; the server never rebuilds
// them per request.
func NewServer(cfg config.Config, standard, model extract.Extractor, logger observability.Logger) *Server {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Server{
		cfg:       cfg,
		standard:  standard,
		model:     model,
		logger:    logger,
		pageCount: pdf.PageCount,
	}
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.recoverer)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(corsMiddleware(s.cfg.CORSOrigins))
	}

	r.Post("/api/v1/pdf/convert", s.handleConvert(s.standard, false))
	r.Post("/api/v2/pdf/convert", s.handleConvert(s.model, true))
	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleRoot)
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", observability.String("addr", s.cfg.ListenAddr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// recoverer is the outermost boundary: unexpected panics become a generic
// 500 with the detail kept in the log only. The response body stays JSON,
// which chi's stock Recoverer does not guarantee.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("unhandled panic in request handler",
					observability.String("path", r.URL.Path),
					observability.String("request_id", chimiddleware.GetReqID(r.Context())),
					observability.String("panic", toString(rec)))
				writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware answers browser clients for the configured origins. "*"
// allows every origin; the matched request origin is always echoed back.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}
			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func toString(v interface{}) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the " + ServiceName + " API",
		"version": Version,
	})
}
