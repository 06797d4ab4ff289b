// Package httpapi exposes the query and indexing services over a JSON
// HTTP API. Routing uses the standard library mux with method-prefixed
// patterns; every response body is JSON, including errors.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Ports bundles the driving services the API exposes. Any of them may
// be nil; the routes that need a missing service answer 503 instead of
// disappearing, so clients can tell "unconfigured" from "wrong URL".
type Ports struct {
	Query driving.QueryService
	Index driving.IndexService
	Admin driving.AdminService
}

// Server serves the HTTP API.
type Server struct {
	ports *Ports
}

// NewServer creates the API server over the given services.
func NewServer(ports *Ports) *Server {
	if ports == nil {
		ports = &Ports{}
	}
	return &Server{ports: ports}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("POST /api/index", s.handleIndex)
	mux.HandleFunc("POST /api/reindex", s.handleReindex)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/documents", s.handleDocuments)
	mux.HandleFunc("GET /api/documents/{id...}", s.handleDocument)

	return logRequests(mux)
}

// Serve blocks serving the API on addr until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("API shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logRequests reports each request through the verbose logger.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
