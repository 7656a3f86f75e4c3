// Package api provides the stbconv REST API server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/internal/cache"
	"github.com/FocuswithJustin/stbconv/internal/logging"
	"github.com/FocuswithJustin/stbconv/internal/server"
)

// Version is reported by /health. The command sets it at startup.
var Version = "dev"

// Server serves conversions over HTTP.
type Server struct {
	cfg     Config
	hub     *Hub
	metrics *Metrics
	started time.Time

	// keyed by BLAKE3 digest of the request body; nil when caching is off
	scans    *cache.LRU[string, ScanResult]
	versions *cache.LRU[string, string]
}

// New creates a server. The websocket hub must be running (see Run) for /ws
// clients to receive events.
func New(cfg Config) *Server {
	s := &Server{
		cfg:     cfg,
		hub:     NewHub(),
		metrics: NewMetrics(),
		started: time.Now(),
	}
	if cfg.Cache.MaxEntries > 0 {
		s.scans = cache.New[string, ScanResult](cfg.Cache)
		s.versions = cache.New[string, string](cfg.Cache)
		s.metrics.watchCache("scan", s.scans.Stats)
		s.metrics.watchCache("detect", s.versions.Stats)
	}
	return s
}

// Hub returns the server's websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	return server.Chain(s.routes(),
		logging.CombinedMiddleware,
		func(h http.Handler) http.Handler {
			return server.CORS(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, h)
		},
		server.SecurityHeaders,
		func(h http.Handler) http.Handler { return server.BodyLimit(s.cfg.MaxBodyBytes, h) },
	)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /convert/forward", s.handleConvert(report.Forward))
	mux.HandleFunc("POST /convert/reverse", s.handleConvert(report.Reverse))
	mux.HandleFunc("POST /detect", s.handleDetect)
	mux.HandleFunc("POST /scan", s.handleScan)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return mux
}

// Run serves on the configured port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logging.ServerStartup("rest_api", "http", s.cfg.Port,
		"max_body_bytes", s.cfg.MaxBodyBytes,
		"allowed_origins", s.cfg.AllowedOrigins)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
