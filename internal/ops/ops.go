// Package ops serves the operational HTTP endpoint: health, version and
// request statistics. It runs on its own listener so the file server's raw
// TCP loop stays untouched, and it is meant for a trusted network only.
package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Jacoblightning/simplewebserver/internal/config"
	"github.com/Jacoblightning/simplewebserver/internal/stats"
)

// VersionInfo carries build identification into the /version endpoint.
type VersionInfo struct {
	Name      string
	Version   string
	Commit    string
	BuildDate string
}

// Server is the ops HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    *zap.Logger
	stats  *stats.Store
	info   VersionInfo
	addr   string
	guard  *rate.Limiter
}

// New builds the ops server with its routes registered.
func New(cfg config.OpsConfig, st *stats.Store, info VersionInfo, log *zap.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    log,
		stats:  st,
		info:   info,
		addr:   cfg.Addr(),
		guard:  rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}

	s.router.Use(chimw.RealIP)
	s.router.Use(RequestID)
	s.router.Use(s.logRequests)
	s.router.Use(s.throttle)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/version", s.handleVersion)
	s.router.Get("/stats", s.handleStats)

	return s
}

// Start runs the ops server until Shutdown. It returns
// http.ErrServerClosed after a graceful stop, like net/http.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("Ops endpoint listening", zap.String("addr", s.addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the ops server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
