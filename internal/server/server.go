// Package server accepts raw TCP connections and answers one HTTP GET per
// connection: rate limit check first, then request parse, path resolution
// and the file response. The connection is always closed afterwards.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Jacoblightning/simplewebserver/internal/config"
	"github.com/Jacoblightning/simplewebserver/internal/limiter"
	"github.com/Jacoblightning/simplewebserver/internal/resolve"
	"github.com/Jacoblightning/simplewebserver/internal/stats"
)

// Server owns the listener and the per-connection workers.
type Server struct {
	cfg      config.ServerConfig
	resolver *resolve.Resolver
	limiter  *limiter.Limiter
	stats    *stats.Store
	log      *zap.Logger

	pool *slotPool
	ln   net.Listener
	wg   sync.WaitGroup

	done       chan struct{}
	closeOnce  sync.Once
	inShutdown atomic.Bool
}

// New assembles a server from its parts. Nothing is bound until Listen.
func New(cfg config.ServerConfig, rsv *resolve.Resolver, lim *limiter.Limiter, st *stats.Store, log *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		resolver: rsv,
		limiter:  lim,
		stats:    st,
		log:      log,
		pool:     newSlotPool(cfg.MaxConns),
		done:     make(chan struct{}),
	}
}

// Listen binds the configured address. Call before Serve; with port 0 the
// kernel picks a free port, visible through Addr.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr(), err)
	}
	s.ln = ln
	return nil
}

// Addr reports the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until Shutdown closes the listener. It returns
// nil on graceful shutdown.
func (s *Server) Serve() error {
	if s.ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	s.log.Info("Server listening",
		zap.String("addr", s.ln.Addr().String()),
		zap.String("root", s.resolver.Root()),
		zap.Int64("ratelimit", s.limiter.Limit()))

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if s.inShutdown.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.stats.ConnOpened()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.stats.ConnClosed()
			defer conn.Close()
			s.handleConn(conn)
		}()
	}
}

// Start is Listen followed by Serve.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown stops accepting and waits for in-flight connections, up to the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	s.inShutdown.Store(true)
	s.closeOnce.Do(func() { close(s.done) })

	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
	}

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
