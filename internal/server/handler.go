package server

import (
	"context"
	"mime"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Jacoblightning/simplewebserver/internal/httpwire"
	"github.com/Jacoblightning/simplewebserver/internal/resolve"
)

// handleConn serves exactly one request and returns; the caller closes the
// connection.
func (s *Server) handleConn(conn net.Conn) {
	release, ok := s.pool.acquire(s.done)
	if !ok {
		return
	}
	defer release()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}

	ctx := context.Background()
	if s.cfg.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
	}

	s.handle(ctx, conn, clientKey(conn.RemoteAddr()))
}

func (s *Server) handle(ctx context.Context, conn net.Conn, key string) {
	start := time.Now()

	d, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.log.Error("Rate limit store unavailable", zap.String("client", key), zap.Error(err))
	}
	if !d.Allowed {
		if d.Count > 0 {
			s.stats.RecordBan()
			s.log.Warn("Rate limiting client",
				zap.String("client", key),
				zap.Int64("requests", d.Count),
				zap.Duration("penalty", d.RetryAfter))
		} else {
			s.log.Debug("Rejecting request from rate-limited client",
				zap.String("client", key),
				zap.Duration("left", d.RetryAfter))
		}
		s.writeRateLimited(conn, d.RetryAfter)
		return
	}
	if d.Count == 1 {
		s.log.Debug("Request count reset", zap.String("client", key))
	}

	req, err := httpwire.ParseRequest(conn, s.cfg.MaxRequestBytes)
	if err != nil {
		s.log.Warn("Malformed request", zap.String("client", key), zap.Error(err))
		s.writeError(conn, 400)
		return
	}
	if req.Method != "GET" {
		s.log.Warn("Rejected non-GET request",
			zap.String("client", key),
			zap.String("method", req.Method))
		s.writeError(conn, 400)
		return
	}

	res := s.resolver.Resolve(req.RawPath)
	switch res.Outcome {
	case resolve.Found:
		s.serveFile(conn, key, req.RawPath, res.Path, start)
	case resolve.Blacklisted:
		s.log.Warn("Blacklisted file requested",
			zap.String("client", key),
			zap.String("path", req.RawPath))
		s.writeError(conn, 404)
	case resolve.NotFound:
		s.log.Info("File not found",
			zap.String("client", key),
			zap.String("path", req.RawPath))
		s.writeError(conn, 404)
	case resolve.Forbidden:
		s.log.Warn("Directory escape prevented",
			zap.String("client", key),
			zap.String("path", req.RawPath))
		s.writeError(conn, 400)
	default:
		s.log.Warn("Unparseable request path",
			zap.String("client", key),
			zap.String("path", req.RawPath))
		s.writeError(conn, 400)
	}
}

func (s *Server) serveFile(conn net.Conn, key, rawPath, fsPath string, start time.Time) {
	f, err := os.Open(fsPath)
	if err != nil {
		s.log.Error("Error reading file",
			zap.String("client", key),
			zap.String("path", rawPath),
			zap.Error(err))
		s.writeError(conn, 500)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		s.log.Error("Error reading file",
			zap.String("client", key),
			zap.String("path", rawPath),
			zap.Error(err))
		s.writeError(conn, 500)
		return
	}

	ctype := mime.TypeByExtension(filepath.Ext(fsPath))
	if err := httpwire.WriteFile(conn, fi.Size(), ctype, f); err != nil {
		// The client gave up mid-transfer; nothing was served.
		s.log.Debug("Response write failed", zap.String("client", key), zap.Error(err))
		return
	}
	s.stats.RecordResponse(200, fi.Size())
	s.log.Info("Request served",
		zap.String("client", key),
		zap.String("path", rawPath),
		zap.Int("status", 200),
		zap.Int64("bytes", fi.Size()),
		zap.Duration("elapsed", time.Since(start)))
}

func (s *Server) writeError(conn net.Conn, code int) {
	_ = httpwire.WriteError(conn, code)
	s.stats.RecordResponse(code, int64(len(strconv.Itoa(code))+1))
}

func (s *Server) writeRateLimited(conn net.Conn, retryAfter time.Duration) {
	_ = httpwire.WriteRateLimited(conn, retryAfter)
	s.stats.RecordResponse(429, 4)
}

// clientKey is the rate limit key for a connection: the bare IP, without the
// ephemeral port.
func clientKey(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
