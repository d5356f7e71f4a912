package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Jacoblightning/simplewebserver/internal/config"
	"github.com/Jacoblightning/simplewebserver/internal/limiter"
	"github.com/Jacoblightning/simplewebserver/internal/observability"
	"github.com/Jacoblightning/simplewebserver/internal/ops"
	"github.com/Jacoblightning/simplewebserver/internal/resolve"
	"github.com/Jacoblightning/simplewebserver/internal/server"
	"github.com/Jacoblightning/simplewebserver/internal/stats"
)

var serveCmd = &cobra.Command{
	Use:   "serve [bindto] [port]",
	Short: "Start the file server",
	Long: `Start the file server with graceful shutdown support.

The optional positional arguments select the bind address and port:

  simplewebserver serve 0.0.0.0 8080

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • SIGHUP: Re-read the config file (restart to apply)

The server drains in-flight connections before exiting.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if len(args) > 0 {
		v.Set("server.bind", args[0])
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		v.Set("server.port", port)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewServerLogger(observability.Options{
		Level:      cfg.Logging.Level,
		Quiet:      cfg.Logging.Quiet,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	defer func() { _ = logger.Sync() }()

	logger.Info("Initializing server",
		zap.String("version", versionInfo.Version),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("root", cfg.Server.Root),
		zap.String("ratelimit_store", cfg.RateLimit.Store))

	rsv, err := resolve.New(cfg.Server.Root, cfg.Server.DefaultDocument, cfg.Blacklist)
	if err != nil {
		return fmt.Errorf("document root: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := newLimiterStore(ctx, cfg.RateLimit)
	if err != nil {
		return err
	}
	defer closeStore()

	lim := limiter.New(store, cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.Penalty)
	st := stats.New()
	srv := server.New(cfg.Server, rsv, lim, st, logger)

	if err := srv.Listen(); err != nil {
		return err
	}
	fmt.Printf("Serving on: %s\n", srv.Addr())

	// Serve in a background goroutine so signals interrupt the wait below.
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve()
	}()

	var opsSrv *ops.Server
	if cfg.Ops.Enabled {
		opsSrv = ops.New(cfg.Ops, st, ops.VersionInfo{
			Name:      binaryName,
			Version:   versionInfo.Version,
			Commit:    versionInfo.Commit,
			BuildDate: versionInfo.BuildDate,
		}, logger)
		go func() {
			if err := opsSrv.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("Ops endpoint failed", zap.Error(err))
			}
		}()
	}

	go watchReload(ctx, logger)

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if opsSrv != nil {
		if err := opsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Ops endpoint shutdown", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errChan; err != nil {
		return fmt.Errorf("server: %w", err)
	}

	snap := st.Snapshot()
	logger.Info("Final statistics",
		zap.Int64("served", snap.Served),
		zap.Int64("not_found", snap.NotFound),
		zap.Int64("bad_requests", snap.BadRequests),
		zap.Int64("rate_limited", snap.RateLimited),
		zap.Int64("internal_errors", snap.InternalErrors),
		zap.Int64("bans", snap.BansStarted),
		zap.Int64("bytes_sent", snap.BytesSent),
		zap.Int64("uptime_seconds", snap.UptimeSeconds))
	logger.Info("Server stopped gracefully")
	return nil
}

// newLimiterStore builds the configured limiter backend. The in-memory
// store's janitor stops when ctx is cancelled.
func newLimiterStore(ctx context.Context, cfg config.RateLimitConfig) (limiter.Store, func(), error) {
	if cfg.Store == "redis" {
		rs, err := limiter.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	}
	ms := limiter.NewMemoryStore()
	ms.StartJanitor(ctx, cfg.SweepEvery, cfg.IdleTTL)
	return ms, func() {}, nil
}

// watchReload re-reads the config file on SIGHUP. The running listener keeps
// its current settings; changes take effect on the next restart.
func watchReload(ctx context.Context, log *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			log.Info("Received SIGHUP: attempting config reload")
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					log.Info("No config file found - using defaults and environment variables")
					continue
				}
				log.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				continue
			}
			log.Info("Configuration reloaded, restart to apply",
				zap.String("file", viper.ConfigFileUsed()))
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int64P("ratelimit", "r", config.DefaultRateLimit, "requests allowed per client per window (0 disables)")
	serveCmd.Flags().DurationP("timeout", "d", config.DefaultPenalty, "how long a client stays banned after exceeding the limit")
	serveCmd.Flags().String("root", config.DefaultRoot, "document root to serve files from")
	serveCmd.Flags().StringSlice("blacklist", nil, "file names that are never served")
	serveCmd.Flags().Int("max-conns", config.DefaultMaxConns, "maximum concurrent connections")
	serveCmd.Flags().Bool("ops", false, "expose the operational HTTP endpoint (health, version, stats)")

	_ = viper.BindPFlag("ratelimit.limit", serveCmd.Flags().Lookup("ratelimit"))
	_ = viper.BindPFlag("ratelimit.penalty", serveCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("server.root", serveCmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("blacklist", serveCmd.Flags().Lookup("blacklist"))
	_ = viper.BindPFlag("server.max_conns", serveCmd.Flags().Lookup("max-conns"))
	_ = viper.BindPFlag("ops.enabled", serveCmd.Flags().Lookup("ops"))
}
