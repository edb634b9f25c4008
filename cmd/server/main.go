package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/multiregion/internal/api"
	"github.com/edvin/multiregion/internal/config"
	"github.com/edvin/multiregion/internal/core"
	"github.com/edvin/multiregion/internal/db"
	"github.com/edvin/multiregion/internal/logging"
	"github.com/edvin/multiregion/internal/metrics"
	"github.com/edvin/multiregion/internal/region"
	"github.com/edvin/multiregion/internal/replay"
	"github.com/edvin/multiregion/internal/replica"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting (primary region only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("server"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	topo, err := cfg.Topology()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid region topology")
	}

	databaseURL, err := topo.DatabaseURL(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to derive regional database url")
	}
	logger.Info().
		Bool("primary", topo.IsPrimary()).
		Str("database", region.Redact(databaseURL)).
		Msg("using regional database")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tlsConfig, err := cfg.DatabaseTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure database TLS")
	}

	if *migrateFlag {
		if topo.IsPrimary() {
			logger.Info().Msg("running database migrations")
			if err := db.RunMigrations(databaseURL, tlsConfig); err != nil {
				logger.Fatal().Err(err).Msg("migration failed")
			}
		} else {
			logger.Warn().Msg("skipping migrations outside the primary region")
		}
	}

	pool, err := db.NewPool(ctx, databaseURL, cfg.ServiceName, tlsConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	metrics.RegisterPgxPoolMetrics(prometheus.DefaultRegisterer, pool, metrics.Role(topo.IsPrimary()))

	monitor := replica.NewMonitor(pool, cfg.LagCheckInterval, logger)

	opts := []replay.Option{
		replay.WithThreshold(cfg.ReplayThreshold),
		replay.WithMaxReplicaLag(monitor, cfg.MaxReplicaLag),
		replay.WithLogger(logger),
	}
	if !cfg.ReplayWriteMethods {
		opts = append(opts, replay.WithWriteMethods())
	}
	replayer := replay.New(topo, opts...)

	services := core.NewServices(pool, pool, monitor, topo, databaseURL)
	srv := api.NewServer(logger, pool, services, replayer, cfg.MetricsListenAddr == "")

	servers := []*http.Server{{
		Addr:              cfg.HTTPListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
	if cfg.MetricsListenAddr != "" {
		servers = append(servers, metrics.NewServer(cfg.MetricsListenAddr))
	}

	if err := run(ctx, logger, monitor, servers); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}

// run serves until ctx is cancelled or a listener fails, then shuts every
// server down.
func run(ctx context.Context, logger zerolog.Logger, monitor *replica.Monitor, servers []*http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return monitor.Run(ctx)
	})

	for _, s := range servers {
		g.Go(func() error {
			logger.Info().Str("addr", s.Addr).Msg("starting http listener")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", s.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var errs []error
		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", s.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
