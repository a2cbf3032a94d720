package schedulerservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/routinely/routinely-server/internal/api"
	"github.com/routinely/routinely-server/internal/clock"
	"github.com/routinely/routinely-server/internal/config"
	"github.com/routinely/routinely-server/internal/factory"
	"github.com/routinely/routinely-server/internal/health"
	"github.com/routinely/routinely-server/internal/logger"
	"github.com/routinely/routinely-server/internal/store"
)

// startupHealthFloor is the minimum window the service waits for its
// dependencies to report healthy before aborting startup.
const startupHealthFloor = 60 * time.Second

// Run starts the scheduler service HTTP server and blocks until
// SIGINT/SIGTERM or a server error.
func Run() error {
	log := logger.New("scheduler-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Configuration invalid")
		return err
	}
	logger.SetGlobalLevel(cfg.LogLevel)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Int("default_look_ahead_days", cfg.DefaultLookAheadDays).
		Int("history_days", cfg.HistoryDays).
		Msg("Scheduler service starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store initialization failed")
		return err
	}

	// The wall clock feeds the suggestion and completion paths.
	router := api.NewRouter(st, clock.System{}, cfg)

	svcHealth := watchDependencies(ctx, cfg, log, st)
	if err := awaitHealthy(ctx, cfg.HealthIntervalSeconds, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("Dependencies not healthy at startup")
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Signal received, draining connections")
		budget := time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), budget)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Stack().Err(err).Msg("Graceful shutdown failed")
			return err
		}
		log.Info().Msg("Shutdown complete")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server error")
		return err
	}
}

// watchDependencies starts the per-dependency checkers plus the service
// aggregate, and binds the aggregate to the health endpoint.
func watchDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	var checkers []health.HealthChecker
	if pinger, ok := st.(health.HealthPinger); ok {
		storeChecker := health.NewPingChecker("store", pinger, log, probeTimeout)
		go storeChecker.Start(ctx, interval)
		checkers = append(checkers, storeChecker)
	} else {
		log.Warn().Msg("store does not expose a health ping; service health tracks process liveness only")
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

// awaitHealthy polls the aggregate until it reports healthy. Checkers start
// unhealthy and need a first probe cycle, so the window is at least
// startupHealthFloor and grows with the probe interval.
func awaitHealthy(ctx context.Context, intervalSeconds int, svcHealth *health.ServiceHealthChecker) error {
	window := 2 * time.Duration(intervalSeconds) * time.Second
	if window < startupHealthFloor {
		window = startupHealthFloor
	}
	deadline := time.Now().Add(window)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for !svcHealth.IsHealthy() {
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %s", window)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
