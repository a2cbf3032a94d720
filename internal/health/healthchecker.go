// Package health tracks dependency liveness for the scheduler service.
//
// Component checkers cache their verdict so HTTP handlers can answer health
// probes without touching the store on every request.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by per-dependency checkers. IsHealthy never
// blocks; the verdict is refreshed in the background by Start.
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// HealthPinger is implemented by dependencies exposing a direct liveness
// probe. HealthPing returns nil while the dependency is usable.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// ServiceHealthChecker folds per-dependency verdicts into one service-wide
// flag. The service counts as healthy only while every dependency does.
type ServiceHealthChecker struct {
	healthy atomic.Bool
	deps    []HealthChecker
	log     zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, deps ...HealthChecker) *ServiceHealthChecker {
	return &ServiceHealthChecker{deps: deps, log: log}
}

// IsHealthy reports the cached verdict.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() }

// Start re-evaluates dependencies every interval until ctx is cancelled.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		h.refresh()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// refresh recomputes the aggregate and logs transitions with the names of
// whatever is down.
func (h *ServiceHealthChecker) refresh() {
	var down []string
	for _, dep := range h.deps {
		if !dep.IsHealthy() {
			down = append(down, dep.Name())
		}
	}

	now := len(down) == 0
	if h.healthy.Swap(now) == now {
		return
	}
	if now {
		h.log.Info().Msg("service healthy")
	} else {
		h.log.Error().Strs("down", down).Msg("service unhealthy")
	}
}

// PingChecker tracks one HealthPinger through periodic probes. The verdict
// stays unhealthy until the first probe succeeds.
type PingChecker struct {
	name    string
	pinger  HealthPinger
	healthy atomic.Bool
	log     zerolog.Logger
	timeout time.Duration
}

// NewPingChecker creates a checker reporting under name.
func NewPingChecker(name string, pinger HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *PingChecker {
	return &PingChecker{name: name, pinger: pinger, log: log, timeout: probeTimeout}
}

// Name identifies the checker in aggregate logs.
func (pc *PingChecker) Name() string { return pc.name }

// IsHealthy reports the cached verdict.
func (pc *PingChecker) IsHealthy() bool { return pc.healthy.Load() }

// Start probes once immediately and then on every tick until ctx ends.
func (pc *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pc.healthy.Store(pc.probe(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (pc *PingChecker) probe(ctx context.Context) bool {
	budget := pc.timeout
	if budget <= 0 {
		budget = 2 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	if err := pc.pinger.HealthPing(pctx); err != nil {
		pc.log.Error().Stack().Str("checker", pc.name).Err(err).Msg("health probe failed")
		return false
	}
	return true
}
