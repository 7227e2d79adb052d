package biometric

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/reunipet/reunipet/internal/health"
)

// IndexHealthChecker monitors biometric index health using an optional
// HealthPinger implemented by the concrete index (e.g., Rekognition).
type IndexHealthChecker struct {
	index        Index
	collection   string
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewIndexHealthChecker creates a new biometric index health checker. The
// collection is only used by the fallback probe.
func NewIndexHealthChecker(index Index, collection string, log zerolog.Logger, probeTimeout time.Duration) *IndexHealthChecker {
	hc := &IndexHealthChecker{index: index, collection: collection, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0) // start unhealthy until first successful probe
	return hc
}

func (hc *IndexHealthChecker) Name() string    { return "biometric" }
func (hc *IndexHealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// Start begins periodic health checking until ctx is canceled.
func (hc *IndexHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		ok := true
		if p, okCast := hc.index.(health.HealthPinger); okCast {
			if err := p.HealthPing(checkCtx); err != nil {
				ok = false
				hc.log.Error().Stack().Str("checker", hc.Name()).Err(err).Msg("biometric index health check failed")
			}
		} else {
			// Fallback: ensure-exists on a known collection is idempotent.
			if err := hc.index.EnsureCollection(checkCtx, hc.collection); err != nil {
				ok = false
				hc.log.Error().Stack().Str("checker", hc.Name()).Err(err).Msg("biometric index health check failed")
			}
		}
		if ok {
			hc.healthy.Store(1)
		} else {
			hc.healthy.Store(0)
		}
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
