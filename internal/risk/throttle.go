package risk

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/loginsentry/loginsentry/internal/metrics"
)

const (
	ipThrottlePrefix = "ip-analysis-throttle:"
	ipThrottleTTL    = 5 * time.Minute
)

// ThrottleGate suppresses repeated expensive IP-wide brute-force scans with a
// short-TTL cache marker keyed by the exact normalized IP.
//
// The check-then-set sequence is deliberately not atomic: concurrent events
// from the same IP may each observe "no marker" and all run the scan before
// any of them marks it. That costs redundant work, never wrong scores.
type ThrottleGate struct {
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewThrottleGate creates a gate with the standard 5-minute marker TTL.
func NewThrottleGate(cache Cache, logger *zap.Logger) *ThrottleGate {
	return &ThrottleGate{
		cache:  cache,
		ttl:    ipThrottleTTL,
		logger: logger.With(zap.String("component", "throttle_gate")),
	}
}

// ShouldSkip reports whether a marker exists for the IP, meaning the IP-wide
// scan ran recently and should be skipped. Cache errors degrade to "always
// re-scan" rather than failing the analysis.
func (g *ThrottleGate) ShouldSkip(ctx context.Context, ip string) bool {
	key := g.key(ip)
	if key == "" {
		return false
	}
	_, found, err := g.cache.TryGet(ctx, key)
	if err != nil {
		g.logger.Warn("Throttle marker lookup failed, re-scanning",
			zap.String("ip", ip), zap.Error(err))
		return false
	}
	if found {
		metrics.ThrottleSkipsTotal.Inc()
	}
	return found
}

// Mark sets the throttle marker so subsequent events from the same IP within
// the TTL skip the expensive scan.
func (g *ThrottleGate) Mark(ctx context.Context, ip string) {
	key := g.key(ip)
	if key == "" {
		return
	}
	if err := g.cache.Set(ctx, key, "1", g.ttl); err != nil {
		g.logger.Warn("Failed to set throttle marker",
			zap.String("ip", ip), zap.Error(err))
	}
}

func (g *ThrottleGate) key(ip string) string {
	exact := NormalizeIPExact(ip)
	if exact == "" {
		return ""
	}
	return ipThrottlePrefix + exact
}
