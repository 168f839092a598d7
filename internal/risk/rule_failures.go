package risk

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ConcentratedFailuresRule detects brute-force pressure, both account-scoped
// (failed attempts on this user) and IP-scoped (failed attempts from this IP
// across accounts). The IP-scoped scan is the most expensive query the engine
// runs, so it sits behind the throttle gate.
type ConcentratedFailuresRule struct {
	opts    Options
	history HistoryStore
	gate    *ThrottleGate
	loc     Localizer
	logger  *zap.Logger
}

// NewConcentratedFailuresRule builds the brute-force rule.
func NewConcentratedFailuresRule(opts Options, history HistoryStore, gate *ThrottleGate, loc Localizer, logger *zap.Logger) *ConcentratedFailuresRule {
	return &ConcentratedFailuresRule{
		opts:    opts,
		history: history,
		gate:    gate,
		loc:     loc,
		logger:  logger.With(zap.String("rule", string(RuleConcentratedFailures))),
	}
}

// Name implements Rule.
func (r *ConcentratedFailuresRule) Name() RuleName {
	return RuleConcentratedFailures
}

// Evaluate implements Rule.
func (r *ConcentratedFailuresRule) Evaluate(ctx context.Context, event LoginEvent, history []LoginEvent) (RuleResult, error) {
	window := time.Duration(r.opts.BruteForceWindowMinutes) * time.Minute
	windowStart := event.LoginTimeUTC.Add(-window)

	score := 0
	var factors []string

	failed := 0
	for _, h := range history {
		if h.Success {
			continue
		}
		if h.LoginTimeUTC.Before(windowStart) || h.LoginTimeUTC.After(event.LoginTimeUTC) {
			continue
		}
		failed++
	}
	if failed >= r.opts.AccountBruteForceThreshold {
		score += r.opts.AccountBruteForceScore
		factors = append(factors, r.loc.Localize(MsgFactorAccountFailures, failed, r.opts.BruteForceWindowMinutes))
	}

	if event.IPAddress != "" && !r.gate.ShouldSkip(ctx, event.IPAddress) {
		total, accounts, err := r.history.FailuresByIP(ctx, event.IPAddress, windowStart, event.LoginTimeUTC)
		if err != nil {
			return RuleResult{}, err
		}
		if total >= r.opts.IPBruteForceThreshold && accounts >= r.opts.IPBruteForceAccountThreshold {
			score += r.opts.IPBruteForceScore
			factors = append(factors, r.loc.Localize(MsgFactorIPFailures, event.IPAddress, total, accounts))
			r.logger.Warn("IP-wide brute-force pattern detected",
				zap.String("ip", event.IPAddress),
				zap.Int("failed_attempts", total),
				zap.Int("distinct_accounts", accounts),
			)
		}
		// Marked regardless of whether the pattern matched: bursts from one
		// IP are sampled, not re-scanned on every event.
		r.gate.Mark(ctx, event.IPAddress)
	}

	if score == 0 {
		return NotTriggered(RuleConcentratedFailures), nil
	}
	return Triggered(RuleConcentratedFailures, score, factors...), nil
}
