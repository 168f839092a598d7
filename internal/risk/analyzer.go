package risk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loginsentry/loginsentry/internal/metrics"
)

// historyLimit caps the per-user history window.
const historyLimit = 1000

// HistoryStore is the historical-query collaborator. The engine does not care
// whether it is backed by a relational store, a log store, or memory.
type HistoryStore interface {
	// RecentLogins returns the most recent logins for a user since the given
	// instant, newest first, capped at limit.
	RecentLogins(ctx context.Context, userID string, since time.Time, limit int) ([]LoginEvent, error)

	// FailuresByIP returns, for the time range, the total count of failed
	// attempts from the IP and the count of distinct user accounts targeted.
	FailuresByIP(ctx context.Context, ip string, from, to time.Time) (total int, accounts int, err error)
}

// SummaryStore is the read/upsert collaborator for per-user risk summaries.
type SummaryStore interface {
	// Get returns the stored summary for a user, or nil when none exists.
	Get(ctx context.Context, userID string) (*RiskSummary, error)
	Save(ctx context.Context, summary *RiskSummary) error
}

// Analyzer is the engine entry point. It fetches history, runs all rules,
// aggregates and classifies, upserts the per-user summary, and invalidates
// cache tags. One call per completed login attempt.
type Analyzer struct {
	opts      Options
	history   HistoryStore
	summaries SummaryStore
	cache     Cache
	rules     []Rule
	loc       Localizer
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalyzer wires the engine. Options must already be validated.
func NewAnalyzer(opts Options, history HistoryStore, summaries SummaryStore, cache Cache, loc Localizer, logger *zap.Logger) *Analyzer {
	log := logger.With(zap.String("component", "risk_analyzer"))
	gate := NewThrottleGate(cache, log)
	return &Analyzer{
		opts:      opts,
		history:   history,
		summaries: summaries,
		cache:     cache,
		rules: []Rule{
			NewConcentratedFailuresRule(opts, history, gate, loc, log),
			NewNewDeviceOrLocationRule(opts, loc),
			NewUnusualTimeLoginRule(opts, loc),
		},
		loc:    loc,
		logger: log,
		now:    time.Now,
	}
}

// AnalyzeLoginEvent runs the full analysis pass for one event. History,
// persistence, and invalidation errors propagate to the caller; the analysis
// itself never fails on absent or malformed identity signals.
func (a *Analyzer) AnalyzeLoginEvent(ctx context.Context, event LoginEvent) (*Analysis, error) {
	since := event.LoginTimeUTC.AddDate(0, 0, -a.opts.HistoryDays)
	history, err := a.history.RecentLogins(ctx, event.UserID, since, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch login history for %s: %w", event.UserID, err)
	}

	results := make([]RuleResult, 0, len(a.rules))
	for _, rule := range a.rules {
		res, err := rule.Evaluate(ctx, event, history)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		if res.IsTriggered() {
			metrics.RuleTriggersTotal.WithLabelValues(string(res.Rule)).Inc()
		}
		results = append(results, res)
	}

	analysis := Aggregate(event, results, a.opts, a.loc)
	metrics.AnalysesTotal.WithLabelValues(string(analysis.RiskLevel)).Inc()

	if err := a.upsertSummary(ctx, event, analysis); err != nil {
		return nil, err
	}

	if err := a.invalidate(ctx, analysis.RiskLevel); err != nil {
		return nil, err
	}

	a.logger.Info("Login event analyzed",
		zap.String("event_id", event.ID),
		zap.String("user_id", event.UserID),
		zap.Int("risk_score", analysis.RiskScore),
		zap.String("risk_level", string(analysis.RiskLevel)),
		zap.Int("triggered_rules", len(analysis.TriggeredRules)),
	)

	return analysis, nil
}

// upsertSummary persists the per-user summary, skipping the write entirely
// when level, score, and description are unchanged so repeated identical
// analyses do not amplify writes or touch LastModifiedAt.
func (a *Analyzer) upsertSummary(ctx context.Context, event LoginEvent, analysis *Analysis) error {
	description := strings.Join(analysis.RiskFactors, "; ")
	advice := strings.Join(analysis.SecurityAdvice, "; ")

	existing, err := a.summaries.Get(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("load risk summary for %s: %w", event.UserID, err)
	}

	if existing != nil &&
		existing.RiskLevel == analysis.RiskLevel &&
		existing.RiskScore == analysis.RiskScore &&
		existing.Description == description {
		metrics.SummaryWritesTotal.WithLabelValues("unchanged").Inc()
		return nil
	}

	summary := &RiskSummary{
		UserID:         event.UserID,
		UserName:       event.UserName,
		RiskLevel:      analysis.RiskLevel,
		RiskScore:      analysis.RiskScore,
		Description:    description,
		Advice:         advice,
		LastModifiedAt: a.now().UTC(),
	}
	if err := a.summaries.Save(ctx, summary); err != nil {
		metrics.SummaryWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("save risk summary for %s: %w", event.UserID, err)
	}
	metrics.SummaryWritesTotal.WithLabelValues("written").Inc()
	return nil
}

// invalidate clears the user-scoped tags on every analysis, and the broader
// statistics tag only for non-low results so routine logins do not thrash the
// aggregate views.
func (a *Analyzer) invalidate(ctx context.Context, level RiskLevel) error {
	tags := []string{TagLoginAudits, TagRiskSummaries}
	if level != RiskLevelLow {
		tags = append(tags, TagStatistics)
	}
	for _, tag := range tags {
		if err := a.cache.RemoveByTag(ctx, tag); err != nil {
			a.logger.Error("Cache tag invalidation failed",
				zap.String("tag", tag), zap.Error(err))
			return fmt.Errorf("invalidate cache tag %s: %w", tag, err)
		}
	}
	return nil
}
