// Package risk provides login risk analysis tests
package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeSummaries is an in-memory SummaryStore.
type fakeSummaries struct {
	stored  map[string]*RiskSummary
	saves   int
	getErr  error
	saveErr error
}

func newFakeSummaries() *fakeSummaries {
	return &fakeSummaries{stored: make(map[string]*RiskSummary)}
}

func (f *fakeSummaries) Get(_ context.Context, userID string) (*RiskSummary, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.stored[userID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSummaries) Save(_ context.Context, summary *RiskSummary) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	copied := *summary
	f.stored[summary.UserID] = &copied
	f.saves++
	return nil
}

func newTestAnalyzer(t *testing.T, history HistoryStore, summaries SummaryStore) (*Analyzer, *RedisCache) {
	t.Helper()
	cache, _ := newTestCache(t)
	return NewAnalyzer(DefaultOptions(), history, summaries, cache, keyLocalizer{}, zap.NewNop()), cache
}

// seedTag registers a cache key under a tag so invalidation is observable.
func seedTag(t *testing.T, cache *RedisCache, key, tag string) {
	t.Helper()
	if err := cache.SetTagged(context.Background(), key, "x", time.Hour, tag); err != nil {
		t.Fatalf("seed tag %s: %v", tag, err)
	}
}

func tagKeyPresent(t *testing.T, cache *RedisCache, key string) bool {
	t.Helper()
	_, found, err := cache.TryGet(context.Background(), key)
	if err != nil {
		t.Fatalf("check key %s: %v", key, err)
	}
	return found
}

// TestAnalyzer_FirstLogin tests a first-ever successful login at a normal hour
func TestAnalyzer_FirstLogin(t *testing.T) {
	history := &fakeHistory{}
	summaries := newFakeSummaries()
	analyzer, cache := newTestAnalyzer(t, history, summaries)
	ctx := context.Background()

	seedTag(t, cache, "audit-view", TagLoginAudits)
	seedTag(t, cache, "summary-view", TagRiskSummaries)
	seedTag(t, cache, "stats-view", TagStatistics)

	analysis, err := analyzer.AnalyzeLoginEvent(ctx, baseEvent())
	if err != nil {
		t.Fatalf("AnalyzeLoginEvent returned error: %v", err)
	}

	if analysis.RiskScore != 25 {
		t.Errorf("RiskScore = %d, want 25 (new device only)", analysis.RiskScore)
	}
	if analysis.RiskLevel != RiskLevelLow {
		t.Errorf("RiskLevel = %s, want low", analysis.RiskLevel)
	}

	stored := summaries.stored["user-1"]
	if stored == nil {
		t.Fatal("summary was not saved")
	}
	if stored.RiskLevel != RiskLevelLow || stored.RiskScore != 25 {
		t.Errorf("stored summary = %+v", stored)
	}
	if stored.Description == "" {
		t.Error("description should carry the risk factors")
	}

	// User-scoped tags always invalidated; statistics survives a low result.
	if tagKeyPresent(t, cache, "audit-view") {
		t.Error("loginaudits tag was not invalidated")
	}
	if tagKeyPresent(t, cache, "summary-view") {
		t.Error("userloginrisksummary tag was not invalidated")
	}
	if !tagKeyPresent(t, cache, "stats-view") {
		t.Error("statistics tag must survive a low-risk analysis")
	}
}

// TestAnalyzer_WriteSuppression tests that identical re-analysis skips the save
func TestAnalyzer_WriteSuppression(t *testing.T) {
	history := &fakeHistory{}
	summaries := newFakeSummaries()
	analyzer, _ := newTestAnalyzer(t, history, summaries)
	ctx := context.Background()

	event := baseEvent()
	if _, err := analyzer.AnalyzeLoginEvent(ctx, event); err != nil {
		t.Fatalf("first analysis: %v", err)
	}
	firstModified := summaries.stored["user-1"].LastModifiedAt

	// Same event against the same frozen history produces the same summary.
	if _, err := analyzer.AnalyzeLoginEvent(ctx, event); err != nil {
		t.Fatalf("second analysis: %v", err)
	}

	if summaries.saves != 1 {
		t.Errorf("saves = %d, want 1 (second write suppressed)", summaries.saves)
	}
	if !summaries.stored["user-1"].LastModifiedAt.Equal(firstModified) {
		t.Error("LastModifiedAt must not change on a suppressed write")
	}
}

// TestAnalyzer_HighRisk tests stacked rules crossing the high threshold and
// statistics invalidation
func TestAnalyzer_HighRisk(t *testing.T) {
	event := baseEvent()
	event.LoginTimeUTC = time.Date(2026, 3, 10, 23, 15, 0, 0, time.UTC)
	event.IPAddress = "" // keep the IP-wide sub-check out of this scenario

	history := &fakeHistory{events: []LoginEvent{
		failedAt("f1", event.LoginTimeUTC.Add(-2*time.Minute)),
		failedAt("f2", event.LoginTimeUTC.Add(-4*time.Minute)),
		failedAt("f3", event.LoginTimeUTC.Add(-6*time.Minute)),
	}}
	summaries := newFakeSummaries()
	analyzer, cache := newTestAnalyzer(t, history, summaries)
	ctx := context.Background()

	seedTag(t, cache, "stats-view", TagStatistics)

	analysis, err := analyzer.AnalyzeLoginEvent(ctx, event)
	if err != nil {
		t.Fatalf("AnalyzeLoginEvent returned error: %v", err)
	}

	// 50 (account failures) + 25 (new device) + 15 (unusual time) = 90.
	if analysis.RiskScore != 90 {
		t.Errorf("RiskScore = %d, want 90", analysis.RiskScore)
	}
	if analysis.RiskLevel != RiskLevelHigh {
		t.Errorf("RiskLevel = %s, want high", analysis.RiskLevel)
	}
	if len(analysis.TriggeredRules) != 3 {
		t.Errorf("TriggeredRules = %v, want all three", analysis.TriggeredRules)
	}

	if tagKeyPresent(t, cache, "stats-view") {
		t.Error("statistics tag must be invalidated for a non-low result")
	}
}

// TestAnalyzer_IPThrottle tests that the IP-wide scan runs once per marker TTL
func TestAnalyzer_IPThrottle(t *testing.T) {
	history := &fakeHistory{ipTotal: 12, ipAccounts: 4}
	summaries := newFakeSummaries()
	analyzer, _ := newTestAnalyzer(t, history, summaries)
	ctx := context.Background()

	event := baseEvent()
	if _, err := analyzer.AnalyzeLoginEvent(ctx, event); err != nil {
		t.Fatalf("first analysis: %v", err)
	}
	if history.ipCalls != 1 {
		t.Fatalf("ipCalls = %d after first analysis, want 1", history.ipCalls)
	}

	// Second event from the same IP inside the marker TTL skips the scan.
	event.ID = "evt-2"
	if _, err := analyzer.AnalyzeLoginEvent(ctx, event); err != nil {
		t.Fatalf("second analysis: %v", err)
	}
	if history.ipCalls != 1 {
		t.Errorf("ipCalls = %d after second analysis, want still 1", history.ipCalls)
	}

	// A different IP gets its own scan.
	event.ID = "evt-3"
	event.IPAddress = "198.51.100.4"
	if _, err := analyzer.AnalyzeLoginEvent(ctx, event); err != nil {
		t.Fatalf("third analysis: %v", err)
	}
	if history.ipCalls != 2 {
		t.Errorf("ipCalls = %d after third analysis, want 2", history.ipCalls)
	}
}

// TestAnalyzer_SummaryLoadErrorPropagates tests persistence error propagation
func TestAnalyzer_SummaryLoadErrorPropagates(t *testing.T) {
	summaries := newFakeSummaries()
	summaries.getErr = errors.New("summary table gone")
	analyzer, _ := newTestAnalyzer(t, &fakeHistory{}, summaries)

	if _, err := analyzer.AnalyzeLoginEvent(context.Background(), baseEvent()); err == nil {
		t.Fatal("expected summary load error to propagate")
	}
}

// TestAnalyzer_SummarySaveErrorPropagates tests save error propagation
func TestAnalyzer_SummarySaveErrorPropagates(t *testing.T) {
	summaries := newFakeSummaries()
	summaries.saveErr = errors.New("disk full")
	analyzer, _ := newTestAnalyzer(t, &fakeHistory{}, summaries)

	if _, err := analyzer.AnalyzeLoginEvent(context.Background(), baseEvent()); err == nil {
		t.Fatal("expected summary save error to propagate")
	}
}

// TestAnalyzer_FailedLoginUpdatesSummary tests that a failed event still
// produces a summary update when the score changes
func TestAnalyzer_FailedLoginUpdatesSummary(t *testing.T) {
	event := baseEvent()
	event.Success = false
	event.IPAddress = ""

	history := &fakeHistory{events: []LoginEvent{
		failedAt("f1", event.LoginTimeUTC.Add(-1*time.Minute)),
		failedAt("f2", event.LoginTimeUTC.Add(-2*time.Minute)),
		failedAt("f3", event.LoginTimeUTC.Add(-3*time.Minute)),
	}}
	summaries := newFakeSummaries()
	analyzer, _ := newTestAnalyzer(t, history, summaries)

	analysis, err := analyzer.AnalyzeLoginEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("AnalyzeLoginEvent returned error: %v", err)
	}

	if analysis.RiskScore != 50 {
		t.Errorf("RiskScore = %d, want 50 (account failures only)", analysis.RiskScore)
	}
	if analysis.RiskLevel != RiskLevelMedium {
		t.Errorf("RiskLevel = %s, want medium", analysis.RiskLevel)
	}
	if summaries.stored["user-1"] == nil {
		t.Error("failed-login analysis must still upsert the summary")
	}
}
