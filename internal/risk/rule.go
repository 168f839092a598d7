package risk

import "context"

// RuleName identifies a rule evaluator. Advice selection keys off this closed
// set rather than free-form strings.
type RuleName string

const (
	RuleConcentratedFailures RuleName = "ConcentratedFailures"
	RuleNewDeviceOrLocation  RuleName = "NewDeviceOrLocation"
	RuleUnusualTimeLogin     RuleName = "UnusualTimeLogin"
)

// RuleOutcome makes the triggered/not-triggered distinction explicit instead
// of inferring it from a non-zero score.
type RuleOutcome int

const (
	OutcomeNotTriggered RuleOutcome = iota
	OutcomeTriggered
)

// RuleResult is the outcome of one rule evaluation. Ephemeral; it exists only
// during one orchestration call.
type RuleResult struct {
	Rule    RuleName
	Outcome RuleOutcome
	Score   int
	Factors []string
}

// NotTriggered returns a zero-score result for the rule.
func NotTriggered(rule RuleName) RuleResult {
	return RuleResult{Rule: rule, Outcome: OutcomeNotTriggered}
}

// Triggered returns a scored result carrying the contributing factors.
func Triggered(rule RuleName, score int, factors ...string) RuleResult {
	return RuleResult{Rule: rule, Outcome: OutcomeTriggered, Score: score, Factors: factors}
}

// IsTriggered reports whether the rule contributed to the risk score.
func (r RuleResult) IsTriggered() bool {
	return r.Outcome == OutcomeTriggered
}

// Rule is one independent, stateless-per-call evaluator consuming a login
// event and its bounded history window.
type Rule interface {
	Name() RuleName
	Evaluate(ctx context.Context, event LoginEvent, history []LoginEvent) (RuleResult, error)
}
