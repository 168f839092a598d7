package risk

// RiskLevel classifies a risk score into one of four ordered bands.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// String returns the string representation of the level.
func (l RiskLevel) String() string {
	return string(l)
}

// Rank returns the position of the level in the Low < Medium < High < Critical
// ordering, for monotonicity checks and sorting.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelMedium:
		return 1
	case RiskLevelHigh:
		return 2
	case RiskLevelCritical:
		return 3
	default:
		return 0
	}
}

// ClassifyScore maps a score to a risk level via the configured staircase,
// evaluated high to low.
func ClassifyScore(score int, opts Options) RiskLevel {
	switch {
	case score >= opts.CriticalRiskThreshold:
		return RiskLevelCritical
	case score >= opts.HighRiskThreshold:
		return RiskLevelHigh
	case score >= opts.MediumRiskThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// Analysis is the aggregate of all rule results for one login event.
type Analysis struct {
	EventID        string           `json:"event_id"`
	UserID         string           `json:"user_id"`
	RiskScore      int              `json:"risk_score"`
	RiskLevel      RiskLevel        `json:"risk_level"`
	RiskFactors    []string         `json:"risk_factors"`
	ScoreBreakdown map[RuleName]int `json:"score_breakdown"`
	TriggeredRules []RuleName       `json:"triggered_rules"`
	SecurityAdvice []string         `json:"security_advice"`
}

// Aggregate sums rule scores, classifies the total, concatenates factors, and
// attaches advice. Rule order in results determines factor and advice order.
func Aggregate(event LoginEvent, results []RuleResult, opts Options, loc Localizer) *Analysis {
	analysis := &Analysis{
		EventID:        event.ID,
		UserID:         event.UserID,
		RiskFactors:    []string{},
		ScoreBreakdown: make(map[RuleName]int, len(results)),
		TriggeredRules: []RuleName{},
	}

	for _, res := range results {
		analysis.RiskScore += res.Score
		analysis.ScoreBreakdown[res.Rule] = res.Score
		analysis.RiskFactors = append(analysis.RiskFactors, res.Factors...)
		if res.IsTriggered() {
			analysis.TriggeredRules = append(analysis.TriggeredRules, res.Rule)
		}
	}

	analysis.RiskLevel = ClassifyScore(analysis.RiskScore, opts)
	analysis.SecurityAdvice = AdviceFor(analysis.RiskLevel, analysis.TriggeredRules, loc)
	return analysis
}
