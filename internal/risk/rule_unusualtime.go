package risk

import "context"

// UnusualTimeLoginRule flags successful logins that land inside the
// configured unusual-hours window (UTC). The window may wrap midnight.
type UnusualTimeLoginRule struct {
	opts Options
	loc  Localizer
}

// NewUnusualTimeLoginRule builds the unusual-time rule.
func NewUnusualTimeLoginRule(opts Options, loc Localizer) *UnusualTimeLoginRule {
	return &UnusualTimeLoginRule{opts: opts, loc: loc}
}

// Name implements Rule.
func (r *UnusualTimeLoginRule) Name() RuleName {
	return RuleUnusualTimeLogin
}

// Evaluate implements Rule.
func (r *UnusualTimeLoginRule) Evaluate(_ context.Context, event LoginEvent, _ []LoginEvent) (RuleResult, error) {
	if !event.Success {
		return NotTriggered(RuleUnusualTimeLogin), nil
	}

	hour := event.LoginTimeUTC.UTC().Hour()
	start, end := r.opts.UnusualTimeStartHour, r.opts.UnusualTimeEndHour

	var unusual bool
	if start > end {
		// Wrap-around window, e.g. 22 -> 6.
		unusual = hour >= start || hour < end
	} else {
		unusual = hour >= start && hour < end
	}

	if !unusual {
		return NotTriggered(RuleUnusualTimeLogin), nil
	}

	factor := r.loc.Localize(MsgFactorUnusualTime, event.LoginTimeUTC.UTC().Format("15:04"))
	return Triggered(RuleUnusualTimeLogin, r.opts.UnusualTimeScore, factor), nil
}
