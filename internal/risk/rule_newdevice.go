package risk

import (
	"context"
	"strings"
)

// NewDeviceOrLocationRule flags successful logins whose network subnet,
// region, or browser core has never appeared in a prior successful login.
// Failed logins carry no reliable "normal" signal and are skipped.
type NewDeviceOrLocationRule struct {
	opts Options
	loc  Localizer
}

// NewNewDeviceOrLocationRule builds the new-device/location rule.
func NewNewDeviceOrLocationRule(opts Options, loc Localizer) *NewDeviceOrLocationRule {
	return &NewDeviceOrLocationRule{opts: opts, loc: loc}
}

// Name implements Rule.
func (r *NewDeviceOrLocationRule) Name() RuleName {
	return RuleNewDeviceOrLocation
}

// Evaluate implements Rule.
func (r *NewDeviceOrLocationRule) Evaluate(_ context.Context, event LoginEvent, history []LoginEvent) (RuleResult, error) {
	if !event.Success {
		return NotTriggered(RuleNewDeviceOrLocation), nil
	}

	ipBucket := NormalizeIPBucket(event.IPAddress)
	regionKey, regionDisplay := RegionKeys(event.Region)
	uaCore := UserAgentCore(event.BrowserInfo)

	var fragments []string

	if ipBucket != "" && !r.seenBefore(event, history, func(h LoginEvent) bool {
		return NormalizeIPBucket(h.IPAddress) == ipBucket
	}) {
		fragments = append(fragments, r.loc.Localize(MsgFactorNewNetwork, ipBucket))
	}

	if regionKey != "" && !r.seenBefore(event, history, func(h LoginEvent) bool {
		key, _ := RegionKeys(h.Region)
		return key == regionKey
	}) {
		fragments = append(fragments, r.loc.Localize(MsgFactorNewLocation, regionDisplay))
	}

	if uaCore != "" && !r.seenBefore(event, history, func(h LoginEvent) bool {
		return UserAgentCore(h.BrowserInfo) == uaCore
	}) {
		fragments = append(fragments, r.loc.Localize(MsgFactorNewBrowser, uaCore))
	}

	if len(fragments) == 0 {
		return NotTriggered(RuleNewDeviceOrLocation), nil
	}

	// Flat score no matter how many signals are new; one combined factor.
	factor := r.loc.Localize(MsgFactorNewSignals, strings.Join(fragments, ", "))
	return Triggered(RuleNewDeviceOrLocation, r.opts.NewDeviceLocationScore, factor), nil
}

// seenBefore reports whether any prior successful login in the history window
// matches the predicate. The current event is excluded by id.
func (r *NewDeviceOrLocationRule) seenBefore(event LoginEvent, history []LoginEvent, match func(LoginEvent) bool) bool {
	for _, h := range history {
		if h.ID == event.ID || !h.Success {
			continue
		}
		if match(h) {
			return true
		}
	}
	return false
}
