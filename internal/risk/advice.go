package risk

// Advice key blocks per risk level, in presentation order.
var levelAdviceKeys = map[RiskLevel][]string{
	RiskLevelLow: {
		MsgAdviceNoActionNeeded,
	},
	RiskLevelMedium: {
		MsgAdviceReviewActivity,
		MsgAdviceEnableMFA,
	},
	RiskLevelHigh: {
		MsgAdviceChangePassword,
		MsgAdviceEnableMFA,
		MsgAdviceReviewDevices,
	},
	RiskLevelCritical: {
		MsgAdviceChangePasswordNow,
		MsgAdviceReviewDevices,
		MsgAdviceContactSupport,
	},
}

// Advice key blocks per triggered rule.
var ruleAdviceKeys = map[RuleName][]string{
	RuleConcentratedFailures: {
		MsgAdviceRotatePassword,
		MsgAdviceReviewDevices,
	},
	RuleNewDeviceOrLocation: {
		MsgAdviceVerifyNewDevice,
	},
	RuleUnusualTimeLogin: {
		MsgAdviceSecureAccount,
	},
}

// AdviceKeys selects the ordered advice message keys for a risk level and the
// set of triggered rules: the level block first, then each triggered rule's
// block in the order the rules fired.
func AdviceKeys(level RiskLevel, triggered []RuleName) []string {
	keys := make([]string, 0, 4)
	keys = append(keys, levelAdviceKeys[level]...)
	for _, rule := range triggered {
		keys = append(keys, ruleAdviceKeys[rule]...)
	}
	return keys
}

// AdviceFor renders the selected advice keys through the localizer.
func AdviceFor(level RiskLevel, triggered []RuleName, loc Localizer) []string {
	keys := AdviceKeys(level, triggered)
	advice := make([]string, len(keys))
	for i, key := range keys {
		advice[i] = loc.Localize(key)
	}
	return advice
}
