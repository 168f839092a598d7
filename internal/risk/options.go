package risk

import "fmt"

// Options is the immutable configuration consumed by every rule and the
// classifier. It is bound once at process start and never re-read
// mid-analysis.
type Options struct {
	// HistoryDays is the lookback period for the per-user history window.
	HistoryDays int `mapstructure:"history_days"`

	// BruteForceWindowMinutes is the trailing interval within which
	// failed-login density is evaluated.
	BruteForceWindowMinutes int `mapstructure:"brute_force_window_minutes"`

	AccountBruteForceThreshold int `mapstructure:"account_brute_force_threshold"`
	AccountBruteForceScore     int `mapstructure:"account_brute_force_score"`

	IPBruteForceThreshold        int `mapstructure:"ip_brute_force_threshold"`
	IPBruteForceAccountThreshold int `mapstructure:"ip_brute_force_account_threshold"`
	IPBruteForceScore            int `mapstructure:"ip_brute_force_score"`

	NewDeviceLocationScore int `mapstructure:"new_device_location_score"`

	// Unusual-time window in UTC hours. StartHour > EndHour means the window
	// wraps midnight (e.g. 22 -> 6).
	UnusualTimeStartHour int `mapstructure:"unusual_time_start_hour"`
	UnusualTimeEndHour   int `mapstructure:"unusual_time_end_hour"`
	UnusualTimeScore     int `mapstructure:"unusual_time_score"`

	// Risk level thresholds, strictly increasing.
	MediumRiskThreshold   int `mapstructure:"medium_risk_threshold"`
	HighRiskThreshold     int `mapstructure:"high_risk_threshold"`
	CriticalRiskThreshold int `mapstructure:"critical_risk_threshold"`
}

// DefaultOptions returns the default analysis configuration.
func DefaultOptions() Options {
	return Options{
		HistoryDays:                  30,
		BruteForceWindowMinutes:      10,
		AccountBruteForceThreshold:   3,
		AccountBruteForceScore:       50,
		IPBruteForceThreshold:        10,
		IPBruteForceAccountThreshold: 3,
		IPBruteForceScore:            50,
		NewDeviceLocationScore:       25,
		UnusualTimeStartHour:         22,
		UnusualTimeEndHour:           6,
		UnusualTimeScore:             15,
		MediumRiskThreshold:          40,
		HighRiskThreshold:            70,
		CriticalRiskThreshold:        100,
	}
}

// Validate checks configuration invariants. Violations are configuration
// errors and must fail at bind time, not per event.
func (o Options) Validate() error {
	if o.HistoryDays <= 0 {
		return fmt.Errorf("history_days must be positive, got %d", o.HistoryDays)
	}
	if o.BruteForceWindowMinutes <= 0 {
		return fmt.Errorf("brute_force_window_minutes must be positive, got %d", o.BruteForceWindowMinutes)
	}
	if o.AccountBruteForceThreshold <= 0 || o.IPBruteForceThreshold <= 0 || o.IPBruteForceAccountThreshold <= 0 {
		return fmt.Errorf("brute-force thresholds must be positive")
	}
	for name, score := range map[string]int{
		"account_brute_force_score": o.AccountBruteForceScore,
		"ip_brute_force_score":      o.IPBruteForceScore,
		"new_device_location_score": o.NewDeviceLocationScore,
		"unusual_time_score":        o.UnusualTimeScore,
	} {
		if score < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, score)
		}
	}
	if o.UnusualTimeStartHour < 0 || o.UnusualTimeStartHour > 23 ||
		o.UnusualTimeEndHour < 0 || o.UnusualTimeEndHour > 23 {
		return fmt.Errorf("unusual-time hours must be in [0,23], got %d..%d",
			o.UnusualTimeStartHour, o.UnusualTimeEndHour)
	}
	if !(o.MediumRiskThreshold < o.HighRiskThreshold && o.HighRiskThreshold < o.CriticalRiskThreshold) {
		return fmt.Errorf("risk thresholds must be strictly increasing: medium %d < high %d < critical %d",
			o.MediumRiskThreshold, o.HighRiskThreshold, o.CriticalRiskThreshold)
	}
	return nil
}
