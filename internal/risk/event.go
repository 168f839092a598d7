// Package risk implements the login risk-analysis engine: rule-based scoring
// of completed login attempts against recent history, per-user risk summaries,
// and targeted cache invalidation for downstream views.
package risk

import "time"

// LoginEvent is one completed authentication attempt, produced by the
// authentication subsystem after sign-in decisioning. Immutable once created.
type LoginEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	LoginTimeUTC time.Time `json:"login_time"`
	IPAddress    string    `json:"ip_address,omitempty"`
	BrowserInfo  string    `json:"browser_info,omitempty"`
	Region       string    `json:"region,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	Success      bool      `json:"success"`
}

// RiskSummary is the durable per-user record of the most recent risk
// assessment, consumable by external reporting surfaces.
type RiskSummary struct {
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	RiskLevel      RiskLevel `json:"risk_level"`
	RiskScore      int       `json:"risk_score"`
	Description    string    `json:"description"`
	Advice         string    `json:"advice"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}
