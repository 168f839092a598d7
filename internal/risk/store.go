package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/loginsentry/loginsentry/internal/common/database"
)

// LoginStore persists login events in PostgreSQL and implements HistoryStore.
type LoginStore struct {
	db *database.PostgresDB
}

// NewLoginStore creates a PostgreSQL-backed login event store.
func NewLoginStore(db *database.PostgresDB) *LoginStore {
	return &LoginStore{db: db}
}

// Record inserts a login event.
func (s *LoginStore) Record(ctx context.Context, event LoginEvent) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO login_events (id, user_id, user_name, login_time, ip_address, browser_info, region, provider, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.UserID, event.UserName, event.LoginTimeUTC,
		event.IPAddress, event.BrowserInfo, event.Region, event.Provider, event.Success,
	)
	if err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	return nil
}

// RecentLogins implements HistoryStore.
func (s *LoginStore) RecentLogins(ctx context.Context, userID string, since time.Time, limit int) ([]LoginEvent, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, user_id, COALESCE(user_name, ''), login_time,
		       COALESCE(ip_address, ''), COALESCE(browser_info, ''),
		       COALESCE(region, ''), COALESCE(provider, ''), success
		FROM login_events
		WHERE user_id = $1 AND login_time >= $2
		ORDER BY login_time DESC
		LIMIT $3`,
		userID, since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query login history: %w", err)
	}
	defer rows.Close()

	var events []LoginEvent
	for rows.Next() {
		var e LoginEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.LoginTimeUTC,
			&e.IPAddress, &e.BrowserInfo, &e.Region, &e.Provider, &e.Success); err != nil {
			return nil, fmt.Errorf("scan login event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate login history: %w", err)
	}
	return events, nil
}

// FailuresByIP implements HistoryStore.
func (s *LoginStore) FailuresByIP(ctx context.Context, ip string, from, to time.Time) (int, int, error) {
	var total, accounts int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT user_id)
		FROM login_events
		WHERE ip_address = $1 AND success = false AND login_time BETWEEN $2 AND $3`,
		ip, from, to,
	).Scan(&total, &accounts)
	if err != nil {
		return 0, 0, fmt.Errorf("query failures by ip: %w", err)
	}
	return total, accounts, nil
}

// PGSummaryStore persists per-user risk summaries in PostgreSQL.
type PGSummaryStore struct {
	db *database.PostgresDB
}

// NewPGSummaryStore creates a PostgreSQL-backed summary store.
func NewPGSummaryStore(db *database.PostgresDB) *PGSummaryStore {
	return &PGSummaryStore{db: db}
}

// Get implements SummaryStore. Returns nil without error when no summary
// exists for the user.
func (s *PGSummaryStore) Get(ctx context.Context, userID string) (*RiskSummary, error) {
	var sum RiskSummary
	err := s.db.Pool.QueryRow(ctx, `
		SELECT user_id, COALESCE(user_name, ''), risk_level, risk_score,
		       COALESCE(description, ''), COALESCE(advice, ''), last_modified_at
		FROM risk_summaries
		WHERE user_id = $1`,
		userID,
	).Scan(&sum.UserID, &sum.UserName, &sum.RiskLevel, &sum.RiskScore,
		&sum.Description, &sum.Advice, &sum.LastModifiedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query risk summary: %w", err)
	}
	return &sum, nil
}

// Save implements SummaryStore with an upsert keyed by user id. Concurrent
// writers resolve last-write-wins, which is acceptable: both computed their
// summary from near-identical history.
func (s *PGSummaryStore) Save(ctx context.Context, summary *RiskSummary) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO risk_summaries (user_id, user_name, risk_level, risk_score, description, advice, last_modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			user_name = EXCLUDED.user_name,
			risk_level = EXCLUDED.risk_level,
			risk_score = EXCLUDED.risk_score,
			description = EXCLUDED.description,
			advice = EXCLUDED.advice,
			last_modified_at = EXCLUDED.last_modified_at`,
		summary.UserID, summary.UserName, string(summary.RiskLevel), summary.RiskScore,
		summary.Description, summary.Advice, summary.LastModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert risk summary: %w", err)
	}
	return nil
}

// CountByLevel returns the number of users currently at each risk level.
func (s *PGSummaryStore) CountByLevel(ctx context.Context) (map[RiskLevel]int, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT risk_level, COUNT(*)
		FROM risk_summaries
		GROUP BY risk_level`,
	)
	if err != nil {
		return nil, fmt.Errorf("query summary stats: %w", err)
	}
	defer rows.Close()

	counts := make(map[RiskLevel]int)
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("scan summary stats: %w", err)
		}
		counts[RiskLevel(level)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary stats: %w", err)
	}
	return counts, nil
}
