package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/loginsentry/loginsentry/internal/common/database"
)

const loginEventsIndex = "login-events"

const loginEventsMapping = `{
	"mappings": {
		"properties": {
			"id":            {"type": "keyword"},
			"user_id":       {"type": "keyword"},
			"user_name":     {"type": "keyword"},
			"login_time":    {"type": "date"},
			"ip_address":    {"type": "ip"},
			"browser_info":  {"type": "text"},
			"region":        {"type": "keyword"},
			"provider":      {"type": "keyword"},
			"success":       {"type": "boolean"}
		}
	}
}`

// ESLoginStore is the Elasticsearch-backed alternative to LoginStore for
// deployments that keep login audit data in an index rather than a table.
// Implements HistoryStore.
type ESLoginStore struct {
	es *database.ElasticsearchClient
}

// NewESLoginStore creates an Elasticsearch-backed login event store and
// ensures the index exists.
func NewESLoginStore(es *database.ElasticsearchClient) (*ESLoginStore, error) {
	if err := es.EnsureIndex(loginEventsIndex, loginEventsMapping); err != nil {
		return nil, fmt.Errorf("ensure login events index: %w", err)
	}
	return &ESLoginStore{es: es}, nil
}

// Record indexes a login event.
func (s *ESLoginStore) Record(ctx context.Context, event LoginEvent) error {
	doc, err := json.Marshal(esLoginDoc{
		ID:          event.ID,
		UserID:      event.UserID,
		UserName:    event.UserName,
		LoginTime:   event.LoginTimeUTC.UTC(),
		IPAddress:   event.IPAddress,
		BrowserInfo: event.BrowserInfo,
		Region:      event.Region,
		Provider:    event.Provider,
		Success:     event.Success,
	})
	if err != nil {
		return fmt.Errorf("marshal login event: %w", err)
	}
	if err := s.es.Index(loginEventsIndex, event.ID, doc); err != nil {
		return fmt.Errorf("index login event: %w", err)
	}
	return nil
}

// RecentLogins implements HistoryStore.
func (s *ESLoginStore) RecentLogins(_ context.Context, userID string, since time.Time, limit int) ([]LoginEvent, error) {
	query := fmt.Sprintf(`{
		"size": %d,
		"sort": [{"login_time": {"order": "desc"}}],
		"query": {
			"bool": {
				"filter": [
					{"term": {"user_id": %q}},
					{"range": {"login_time": {"gte": %q}}}
				]
			}
		}
	}`, limit, userID, since.UTC().Format(time.RFC3339))

	body, err := s.es.Search(loginEventsIndex, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("search login history: %w", err)
	}

	var resp database.EsSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode login history response: %w", err)
	}

	events := make([]LoginEvent, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var doc esLoginDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode login event document: %w", err)
		}
		events = append(events, LoginEvent{
			ID:           doc.ID,
			UserID:       doc.UserID,
			UserName:     doc.UserName,
			LoginTimeUTC: doc.LoginTime,
			IPAddress:    doc.IPAddress,
			BrowserInfo:  doc.BrowserInfo,
			Region:       doc.Region,
			Provider:     doc.Provider,
			Success:      doc.Success,
		})
	}
	return events, nil
}

// FailuresByIP implements HistoryStore using a cardinality aggregation for the
// distinct-account count.
func (s *ESLoginStore) FailuresByIP(_ context.Context, ip string, from, to time.Time) (int, int, error) {
	query := fmt.Sprintf(`{
		"size": 0,
		"track_total_hits": true,
		"query": {
			"bool": {
				"filter": [
					{"term": {"ip_address": %q}},
					{"term": {"success": false}},
					{"range": {"login_time": {"gte": %q, "lte": %q}}}
				]
			}
		},
		"aggs": {
			"accounts": {"cardinality": {"field": "user_id"}}
		}
	}`, ip, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))

	body, err := s.es.Search(loginEventsIndex, strings.NewReader(query))
	if err != nil {
		return 0, 0, fmt.Errorf("search failures by ip: %w", err)
	}

	var resp struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
		} `json:"hits"`
		Aggregations struct {
			Accounts struct {
				Value float64 `json:"value"`
			} `json:"accounts"`
		} `json:"aggregations"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, 0, fmt.Errorf("decode failures by ip response: %w", err)
	}
	return resp.Hits.Total.Value, int(resp.Aggregations.Accounts.Value), nil
}

type esLoginDoc struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	LoginTime   time.Time `json:"login_time"`
	IPAddress   string    `json:"ip_address"`
	BrowserInfo string    `json:"browser_info"`
	Region      string    `json:"region"`
	Provider    string    `json:"provider"`
	Success     bool      `json:"success"`
}
