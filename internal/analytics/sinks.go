package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// NopSink discards every batch.
type NopSink struct{}

// Send implements Sink.
func (NopSink) Send(context.Context, []Event) error { return nil }

// RESTSink posts batches to a PostgREST-style analytics_events endpoint.
type RESTSink struct {
	url    string
	key    string
	client *http.Client
}

// NewRESTSink returns a sink for the service at baseURL using key as both
// the apikey header and the bearer token.
func NewRESTSink(baseURL, key string, client *http.Client) *RESTSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RESTSink{
		url:    strings.TrimRight(baseURL, "/") + "/rest/v1/analytics_events",
		key:    key,
		client: client,
	}
}

// Send implements Sink.
func (s *RESTSink) Send(ctx context.Context, events []Event) error {
	body, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post events: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post events: HTTP %d", resp.StatusCode)
	}
	return nil
}

// SQLSink inserts batches into the analytics_events table.
type SQLSink struct {
	db *sqlx.DB
}

// NewSQLSink wraps an open pool. The table comes from the scores migrations.
func NewSQLSink(db *sqlx.DB) *SQLSink {
	return &SQLSink{db: db}
}

// Send implements Sink with one multi-row insert.
func (s *SQLSink) Send(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO analytics_events (session_id, event, data, created_at)
		 VALUES (:session_id, :event, :data, :created_at)`, events)
	if err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return nil
}
