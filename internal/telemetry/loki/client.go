// Package loki pushes roster activity lines to Grafana Loki.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"workforce-console/backend/internal/events"
)

const job = "workforce-console"

// PushRequest is the Loki push API request body (v1).
type PushRequest struct {
	Streams []Stream `json:"streams"`
}

// Stream is a single stream with labels and log entries.
type Stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"` // [timestamp_ns, line]
}

// Label names follow the Prometheus grammar; values may be any UTF-8 string.
var labelNameSanitize = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Client pushes to one Loki instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for baseURL (e.g. http://localhost:3100).
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("loki: base URL is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}, nil
}

// PushMessage pushes a raw Kafka message value. Values that decode as roster events are
// labelled and timestamped from the event; anything else is pushed as-is at now.
func (c *Client) PushMessage(ctx context.Context, raw []byte, now time.Time) error {
	ev, err := events.Decode(raw)
	if err != nil {
		return c.Push(ctx, now, string(raw), map[string]string{"event_type": "undecodable"})
	}
	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = now
	}
	return c.Push(ctx, ts, string(raw), Labels(ev))
}

// Labels are the stream labels of ev. Subjects and actors stay in the line to keep
// label cardinality bounded.
func Labels(ev events.Event) map[string]string {
	l := map[string]string{"event_type": ev.Type}
	if ev.OrgID != "" {
		l["org_id"] = ev.OrgID
	}
	if ev.Source != "" {
		l["source"] = ev.Source
	}
	return l
}

// Push sends one line with labels. job is always set.
func (c *Client) Push(ctx context.Context, ts time.Time, line string, labels map[string]string) error {
	stream := make(map[string]string, len(labels)+1)
	for k, v := range labels {
		name := labelNameSanitize.ReplaceAllString(strings.TrimSpace(k), "_")
		if v = strings.TrimSpace(v); name != "" && v != "" {
			stream[name] = v
		}
	}
	stream["job"] = job
	payload, err := json.Marshal(PushRequest{Streams: []Stream{{
		Stream: stream,
		Values: [][]string{{strconv.FormatInt(ts.UnixNano(), 10), line}},
	}}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/loki/api/v1/push", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("loki: push: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
