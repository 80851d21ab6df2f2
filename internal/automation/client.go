// Package automation is a thin typed client for the remote
// automation/reporting service. The API proxies job submission and the
// service's health snapshot; the protocol's internals live on the
// remote side.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Job is a unit of work submitted to the automation service.
type Job struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Receipt acknowledges an accepted job.
type Receipt struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	AcceptedAt time.Time `json:"acceptedAt"`
}

// HealthSnapshot is the automation service's self-reported state.
type HealthSnapshot struct {
	Health        string     `json:"health"`
	QueueDepth    int        `json:"queueDepth"`
	LastProcessed *time.Time `json:"lastProcessed,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an automation client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Enqueue submits a job and returns the service's receipt.
func (c *Client) Enqueue(ctx context.Context, job Job) (Receipt, error) {
	if strings.TrimSpace(job.Action) == "" {
		return Receipt{}, fmt.Errorf("job action is required")
	}

	body, err := json.Marshal(job)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal job: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("automation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusCreated {
		return Receipt{}, fmt.Errorf("automation service returned %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return Receipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	return receipt, nil
}

// GetHealth fetches the service's health snapshot.
func (c *Client) GetHealth(ctx context.Context) (HealthSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthSnapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return HealthSnapshot{}, fmt.Errorf("automation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HealthSnapshot{}, fmt.Errorf("automation service returned %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var snapshot HealthSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return HealthSnapshot{}, fmt.Errorf("decode health snapshot: %w", err)
	}
	return snapshot, nil
}

func readErrorBody(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(raw) == 0 {
		return "(no body)"
	}
	return strings.TrimSpace(string(raw))
}
