// Package triage is a small Go client for the OdontoFlow gateway HTTP
// API. It depends only on the standard library so connector code can
// embed it without inheriting the gateway's stack.
package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running OdontoFlow gateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a gateway client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures the client
type Option func(*Client)

// WithAPIKey sets a bearer token for gateways behind an authenticating proxy
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// TriageRequest is one inbound patient message. Timestamp is optional
// RFC3339; when empty the gateway stamps the message with its own clock.
type TriageRequest struct {
	SenderID   string `json:"sender_id"`
	Message    string `json:"message"`
	SenderName string `json:"sender_name,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// TriageReply is the gateway's decision for one message.
type TriageReply struct {
	Intent        string  `json:"intent"`
	Confidence    float64 `json:"confidence"`
	Reply         string  `json:"reply"`
	IsNewPatient  bool    `json:"is_new_patient"`
	PatientStatus string  `json:"patient_status"`
	NextAction    string  `json:"next_action"`
}

// Slot is a free consultation window.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Triage submits one patient message and returns the gateway's reply.
func (c *Client) Triage(ctx context.Context, req TriageRequest) (*TriageReply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/triage", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var reply TriageReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &reply, nil
}

// FreeSlots lists the free consultation slots for a day. The date is
// YYYY-MM-DD in the clinic's timezone; empty means today.
func (c *Client) FreeSlots(ctx context.Context, date string) ([]Slot, error) {
	endpoint := c.baseURL + "/api/v1/agenda/slots"
	if date != "" {
		endpoint += "?date=" + url.QueryEscape(date)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result struct {
		Date  string `json:"date"`
		Slots []Slot `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Slots, nil
}

// Health checks if the gateway is up and answering
func (c *Client) Health(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// apiError keeps the gateway's own message when the error body carries
// the {"error": ...} envelope, and falls back to the raw body.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		return fmt.Errorf("gateway error %d: %s", resp.StatusCode, envelope.Error)
	}
	return fmt.Errorf("gateway error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
