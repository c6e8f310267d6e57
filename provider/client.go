// Package provider talks to the call-control REST API of a Plivo-compatible
// voice provider (Plivo, Vobiz).
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/AVVKavvk/plivo-ivr/logger"
)

// DefaultBaseURL is Plivo's account API root.
const DefaultBaseURL = "https://api.plivo.com/v1/Account"

// CallRequest is the payload of a call creation request.
type CallRequest struct {
	From         string `json:"from"`
	To           string `json:"to"`
	AnswerURL    string `json:"answer_url"`
	AnswerMethod string `json:"answer_method"`
	HangupURL    string `json:"hangup_url,omitempty"`
	HangupMethod string `json:"hangup_method,omitempty"`
}

// CallResponse is the provider's answer to a call creation request.
type CallResponse struct {
	APIID       string `json:"api_id"`
	Message     string `json:"message"`
	RequestUUID string `json:"request_uuid"`
}

// APIError is a non-2xx reply from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("provider API returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client places and ends calls. It is safe for concurrent use.
type Client struct {
	baseURL   string
	authID    string
	authToken string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
}

type Option func(*Client)

// WithHTTPClient replaces the default client with a 10s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithBreakerSettings overrides the circuit breaker settings.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(st)
	}
}

// NewClient creates a client for the account authID. An empty baseURL
// selects DefaultBaseURL.
func NewClient(baseURL, authID, authToken string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authID:    authID,
		authToken: authToken,
		http:      &http.Client{Timeout: 10 * time.Second},
		breaker:   gobreaker.NewCircuitBreaker(defaultBreakerSettings()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "provider-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	}
}

// isSuccessful keeps caller mistakes (4xx) from tripping the breaker.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode < 500
}

// CreateCall asks the provider to dial req.To and fetch req.AnswerURL once
// the call is answered.
func (c *Client) CreateCall(ctx context.Context, req CallRequest) (*CallResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/Call/", c.baseURL, url.PathEscape(c.authID))
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var resp CallResponse
		if err := c.do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp := out.(*CallResponse)
	logger.Log.Info("call created",
		zap.String("to", req.To),
		zap.String("request_uuid", resp.RequestUUID),
	)
	return resp, nil
}

// Hangup ends a live call.
func (c *Client) Hangup(ctx context.Context, callUUID string) error {
	endpoint := fmt.Sprintf("%s/%s/Call/%s/", c.baseURL, url.PathEscape(c.authID), url.PathEscape(callUUID))
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, http.MethodDelete, endpoint, nil, nil)
	})
	if err != nil {
		return err
	}

	logger.Log.Info("call terminated", zap.String("call_uuid", callUUID))
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.authID, c.authToken)
	req.Header.Set("X-Auth-ID", c.authID)
	req.Header.Set("X-Auth-Token", c.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// errorMessage extracts the human readable part of an error body. Plivo
// uses "error", Vobiz uses "message".
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
