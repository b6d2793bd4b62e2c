// Package ai is the client for the external generative-language service used
// to summarize incidents, answer natural-language searches, and surface trend
// insights.
//
// Failures are classified into a small taxonomy so callers can tell a bad
// credential from a network problem from a garbled answer. The service is a
// collaborator only: its failures never touch draft or history state, and at
// most one request per feature is in flight at a time.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the default generative-language API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel is the default generation model.
	DefaultModel = "gemini-2.0-flash"
)

// Features with a single-in-flight guard each.
const (
	FeatureAnalysis = "analysis"
	FeatureSearch   = "search"
	FeatureInsights = "insights"
)

var (
	// ErrInvalidCredential indicates the API key was rejected.
	ErrInvalidCredential = errors.New("ai: invalid credential")

	// ErrUnavailable indicates a network failure or service-side error.
	ErrUnavailable = errors.New("ai: service unavailable")

	// ErrMalformedResponse indicates the service answered with something the
	// client could not interpret.
	ErrMalformedResponse = errors.New("ai: malformed response")

	// ErrBusy indicates a request for the same feature is already in flight.
	ErrBusy = errors.New("ai: request already in flight")

	// ErrNoAPIKey indicates no API key is configured.
	ErrNoAPIKey = errors.New("ai: no API key configured")
)

// Config holds client settings.
type Config struct {
	BaseURL   string        // API endpoint (default: DefaultBaseURL)
	Model     string        // generation model (default: DefaultModel)
	APIKeyEnv string        // environment variable holding the API key
	Timeout   time.Duration // per-request timeout
}

// Client calls the generative-language service.
type Client struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string

	mu       sync.Mutex
	inFlight map[string]bool
}

// New creates a client from config, reading the API key from the configured
// environment variable.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	var apiKey string
	if cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}

	return &Client{
		client:   &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    model,
		apiKey:   apiKey,
		inFlight: make(map[string]bool),
	}
}

// acquire claims the in-flight slot for a feature.
func (c *Client) acquire(feature string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[feature] {
		return ErrBusy
	}
	c.inFlight[feature] = true
	return nil
}

func (c *Client) release(feature string) {
	c.mu.Lock()
	delete(c.inFlight, feature)
	c.mu.Unlock()
}

// generateRequest is the request body for the generateContent API.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse is the subset of the generateContent response we consume.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate sends a prompt and returns the first candidate's text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrInvalidCredential
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes a Markdown code fence around a JSON answer, which the
// model adds despite being asked not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
