package esp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/metrics"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the circuit breaker rejects calls.
var ErrCircuitOpen = errors.New("esp circuit breaker is open")

// APIError is a non-2xx response from the ESP.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("esp API returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the ESP campaign API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Campaign]
}

// Config holds the configuration for the ESP client.
type Config struct {
	BaseURL          string        // e.g., "https://api.esp.example.com/v1"
	APIKey           string        // Bearer token
	Timeout          time.Duration // Request timeout (default: 30 seconds)
	FailureThreshold uint32        // Consecutive failures before the breaker opens (default: 5)
	OpenTimeout      time.Duration // Time the breaker stays open (default: 60 seconds)
}

// NewClient creates a new ESP client.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.OpenTimeout == 0 {
		config.OpenTimeout = 60 * time.Second
	}

	threshold := config.FailureThreshold
	settings := gobreaker.Settings{
		Name:        "esp",
		MaxRequests: 1,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client errors are the caller's fault and must not open the circuit.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.SetESPCircuitState(int(to))
		},
	}

	return &Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker[*Campaign](settings),
	}
}

// CreateCampaign creates a new campaign from payload.
func (c *Client) CreateCampaign(ctx context.Context, payload Payload) (*Campaign, error) {
	return c.call(ctx, "create", http.MethodPost, "/campaigns", payload)
}

// UpdateCampaign replaces the content of an existing campaign.
func (c *Client) UpdateCampaign(ctx context.Context, id string, payload Payload) (*Campaign, error) {
	return c.call(ctx, "update", http.MethodPatch, "/campaigns/"+url.PathEscape(id), payload)
}

// ScheduleCampaign schedules a campaign for delivery at sendAt.
func (c *Client) ScheduleCampaign(ctx context.Context, id string, sendAt time.Time) (*Campaign, error) {
	return c.call(ctx, "schedule", http.MethodPost, "/campaigns/"+url.PathEscape(id)+"/schedule", scheduleRequest{SendAt: sendAt.UTC()})
}

// GetCampaign fetches the current state of a campaign.
func (c *Client) GetCampaign(ctx context.Context, id string) (*Campaign, error) {
	return c.call(ctx, "get", http.MethodGet, "/campaigns/"+url.PathEscape(id), nil)
}

func (c *Client) call(ctx context.Context, operation, method, path string, body any) (*Campaign, error) {
	start := time.Now()

	campaign, err := c.breaker.Execute(func() (*Campaign, error) {
		return c.do(ctx, method, path, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}

	metrics.RecordESPRequest(operation, err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s campaign: %w", operation, err)
	}
	return campaign, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Campaign, error) {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request to ESP: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var campaign Campaign
	if err := json.Unmarshal(respBody, &campaign); err != nil {
		return nil, fmt.Errorf("parse ESP response: %w", err)
	}
	if campaign.ID == "" {
		return nil, errors.New("parse ESP response: campaign id missing")
	}

	return &campaign, nil
}
