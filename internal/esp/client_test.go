package esp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateCampaign(t *testing.T) {
	var got Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/campaigns", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmp_1","status":"draft","web_url":"https://esp.example.com/c/cmp_1"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/v1/", APIKey: "secret"})

	campaign, err := client.CreateCampaign(context.Background(), Payload{
		Subject:     "Five signals",
		HTMLContent: "<p>hi</p>",
		TextContent: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "cmp_1", campaign.ID)
	assert.Equal(t, CampaignStatusDraft, campaign.Status)
	assert.Equal(t, "Five signals", got.Subject)
	assert.Equal(t, "<p>hi</p>", got.HTMLContent)
}

func TestClient_ScheduleCampaign(t *testing.T) {
	sendAt := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campaigns/cmp_1/schedule", r.URL.Path)

		var req scheduleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, sendAt.Equal(req.SendAt))

		_, _ = w.Write([]byte(`{"id":"cmp_1","status":"scheduled","scheduled_at":"2025-03-03T09:00:00Z"}`))
	}))
	defer server.Close()

	campaign, err := NewClient(Config{BaseURL: server.URL}).ScheduleCampaign(context.Background(), "cmp_1", sendAt)
	require.NoError(t, err)
	assert.Equal(t, CampaignStatusScheduled, campaign.Status)
	require.NotNil(t, campaign.ScheduledAt)
	assert.True(t, sendAt.Equal(*campaign.ScheduledAt))
}

func TestClient_GetCampaign(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"id":"cmp_9","status":"sent"}`))
	}))
	defer server.Close()

	campaign, err := NewClient(Config{BaseURL: server.URL}).GetCampaign(context.Background(), "cmp_9")
	require.NoError(t, err)
	assert.Equal(t, CampaignStatusSent, campaign.Status)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"subject required"}`))
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).UpdateCampaign(context.Background(), "cmp_1", Payload{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "subject required")
}

func TestClient_MissingCampaignID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"draft"}`))
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).CreateCampaign(context.Background(), Payload{})
	assert.Error(t, err)
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, FailureThreshold: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.GetCampaign(ctx, "cmp_1")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}

	_, err := client.GetCampaign(ctx, "cmp_1")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		_, err := client.GetCampaign(context.Background(), "missing")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}
}
