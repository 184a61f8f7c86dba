//go:build integration

package events

import (
	"context"
	"testing"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/config"
	"github.com/ad-tracker/newsletter-curator/internal/db/models"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRabbitMQ(t *testing.T) *config.RabbitMQConfig {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3.13-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return &config.RabbitMQConfig{
		Host:       host,
		Port:       port.Int(),
		User:       "guest",
		Password:   "guest",
		Exchange:   "test.newsletter",
		Queue:      "test.newsletter.status",
		RoutingKey: "issue.status_changed",
	}
}

func TestPublisher_PublishIssueStatus(t *testing.T) {
	cfg := setupTestRabbitMQ(t)

	p, err := NewPublisher(cfg)
	require.NoError(t, err)
	defer p.Close()
	require.True(t, p.IsHealthy())

	issue := models.NewNewsletterIssue(models.IssueTypeUrgent)
	ev := NewIssueStatusChanged(issue, models.IssueStatusDraft, models.PublishState{Status: models.IssueStatusPublished}, "send")

	require.NoError(t, p.PublishIssueStatus(context.Background(), ev))

	msg, ok, err := p.channel.Get(cfg.Queue, true)
	require.NoError(t, err)
	require.True(t, ok)

	var got IssueStatusChanged
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, issue.ID, got.IssueID)
	assert.Equal(t, models.IssueStatusPublished, got.Status)
	assert.Equal(t, ev.EventID.String(), msg.MessageId)

	require.NoError(t, p.Close())
	assert.False(t, p.IsHealthy())
}
