package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// syncDelay gives the ESP time to dispatch a campaign before its status is checked.
const syncDelay = 2 * time.Minute

// Client wraps asynq client for enqueueing tasks
type Client struct {
	asynqClient *asynq.Client
	logger      *zap.Logger
}

// NewClient creates a new queue client
func NewClient(redisAddr string, logger *zap.Logger) (*Client, error) {
	// Parse Redis URL to extract connection details (host, password, db, TLS)
	redisOpt, err := ParseRedisURL(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		asynqClient: asynq.NewClient(redisOpt),
		logger:      logger.With(zap.String("component", "queue")),
	}, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueStatusSync schedules a campaign status check shortly after sendAt.
// Enqueueing the same issue and send time twice is a no-op.
func (c *Client) EnqueueStatusSync(ctx context.Context, issueID uuid.UUID, campaignID string, sendAt time.Time) error {
	payload, err := NewStatusSyncTask(issueID, campaignID, sendAt)
	if err != nil {
		return fmt.Errorf("failed to create task payload: %w", err)
	}

	payloadBytes, err := payload.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeCampaignStatusSync, payloadBytes)

	info, err := c.asynqClient.EnqueueContext(ctx, task,
		asynq.ProcessAt(sendAt.Add(syncDelay)),
		asynq.MaxRetry(10),
		asynq.Timeout(time.Minute),
		asynq.Queue(QueueStatusSync),
		asynq.TaskID(payload.taskID()),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		c.logger.Debug("Status sync already enqueued",
			zap.String("issueId", issueID.String()),
			zap.String("taskId", payload.taskID()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("Enqueued campaign status sync",
		zap.String("issueId", issueID.String()),
		zap.String("campaignId", campaignID),
		zap.String("taskId", info.ID),
		zap.Time("processAt", info.NextProcessAt))
	return nil
}
