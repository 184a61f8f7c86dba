package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/publish"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ErrCampaignPending is returned while the ESP still reports a scheduled
// campaign, so asynq retries the task with backoff.
var ErrCampaignPending = errors.New("campaign not yet sent")

// StatusSyncer re-derives an issue's status from its campaign.
type StatusSyncer interface {
	Sync(ctx context.Context, issueID uuid.UUID) (*publish.SyncResult, error)
}

// StatusSyncHandler handles campaign status sync tasks
type StatusSyncHandler struct {
	syncer StatusSyncer
	logger *zap.Logger
}

// NewStatusSyncHandler creates a new status sync task handler
func NewStatusSyncHandler(syncer StatusSyncer, logger *zap.Logger) *StatusSyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusSyncHandler{
		syncer: syncer,
		logger: logger.With(zap.String("component", "status-sync")),
	}
}

// ProcessTask implements asynq.Handler
func (h *StatusSyncHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalStatusSyncPayload(task.Payload())
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	res, err := h.syncer.Sync(ctx, payload.IssueID)
	if err != nil {
		h.logger.Warn("Campaign status sync failed",
			zap.String("issueId", payload.IssueID.String()),
			zap.String("campaignId", payload.CampaignID),
			zap.Error(err))
		return err
	}

	h.logger.Info("Campaign status synced",
		zap.String("issueId", payload.IssueID.String()),
		zap.String("outcome", res.Outcome),
		zap.String("status", string(res.Status)))

	if res.Outcome == publish.SyncUnchanged && res.Status == models.IssueStatusScheduled {
		return fmt.Errorf("%w: issue %s", ErrCampaignPending, payload.IssueID)
	}
	return nil
}

// Server wraps asynq server
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	logger      *zap.Logger
}

// NewServer creates a new queue server
func NewServer(redisAddr string, concurrency int, handler *StatusSyncHandler, logger *zap.Logger) (*Server, error) {
	// Parse Redis URL to extract connection details (host, password, db, TLS)
	redisOpt, err := ParseRedisURL(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "queue-server"))

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueStatusSync: 10,
			},
			IsFailure: func(err error) bool {
				return !errors.Is(err, ErrCampaignPending)
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				if errors.Is(err, ErrCampaignPending) {
					return
				}
				logger.Error("Task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(TypeCampaignStatusSync, handler)

	return &Server{
		asynqServer: srv,
		mux:         mux,
		logger:      logger,
	}, nil
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("Starting task processing server")
	return s.asynqServer.Start(s.mux)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.logger.Info("Shutting down task processing server")
	s.asynqServer.Shutdown()
}
