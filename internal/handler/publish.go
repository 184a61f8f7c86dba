package handler

import (
	"context"
	"net/http"

	"github.com/ad-tracker/newsletter-curator/internal/publish"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher runs the publish flow.
type Publisher interface {
	Publish(ctx context.Context, issueID uuid.UUID, opts publish.Options) (*publish.Result, error)
}

// StatusSyncer re-derives an issue's status from its campaign.
type StatusSyncer interface {
	Sync(ctx context.Context, issueID uuid.UUID) (*publish.SyncResult, error)
}

// PublishHandler serves publish, preview and status sync.
type PublishHandler struct {
	store     PlacementStore
	publisher Publisher
	syncer    StatusSyncer
	renderer  publish.Renderer
	logger    *zap.Logger
}

// NewPublishHandler creates a new PublishHandler. publisher and syncer may be
// nil when no ESP is configured.
func NewPublishHandler(store PlacementStore, publisher Publisher, syncer StatusSyncer, renderer publish.Renderer, logger *zap.Logger) *PublishHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishHandler{
		store:     store,
		publisher: publisher,
		syncer:    syncer,
		renderer:  renderer,
		logger:    logger.With(zap.String("component", "publish-api")),
	}
}

// Publish handles POST /issues/:id/publish.
func (h *PublishHandler) Publish(c *gin.Context) {
	issueID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if h.publisher == nil {
		sendError(c, http.StatusServiceUnavailable, "ESP_DISABLED", "no email service provider is configured", nil)
		return
	}

	var opts publish.Options
	if c.Request.ContentLength != 0 && !bindJSON(c, &opts) {
		return
	}

	res, err := h.publisher.Publish(c.Request.Context(), issueID, opts)
	if err != nil {
		if status, _ := statusFor(err); status >= http.StatusInternalServerError {
			h.logger.Warn("Publish failed", zap.String("issueId", issueID.String()), zap.Error(err))
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SyncStatus handles POST /issues/:id/sync.
func (h *PublishHandler) SyncStatus(c *gin.Context) {
	issueID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if h.syncer == nil {
		sendError(c, http.StatusServiceUnavailable, "ESP_DISABLED", "no email service provider is configured", nil)
		return
	}

	res, err := h.syncer.Sync(c.Request.Context(), issueID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Preview handles GET /issues/:id/preview and returns the rendered HTML email.
func (h *PublishHandler) Preview(c *gin.Context) {
	issueID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	issue, err := h.store.Issue(issueID)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.store.Items(issueID)
	if err != nil {
		respondError(c, err)
		return
	}

	html, _, err := h.renderer.Render(issue, items)
	if err != nil {
		h.logger.Error("Failed to render preview", zap.String("issueId", issueID.String()), zap.Error(err))
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
