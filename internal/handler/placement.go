// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"net/http"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultFavoritesLimit = 200

// PlacementStore is the placement surface the API drives.
type PlacementStore interface {
	Add(ctx context.Context, issueID uuid.UUID, videoID string, position *int) (*models.NewsletterItem, error)
	Remove(ctx context.Context, itemID uuid.UUID) error
	ReorderWithinIssue(ctx context.Context, issueID uuid.UUID, from, to int) error
	MoveAcrossIssues(ctx context.Context, itemID, targetIssueID uuid.UUID, targetIndex int) error
	UpdateFields(ctx context.Context, itemID uuid.UUID, patch models.FieldsPatch) (*models.NewsletterItem, error)
	UpdateIssueMetadata(ctx context.Context, issueID uuid.UUID, update models.IssueMetadataUpdate) (*models.NewsletterIssue, error)
	Issue(issueID uuid.UUID) (*models.NewsletterIssue, error)
	Items(issueID uuid.UUID) ([]*models.NewsletterItem, error)
	CurrentIssue(issueType models.IssueType) (*models.NewsletterIssue, bool)
	AvailableVideos(pool []*models.CuratedVideo) []*models.CuratedVideo
	DraftText(issueID uuid.UUID) (string, error)
}

// FavoritesSource lists the curated videos eligible for placement.
type FavoritesSource interface {
	ListFavorites(ctx context.Context, limit int) ([]*models.CuratedVideo, error)
}

// AddItemRequest places a favorited video into an issue.
type AddItemRequest struct {
	VideoID  string `json:"video_id" validate:"required,videoid"`
	Position *int   `json:"position,omitempty" validate:"omitempty,gte=0"`
}

// ReorderRequest moves the item at From to To within one issue.
type ReorderRequest struct {
	From *int `json:"from" validate:"required,gte=0"`
	To   *int `json:"to" validate:"required,gte=0"`
}

// MoveRequest moves an item into another issue at Index.
type MoveRequest struct {
	IssueID string `json:"issue_id" validate:"required,uuid"`
	Index   *int   `json:"index" validate:"required,gte=0"`
}

// IssueView is an issue with its ordered items.
type IssueView struct {
	Issue *models.NewsletterIssue  `json:"issue"`
	Items []*models.NewsletterItem `json:"items"`
}

// PlacementHandler serves the issue and item endpoints.
type PlacementHandler struct {
	store          PlacementStore
	favorites      FavoritesSource
	favoritesLimit int
	openIssue      func(ctx context.Context, issueType models.IssueType) error
	logger         *zap.Logger
}

// NewPlacementHandler creates a new PlacementHandler.
func NewPlacementHandler(store PlacementStore, favorites FavoritesSource, favoritesLimit int, logger *zap.Logger) *PlacementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if favoritesLimit <= 0 {
		favoritesLimit = defaultFavoritesLimit
	}
	return &PlacementHandler{
		store:          store,
		favorites:      favorites,
		favoritesLimit: favoritesLimit,
		logger:         logger.With(zap.String("component", "placement-api")),
	}
}

// WithIssueOpener sets the hook used to open a new issue once the current one
// of a type has been published or archived.
func (h *PlacementHandler) WithIssueOpener(open func(ctx context.Context, issueType models.IssueType) error) *PlacementHandler {
	h.openIssue = open
	return h
}

// CurrentIssue handles GET /current/:type.
func (h *PlacementHandler) CurrentIssue(c *gin.Context) {
	issueType, err := models.ParseIssueType(c.Param("type"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_ISSUE_TYPE", err.Error(), nil)
		return
	}

	issue, ok := h.store.CurrentIssue(issueType)
	if !ok && h.openIssue != nil {
		if err := h.openIssue(c.Request.Context(), issueType); err != nil {
			h.logger.Error("Failed to open issue", zap.String("type", string(issueType)), zap.Error(err))
			respondError(c, err)
			return
		}
		issue, ok = h.store.CurrentIssue(issueType)
	}
	if !ok {
		sendError(c, http.StatusNotFound, "NOT_FOUND", "no open issue of type "+string(issueType), nil)
		return
	}
	h.writeIssue(c, issue.ID)
}

// GetIssue handles GET /issues/:id.
func (h *PlacementHandler) GetIssue(c *gin.Context) {
	issueID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	h.writeIssue(c, issueID)
}

// UpdateIssue handles PATCH /issues/:id.
func (h *PlacementHandler) UpdateIssue(c *gin.Context) {
	issueID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.IssueMetadataUpdate
	if !bindJSON(c, &req) {
		return
	}

	issue, err := h.store.UpdateIssueMetadata(c.Request.Context(), issueID, req)
	if err != nil {
		h.fail(c, "update issue metadata", err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// AddItem handles POST /issues/:id/items.
func (h *PlacementHandler) AddItem(c *gin.Context) {
	issueID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.store.Add(c.Request.Context(), issueID, req.VideoID, req.Position)
	if err != nil {
		h.fail(c, "add item", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ReorderItems handles POST /issues/:id/reorder.
func (h *PlacementHandler) ReorderItems(c *gin.Context) {
	issueID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req ReorderRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.store.ReorderWithinIssue(c.Request.Context(), issueID, *req.From, *req.To); err != nil {
		h.fail(c, "reorder items", err)
		return
	}
	h.writeIssue(c, issueID)
}

// RemoveItem handles DELETE /items/:id.
func (h *PlacementHandler) RemoveItem(c *gin.Context) {
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.store.Remove(c.Request.Context(), itemID); err != nil {
		h.fail(c, "remove item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveItem handles POST /items/:id/move.
func (h *PlacementHandler) MoveItem(c *gin.Context) {
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req MoveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	target := uuid.MustParse(req.IssueID)

	if err := h.store.MoveAcrossIssues(c.Request.Context(), itemID, target, *req.Index); err != nil {
		h.fail(c, "move item", err)
		return
	}
	h.writeIssue(c, target)
}

// UpdateItemFields handles PATCH /items/:id/fields.
func (h *PlacementHandler) UpdateItemFields(c *gin.Context) {
	itemID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var patch models.FieldsPatch
	if !bindJSON(c, &patch) {
		return
	}

	item, err := h.store.UpdateFields(c.Request.Context(), itemID, patch)
	if err != nil {
		h.fail(c, "update item fields", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Draft handles GET /issues/:id/draft and returns the assembled plain text.
func (h *PlacementHandler) Draft(c *gin.Context) {
	issueID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	text, err := h.store.DraftText(issueID)
	if err != nil {
		h.fail(c, "assemble draft", err)
		return
	}
	c.String(http.StatusOK, text)
}

// AvailableVideos handles GET /videos/available.
func (h *PlacementHandler) AvailableVideos(c *gin.Context) {
	pool, err := h.favorites.ListFavorites(c.Request.Context(), h.favoritesLimit)
	if err != nil {
		h.logger.Error("Failed to list favorites", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list favorites", nil)
		return
	}

	videos := h.store.AvailableVideos(pool)
	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"count":  len(videos),
	})
}

func (h *PlacementHandler) writeIssue(c *gin.Context, issueID uuid.UUID) {
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
	c.JSON(http.StatusOK, IssueView{Issue: issue, Items: items})
}

func (h *PlacementHandler) fail(c *gin.Context, op string, err error) {
	if status, _ := statusFor(err); status >= http.StatusInternalServerError {
		h.logger.Warn("Placement request failed", zap.String("op", op), zap.Error(err))
	}
	respondError(c, err)
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_ID", name+" must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON: "+err.Error(), nil)
		return false
	}
	return true
}

func bindAndValidate(c *gin.Context, dst any) bool {
	if !bindJSON(c, dst) {
		return false
	}
	if err := validation.Struct(dst); err != nil {
		respondError(c, err)
		return false
	}
	return true
}
