package handler

import (
	"errors"
	"net/http"

	"github.com/ad-tracker/newsletter-curator/internal/db"
	"github.com/ad-tracker/newsletter-curator/internal/ordering"
	"github.com/ad-tracker/newsletter-curator/internal/placement"
	"github.com/ad-tracker/newsletter-curator/internal/publish"
	"github.com/ad-tracker/newsletter-curator/internal/validation"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, statusCode int, code, message string, details map[string]interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}

// statusFor maps a domain error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	var verr *validation.RequestError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, ordering.ErrIndexOutOfRange):
		return http.StatusBadRequest, "INDEX_OUT_OF_RANGE"
	case placement.IsDuplicateAssignment(err):
		return http.StatusConflict, "DUPLICATE_ASSIGNMENT"
	case errors.Is(err, publish.ErrIssueClosed):
		return http.StatusConflict, "ISSUE_CLOSED"
	case placement.IsNotFound(err), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case publish.IsNotPublishable(err):
		return http.StatusUnprocessableEntity, "NOT_PUBLISHABLE"
	case publish.IsCampaignFailure(err):
		return http.StatusBadGateway, "CAMPAIGN_FAILURE"
	case placement.IsPersistenceFailure(err):
		return http.StatusBadGateway, "PERSISTENCE_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// respondError writes err with its mapped status. The message is the error
// text itself so collaborator failures surface verbatim.
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	var details map[string]interface{}
	var verr *validation.RequestError
	if errors.As(err, &verr) {
		details = map[string]interface{}{"fields": verr.Fields}
	}
	_ = c.Error(err)
	sendError(c, status, code, err.Error(), details)
}
