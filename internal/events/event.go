// Package events publishes newsletter issue lifecycle changes to RabbitMQ.
package events

import (
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"

	"github.com/google/uuid"
)

// IssueStatusChanged is emitted when the publish flow or the campaign status
// sync moves an issue to a new status.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type IssueStatusChanged struct {
	EventID     uuid.UUID          `json:"event_id"`
	IssueID     uuid.UUID          `json:"issue_id"`
	IssueType   models.IssueType   `json:"issue_type"`
	Previous    models.IssueStatus `json:"previous_status"`
	Status      models.IssueStatus `json:"status"`
	Action      string             `json:"action"`
	CampaignID  string             `json:"campaign_id,omitempty"`
	ScheduledAt *time.Time         `json:"scheduled_at,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// NewIssueStatusChanged creates an event for issue moving from previous to state.
func NewIssueStatusChanged(issue *models.NewsletterIssue, previous models.IssueStatus, state models.PublishState, action string) *IssueStatusChanged {
	ev := &IssueStatusChanged{
		EventID:     uuid.New(),
		IssueID:     issue.ID,
		IssueType:   issue.Type,
		Previous:    previous,
		Status:      state.Status,
		Action:      action,
		ScheduledAt: state.ScheduledAt,
		OccurredAt:  time.Now().UTC(),
	}
	if state.CampaignID != nil {
		ev.CampaignID = *state.CampaignID
	} else if issue.CampaignID != nil {
		ev.CampaignID = *issue.CampaignID
	}
	return ev
}
