// Package publish decides how an issue is handed to the ESP and which
// lifecycle status it ends up in.
package publish

import (
	"strings"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/esp"
)

// Action is what a publish request does with the campaign.
type Action string

// Action constants.
const (
	ActionSend     Action = "send"
	ActionSchedule Action = "schedule"
	ActionDraft    Action = "draft"
)

// Options is the caller's publish intent.
type Options struct {
	SendNow bool       `json:"send_now"`
	SendAt  *time.Time `json:"send_at,omitempty"`
}

// Plan is the resolved publish action. SendAt is set only for ActionSchedule.
type Plan struct {
	Action Action     `json:"action"`
	SendAt *time.Time `json:"send_at,omitempty"`
}

// ResolvePublishPlan picks the action for a publish request. An explicit send
// wins over any schedule time; an explicit schedule time wins over the one
// stored on the issue.
func ResolvePublishPlan(opts Options, issue *models.NewsletterIssue) Plan {
	switch {
	case opts.SendNow:
		return Plan{Action: ActionSend}
	case opts.SendAt != nil:
		t := *opts.SendAt
		return Plan{Action: ActionSchedule, SendAt: &t}
	case issue != nil && issue.ScheduledAt != nil:
		t := *issue.ScheduledAt
		return Plan{Action: ActionSchedule, SendAt: &t}
	default:
		return Plan{Action: ActionDraft}
	}
}

// ResolveIssueStatus maps an action and the ESP-reported campaign status onto
// an issue status. An empty reported status means the ESP said nothing.
func ResolveIssueStatus(action Action, reported esp.CampaignStatus) models.IssueStatus {
	if action == ActionSend {
		return models.IssueStatusPublished
	}

	switch reported {
	case esp.CampaignStatusSent:
		return models.IssueStatusPublished
	case esp.CampaignStatusArchived:
		return models.IssueStatusArchived
	case esp.CampaignStatusScheduled:
		return models.IssueStatusScheduled
	}

	if action == ActionSchedule {
		return models.IssueStatusScheduled
	}
	return models.IssueStatusDraft
}

// ActionForStatus is the action that would have produced status. Used when
// re-deriving status from the ESP outside a publish request.
func ActionForStatus(status models.IssueStatus) Action {
	switch status {
	case models.IssueStatusPublished:
		return ActionSend
	case models.IssueStatusScheduled:
		return ActionSchedule
	default:
		return ActionDraft
	}
}

// CheckReadiness fails with ErrNotPublishable when the issue has no subject
// or no items.
func CheckReadiness(issue *models.NewsletterIssue, items []*models.NewsletterItem) error {
	var missing []string
	if issue == nil || !issue.HasSubject() {
		missing = append(missing, "subject line")
	}
	if len(items) == 0 {
		missing = append(missing, "items")
	}
	if len(missing) > 0 {
		return &ReadinessError{Missing: missing}
	}
	return nil
}

func joinMissing(missing []string) string {
	return strings.Join(missing, " and ")
}
