package publish

import (
	"context"
	"errors"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/events"
	"github.com/ad-tracker/newsletter-curator/internal/metrics"
	"github.com/ad-tracker/newsletter-curator/internal/placement"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sync outcomes.
const (
	SyncUnchanged = "unchanged"
	SyncUpdated   = "updated"
	SyncSkipped   = "skipped"
	SyncError     = "error"
)

// IssueReader loads the persisted issue.
type IssueReader interface {
	GetIssueByID(ctx context.Context, issueID uuid.UUID) (*models.NewsletterIssue, error)
}

// SyncResult describes one reconciliation.
type SyncResult struct {
	Outcome  string             `json:"outcome"`
	Previous models.IssueStatus `json:"previous_status"`
	Status   models.IssueStatus `json:"status"`
}

// Reconciler re-derives an issue's status from the campaign status the ESP
// reports, for issues whose send happens after the publish request returned.
type Reconciler struct {
	issues IssueReader
	writer IssueWriter
	client CampaignClient
	source IssueSource
	events EventPublisher
	logger *zap.Logger
}

// NewReconciler creates a Reconciler. source may be nil when no in-memory
// store needs to be kept in step.
func NewReconciler(issues IssueReader, writer IssueWriter, client CampaignClient, source IssueSource, evts EventPublisher, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		issues: issues,
		writer: writer,
		client: client,
		source: source,
		events: evts,
		logger: logger.With(zap.String("component", "reconciler")),
	}
}

// Sync fetches the campaign of issueID and writes back the status it implies.
func (r *Reconciler) Sync(ctx context.Context, issueID uuid.UUID) (res *SyncResult, err error) {
	defer func() {
		if err != nil {
			metrics.RecordStatusSync(SyncError)
			return
		}
		metrics.RecordStatusSync(res.Outcome)
	}()

	issue, err := r.issues.GetIssueByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	res = &SyncResult{Outcome: SyncSkipped, Previous: issue.Status, Status: issue.Status}
	if issue.CampaignID == nil || *issue.CampaignID == "" {
		return res, nil
	}
	if issue.Status == models.IssueStatusPublished || issue.Status == models.IssueStatusArchived {
		return res, nil
	}

	campaign, err := r.client.GetCampaign(ctx, *issue.CampaignID)
	if err != nil {
		return nil, &CampaignError{Op: "get", Err: err}
	}

	status := ResolveIssueStatus(ActionForStatus(issue.Status), campaign.Status)
	res.Status = status
	if status == issue.Status {
		res.Outcome = SyncUnchanged
		return res, nil
	}

	state := models.PublishState{
		Status:      status,
		CampaignID:  issue.CampaignID,
		ScheduledAt: issue.ScheduledAt,
	}
	if campaign.ScheduledAt != nil {
		state.ScheduledAt = campaign.ScheduledAt
	}
	if err := r.writer.ApplyPublishState(ctx, issueID, state); err != nil {
		return nil, &placement.PersistenceError{Op: "apply publish state", Err: err}
	}
	if r.source != nil {
		if err := r.source.ApplyPublishState(issueID, state); err != nil && !errors.Is(err, placement.ErrIssueNotFound) {
			return nil, err
		}
	}
	res.Outcome = SyncUpdated

	r.logger.Info("Issue status synced from campaign",
		zap.String("issueId", issueID.String()),
		zap.String("campaignStatus", string(campaign.Status)),
		zap.String("previous", string(issue.Status)),
		zap.String("status", string(status)))

	if r.events != nil {
		issue.Status = status
		ev := events.NewIssueStatusChanged(issue, res.Previous, state, "sync")
		if err := r.events.PublishIssueStatus(ctx, ev); err != nil {
			r.logger.Warn("Failed to publish issue status event",
				zap.String("issueId", issueID.String()),
				zap.Error(err))
		}
	}
	return res, nil
}
