package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/esp"
	"github.com/ad-tracker/newsletter-curator/internal/events"
	"github.com/ad-tracker/newsletter-curator/internal/metrics"
	"github.com/ad-tracker/newsletter-curator/internal/placement"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrIssueClosed is returned when publishing an issue that was already sent or archived.
var ErrIssueClosed = errors.New("issue is already published or archived")

// CampaignClient is the ESP campaign API.
type CampaignClient interface {
	CreateCampaign(ctx context.Context, payload esp.Payload) (*esp.Campaign, error)
	UpdateCampaign(ctx context.Context, id string, payload esp.Payload) (*esp.Campaign, error)
	ScheduleCampaign(ctx context.Context, id string, sendAt time.Time) (*esp.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*esp.Campaign, error)
}

// Renderer produces the HTML and plain text bodies of an issue.
type Renderer interface {
	Render(issue *models.NewsletterIssue, items []*models.NewsletterItem) (html string, text string, err error)
}

// IssueSource is the in-memory view of issues, normally a *placement.Store.
type IssueSource interface {
	Issue(issueID uuid.UUID) (*models.NewsletterIssue, error)
	Items(issueID uuid.UUID) ([]*models.NewsletterItem, error)
	ApplyPublishState(issueID uuid.UUID, state models.PublishState) error
}

// IssueWriter persists publish results.
type IssueWriter interface {
	ApplyPublishState(ctx context.Context, issueID uuid.UUID, state models.PublishState) error
}

// EventPublisher emits issue lifecycle events.
type EventPublisher interface {
	PublishIssueStatus(ctx context.Context, ev *events.IssueStatusChanged) error
}

// SyncScheduler enqueues a later campaign status check.
type SyncScheduler interface {
	EnqueueStatusSync(ctx context.Context, issueID uuid.UUID, campaignID string, at time.Time) error
}

// Result is the outcome of a successful publish.
type Result struct {
	Plan     Plan                    `json:"plan"`
	Issue    *models.NewsletterIssue `json:"issue"`
	Campaign *esp.Campaign           `json:"campaign,omitempty"`
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithEvents sets the lifecycle event publisher.
func WithEvents(e EventPublisher) Option {
	return func(p *Publisher) { p.events = e }
}

// WithSyncScheduler sets the scheduler used to recheck scheduled campaigns.
func WithSyncScheduler(s SyncScheduler) Option {
	return func(p *Publisher) { p.scheduler = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// Publisher runs the publish flow for one issue at a time.
type Publisher struct {
	source    IssueSource
	writer    IssueWriter
	client    CampaignClient
	renderer  Renderer
	events    EventPublisher
	scheduler SyncScheduler
	logger    *zap.Logger
	now       func() time.Time
}

// NewPublisher creates a Publisher.
func NewPublisher(source IssueSource, writer IssueWriter, client CampaignClient, renderer Renderer, opts ...Option) *Publisher {
	p := &Publisher{
		source:   source,
		writer:   writer,
		client:   client,
		renderer: renderer,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("component", "publisher"))
	return p
}

// Publish checks readiness, submits the issue to the ESP according to the
// resolved plan and records the resulting status. ESP failures return a
// *CampaignError and leave the issue status unchanged.
func (p *Publisher) Publish(ctx context.Context, issueID uuid.UUID, opts Options) (res *Result, err error) {
	plan := Plan{Action: ActionDraft}
	defer func() { metrics.RecordPublish(string(plan.Action), err) }()

	issue, err := p.source.Issue(issueID)
	if err != nil {
		return nil, err
	}
	items, err := p.source.Items(issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status == models.IssueStatusPublished || issue.Status == models.IssueStatusArchived {
		return nil, fmt.Errorf("%w: %s is %s", ErrIssueClosed, issueID, issue.Status)
	}
	if err := CheckReadiness(issue, items); err != nil {
		return nil, err
	}

	plan = ResolvePublishPlan(opts, issue)
	previous := issue.Status
	state := models.PublishState{
		Status:      ResolveIssueStatus(plan.Action, ""),
		CampaignID:  issue.CampaignID,
		ScheduledAt: plan.SendAt,
	}

	var campaign *esp.Campaign
	if plan.Action != ActionDraft {
		campaign, err = p.submit(ctx, issue, items, plan)
		if err != nil {
			p.logger.Warn("Campaign submission failed",
				zap.String("issueId", issueID.String()),
				zap.String("action", string(plan.Action)),
				zap.Error(err))
			return nil, err
		}
		state.Status = ResolveIssueStatus(plan.Action, campaign.Status)
		state.CampaignID = &campaign.ID
		if plan.Action == ActionSend {
			sentAt := p.now().UTC()
			state.ScheduledAt = &sentAt
		}
	}

	if plan.Action != ActionDraft || state.Status != previous {
		if err := p.record(ctx, issueID, state); err != nil {
			return nil, err
		}
	}

	updated, err := p.source.Issue(issueID)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Issue published",
		zap.String("issueId", issueID.String()),
		zap.String("action", string(plan.Action)),
		zap.String("previous", string(previous)),
		zap.String("status", string(state.Status)))

	if state.Status != previous {
		p.emit(ctx, updated, previous, state, string(plan.Action))
	}
	if state.Status == models.IssueStatusScheduled && state.CampaignID != nil && plan.SendAt != nil {
		p.scheduleSync(ctx, issueID, *state.CampaignID, *plan.SendAt)
	}

	return &Result{Plan: plan, Issue: updated, Campaign: campaign}, nil
}

// submit creates or updates the campaign and then schedules it. A send is
// scheduled at the current instant.
func (p *Publisher) submit(ctx context.Context, issue *models.NewsletterIssue, items []*models.NewsletterItem, plan Plan) (*esp.Campaign, error) {
	html, text, err := p.renderer.Render(issue, items)
	if err != nil {
		return nil, fmt.Errorf("render issue %s: %w", issue.ID, err)
	}

	sendAt := p.now().UTC()
	if plan.Action == ActionSchedule && plan.SendAt != nil {
		sendAt = *plan.SendAt
	}

	payload := esp.Payload{
		Subject:     *issue.Subject,
		HTMLContent: html,
		TextContent: text,
		SendAt:      &sendAt,
	}
	if issue.PreviewText != nil {
		payload.PreviewText = *issue.PreviewText
	}

	var campaign *esp.Campaign
	if issue.CampaignID != nil && *issue.CampaignID != "" {
		campaign, err = p.client.UpdateCampaign(ctx, *issue.CampaignID, payload)
		if err != nil {
			return nil, &CampaignError{Op: "update", Err: err}
		}
	} else {
		campaign, err = p.client.CreateCampaign(ctx, payload)
		if err != nil {
			return nil, &CampaignError{Op: "create", Err: err}
		}
	}

	scheduled, err := p.client.ScheduleCampaign(ctx, campaign.ID, sendAt)
	if err != nil {
		return nil, &CampaignError{Op: "schedule", Err: err}
	}
	if scheduled.ID == "" {
		scheduled.ID = campaign.ID
	}
	return scheduled, nil
}

// record persists state and then mirrors it onto the in-memory issue.
func (p *Publisher) record(ctx context.Context, issueID uuid.UUID, state models.PublishState) error {
	if err := p.writer.ApplyPublishState(ctx, issueID, state); err != nil {
		return &placement.PersistenceError{Op: "apply publish state", Err: err}
	}
	return p.source.ApplyPublishState(issueID, state)
}

func (p *Publisher) emit(ctx context.Context, issue *models.NewsletterIssue, previous models.IssueStatus, state models.PublishState, action string) {
	if p.events == nil {
		return
	}
	ev := events.NewIssueStatusChanged(issue, previous, state, action)
	if err := p.events.PublishIssueStatus(ctx, ev); err != nil {
		p.logger.Warn("Failed to publish issue status event",
			zap.String("issueId", issue.ID.String()),
			zap.Error(err))
	}
}

func (p *Publisher) scheduleSync(ctx context.Context, issueID uuid.UUID, campaignID string, at time.Time) {
	if p.scheduler == nil {
		return
	}
	if err := p.scheduler.EnqueueStatusSync(ctx, issueID, campaignID, at); err != nil {
		p.logger.Warn("Failed to enqueue campaign status sync",
			zap.String("issueId", issueID.String()),
			zap.String("campaignId", campaignID),
			zap.Error(err))
	}
}
