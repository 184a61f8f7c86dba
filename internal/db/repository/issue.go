package repository

import (
	"context"
	"fmt"

	"github.com/ad-tracker/newsletter-curator/internal/db"
	"github.com/ad-tracker/newsletter-curator/internal/db/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IssueRepository defines operations for managing newsletter issues.
type IssueRepository interface {
	// Create inserts a new issue.
	Create(ctx context.Context, issue *models.NewsletterIssue) error

	// GetIssueByID retrieves a single issue by id.
	GetIssueByID(ctx context.Context, issueID uuid.UUID) (*models.NewsletterIssue, error)

	// GetCurrentDraft retrieves the most recent open (draft or scheduled) issue of a type.
	GetCurrentDraft(ctx context.Context, issueType models.IssueType) (*models.NewsletterIssue, error)

	// UpdateIssueMetadata writes the user-editable fields of an issue.
	UpdateIssueMetadata(ctx context.Context, issueID uuid.UUID, update models.IssueMetadataUpdate) error

	// ApplyPublishState writes the status, campaign id and schedule time of an issue.
	ApplyPublishState(ctx context.Context, issueID uuid.UUID, state models.PublishState) error
}

type issueRepository struct {
	pool db.DBTX
}

// NewIssueRepository creates a new IssueRepository.
func NewIssueRepository(pool db.DBTX) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, issue_type, issue_date, subject, preview_text, status, scheduled_at, campaign_id, created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *models.NewsletterIssue) error {
	query := `
		INSERT INTO newsletter_issues (` + issueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.Type,
		issue.IssueDate,
		issue.Subject,
		issue.PreviewText,
		issue.Status,
		issue.ScheduledAt,
		issue.CampaignID,
		issue.CreatedAt,
		issue.UpdatedAt,
	)
	if err != nil {
		return db.WrapError(err, "create issue")
	}

	return nil
}

func (r *issueRepository) GetIssueByID(ctx context.Context, issueID uuid.UUID) (*models.NewsletterIssue, error) {
	query := `SELECT ` + issueColumns + ` FROM newsletter_issues WHERE id = $1`

	issue, err := scanIssue(r.pool.QueryRow(ctx, query, issueID))
	if err != nil {
		return nil, db.WrapError(err, "get issue by id")
	}

	return issue, nil
}

func (r *issueRepository) GetCurrentDraft(ctx context.Context, issueType models.IssueType) (*models.NewsletterIssue, error) {
	query := `
		SELECT ` + issueColumns + `
		FROM newsletter_issues
		WHERE issue_type = $1 AND status IN ('draft', 'scheduled')
		ORDER BY created_at DESC
		LIMIT 1
	`

	issue, err := scanIssue(r.pool.QueryRow(ctx, query, issueType))
	if err != nil {
		return nil, db.WrapError(err, "get current draft")
	}

	return issue, nil
}

func (r *issueRepository) UpdateIssueMetadata(ctx context.Context, issueID uuid.UUID, update models.IssueMetadataUpdate) error {
	// Each column is only touched when its flag is set, so unspecified fields keep their value.
	query := `
		UPDATE newsletter_issues
		SET issue_date   = CASE WHEN $2 THEN $3::date ELSE issue_date END,
		    subject      = CASE WHEN $4 THEN NULLIF(BTRIM($5::text), '') ELSE subject END,
		    preview_text = CASE WHEN $6 THEN NULLIF(BTRIM($7::text), '') ELSE preview_text END,
		    updated_at   = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		issueID,
		update.IssueDate != nil, update.IssueDate,
		update.Subject != nil, update.Subject,
		update.PreviewText != nil, update.PreviewText,
	)
	if err != nil {
		return db.WrapError(err, "update issue metadata")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "update issue metadata")
	}

	return nil
}

func (r *issueRepository) ApplyPublishState(ctx context.Context, issueID uuid.UUID, state models.PublishState) error {
	query := `
		UPDATE newsletter_issues
		SET status = $2,
		    campaign_id = COALESCE($3, campaign_id),
		    scheduled_at = $4,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, issueID, state.Status, state.CampaignID, state.ScheduledAt)
	if err != nil {
		return db.WrapError(err, "apply publish state")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "apply publish state")
	}

	return nil
}

func scanIssue(row pgx.Row) (*models.NewsletterIssue, error) {
	issue := &models.NewsletterIssue{}
	err := row.Scan(
		&issue.ID,
		&issue.Type,
		&issue.IssueDate,
		&issue.Subject,
		&issue.PreviewText,
		&issue.Status,
		&issue.ScheduledAt,
		&issue.CampaignID,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan issue: %w", err)
	}
	return issue, nil
}

// OpenCurrentIssue returns the current open issue of a type, creating an empty
// draft when there is none.
func OpenCurrentIssue(ctx context.Context, issues IssueRepository, issueType models.IssueType) (*models.NewsletterIssue, error) {
	issue, err := issues.GetCurrentDraft(ctx, issueType)
	if err == nil {
		return issue, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	issue = models.NewNewsletterIssue(issueType)
	if err := issues.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("open %s issue: %w", issueType, err)
	}
	return issue, nil
}
