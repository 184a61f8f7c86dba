package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// IssueType identifies which recurring newsletter an issue belongs to.
type IssueType string

// IssueType constants.
const (
	IssueTypeUrgent    IssueType = "urgent"
	IssueTypeEvergreen IssueType = "evergreen"
)

// ParseIssueType validates s as an IssueType.
func ParseIssueType(s string) (IssueType, error) {
	switch IssueType(s) {
	case IssueTypeUrgent, IssueTypeEvergreen:
		return IssueType(s), nil
	default:
		return "", fmt.Errorf("unknown issue type %q (expected urgent or evergreen)", s)
	}
}

// IssueStatus is the lifecycle state of an issue.
type IssueStatus string

// IssueStatus constants.
const (
	IssueStatusDraft     IssueStatus = "draft"
	IssueStatusScheduled IssueStatus = "scheduled"
	IssueStatusPublished IssueStatus = "published"
	IssueStatusArchived  IssueStatus = "archived"
)

// NewsletterIssue is one edition of the urgent or evergreen newsletter.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type NewsletterIssue struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Type        IssueType   `db:"issue_type" json:"type"`
	IssueDate   *time.Time  `db:"issue_date" json:"issue_date,omitempty"`
	Subject     *string     `db:"subject" json:"subject,omitempty"`
	PreviewText *string     `db:"preview_text" json:"preview_text,omitempty"`
	Status      IssueStatus `db:"status" json:"status"`
	ScheduledAt *time.Time  `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CampaignID  *string     `db:"campaign_id" json:"campaign_id,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// NewNewsletterIssue creates a draft issue of the given type.
func NewNewsletterIssue(issueType IssueType) *NewsletterIssue {
	now := time.Now()
	return &NewsletterIssue{
		ID:        uuid.New(),
		Type:      issueType,
		Status:    IssueStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasSubject reports whether the issue has a non-blank subject line.
func (i *NewsletterIssue) HasSubject() bool {
	return i.Subject != nil && trimmed(*i.Subject) != ""
}

// IssueMetadataUpdate carries the user-editable issue fields. Nil fields are left unchanged;
// an empty Subject or PreviewText clears the stored value.
type IssueMetadataUpdate struct {
	IssueDate   *time.Time `json:"issue_date,omitempty"`
	Subject     *string    `json:"subject,omitempty"`
	PreviewText *string    `json:"preview_text,omitempty"`
}

// UnmarshalJSON decodes issue_date as a calendar date (2006-01-02) or an
// RFC 3339 timestamp.
func (u *IssueMetadataUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		IssueDate   *string `json:"issue_date"`
		Subject     *string `json:"subject"`
		PreviewText *string `json:"preview_text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out IssueMetadataUpdate
	if raw.IssueDate != nil {
		d, err := ParseIssueDate(*raw.IssueDate)
		if err != nil {
			return err
		}
		out.IssueDate = &d
	}
	out.Subject = raw.Subject
	out.PreviewText = raw.PreviewText
	*u = out
	return nil
}

// IssueDateLayout is the calendar-date form of an issue date.
const IssueDateLayout = "2006-01-02"

// ParseIssueDate parses a calendar date, falling back to RFC 3339.
func ParseIssueDate(s string) (time.Time, error) {
	if d, err := time.Parse(IssueDateLayout, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid issue date %q (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

// IsEmpty reports whether the update changes nothing.
func (u IssueMetadataUpdate) IsEmpty() bool {
	return u.IssueDate == nil && u.Subject == nil && u.PreviewText == nil
}

// Apply writes the update onto issue.
func (u IssueMetadataUpdate) Apply(issue *NewsletterIssue) {
	if u.IssueDate != nil {
		d := *u.IssueDate
		issue.IssueDate = &d
	}
	if u.Subject != nil {
		issue.Subject = nullable(*u.Subject)
	}
	if u.PreviewText != nil {
		issue.PreviewText = nullable(*u.PreviewText)
	}
	issue.UpdatedAt = time.Now()
}

// PublishState is the result of a publish or status sync that gets written back to an issue.
type PublishState struct {
	Status      IssueStatus `json:"status"`
	CampaignID  *string     `json:"campaign_id,omitempty"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty"`
}

// nullable mirrors NULLIF(BTRIM(s), '') in the issue queries.
func nullable(s string) *string {
	t := trimmed(s)
	if t == "" {
		return nil
	}
	return &t
}
