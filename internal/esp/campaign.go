// Package esp is a client for the email service provider's campaign API.
package esp

import "time"

// CampaignStatus is the ESP-side state of a campaign.
type CampaignStatus string

// CampaignStatus constants.
const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSent      CampaignStatus = "sent"
	CampaignStatusArchived  CampaignStatus = "archived"
)

// Campaign is a campaign as reported by the ESP.
type Campaign struct {
	ID          string         `json:"id"`
	Status      CampaignStatus `json:"status"`
	WebURL      string         `json:"web_url,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
}

// Payload is the content submitted when creating or updating a campaign.
type Payload struct {
	Subject     string     `json:"subject"`
	PreviewText string     `json:"preview_text,omitempty"`
	HTMLContent string     `json:"html_content"`
	TextContent string     `json:"text_content,omitempty"`
	SendAt      *time.Time `json:"send_at,omitempty"`
}

type scheduleRequest struct {
	SendAt time.Time `json:"send_at"`
}
