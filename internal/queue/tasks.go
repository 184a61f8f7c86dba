package queue

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Task types
const (
	TypeCampaignStatusSync = "campaign:sync_status"
)

// QueueStatusSync is the asynq queue status sync tasks run on.
const QueueStatusSync = "status_sync"

// StatusSyncPayload is the payload for campaign status sync tasks
type StatusSyncPayload struct {
	IssueID    uuid.UUID `json:"issue_id"`
	CampaignID string    `json:"campaign_id"`
	SendAt     time.Time `json:"send_at"`
}

// NewStatusSyncTask creates a new status sync task payload
func NewStatusSyncTask(issueID uuid.UUID, campaignID string, sendAt time.Time) (*StatusSyncPayload, error) {
	if issueID == uuid.Nil {
		return nil, fmt.Errorf("issue ID is required")
	}
	if campaignID == "" {
		return nil, fmt.Errorf("campaign ID is required")
	}

	return &StatusSyncPayload{
		IssueID:    issueID,
		CampaignID: campaignID,
		SendAt:     sendAt.UTC(),
	}, nil
}

// Marshal serializes the payload to JSON
func (p *StatusSyncPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// taskID dedupes syncs for the same issue and send time.
func (p *StatusSyncPayload) taskID() string {
	return fmt.Sprintf("sync:%s:%d", p.IssueID, p.SendAt.Unix())
}

// UnmarshalStatusSyncPayload deserializes JSON to payload
func UnmarshalStatusSyncPayload(data []byte) (*StatusSyncPayload, error) {
	var payload StatusSyncPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.IssueID == uuid.Nil {
		return nil, fmt.Errorf("payload missing issue ID")
	}
	return &payload, nil
}
