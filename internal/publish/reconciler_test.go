package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db"
	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/esp"
	"github.com/ad-tracker/newsletter-curator/internal/events"
	"github.com/ad-tracker/newsletter-curator/internal/placement"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockIssueReader struct {
	mock.Mock
}

func (m *mockIssueReader) GetIssueByID(ctx context.Context, issueID uuid.UUID) (*models.NewsletterIssue, error) {
	args := m.Called(ctx, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NewsletterIssue), args.Error(1)
}

func scheduledIssue(campaignID string) *models.NewsletterIssue {
	issue := models.NewNewsletterIssue(models.IssueTypeEvergreen)
	issue.Status = models.IssueStatusScheduled
	at := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	issue.ScheduledAt = &at
	if campaignID != "" {
		issue.CampaignID = &campaignID
	}
	return issue
}

func TestReconciler_Sync(t *testing.T) {
	t.Run("sent campaign publishes the issue", func(t *testing.T) {
		issue := scheduledIssue("cmp-1")
		reader := new(mockIssueReader)
		writer := new(mockWriter)
		client := new(mockCampaignClient)
		evts := new(mockEvents)
		store := placement.NewStore(nil, nil)
		store.Load(issue, nil)

		reader.On("GetIssueByID", mock.Anything, issue.ID).Return(issue, nil)
		client.On("GetCampaign", mock.Anything, "cmp-1").Return(&esp.Campaign{ID: "cmp-1", Status: esp.CampaignStatusSent}, nil)
		writer.On("ApplyPublishState", mock.Anything, issue.ID, mock.MatchedBy(func(s models.PublishState) bool {
			return s.Status == models.IssueStatusPublished && *s.CampaignID == "cmp-1"
		})).Return(nil)
		evts.On("PublishIssueStatus", mock.Anything, mock.MatchedBy(func(ev *events.IssueStatusChanged) bool {
			return ev.Action == "sync" && ev.Previous == models.IssueStatusScheduled && ev.Status == models.IssueStatusPublished
		})).Return(nil)

		r := NewReconciler(reader, writer, client, store, evts, nil)
		res, err := r.Sync(context.Background(), issue.ID)

		require.NoError(t, err)
		assert.Equal(t, SyncUpdated, res.Outcome)
		assert.Equal(t, models.IssueStatusPublished, res.Status)

		inMemory, err := store.Issue(issue.ID)
		require.NoError(t, err)
		assert.Equal(t, models.IssueStatusPublished, inMemory.Status)

		reader.AssertExpectations(t)
		client.AssertExpectations(t)
		writer.AssertExpectations(t)
		evts.AssertExpectations(t)
	})

	t.Run("archived campaign archives the issue", func(t *testing.T) {
		issue := scheduledIssue("cmp-2")
		reader := new(mockIssueReader)
		writer := new(mockWriter)
		client := new(mockCampaignClient)

		reader.On("GetIssueByID", mock.Anything, issue.ID).Return(issue, nil)
		client.On("GetCampaign", mock.Anything, "cmp-2").Return(&esp.Campaign{ID: "cmp-2", Status: esp.CampaignStatusArchived}, nil)
		writer.On("ApplyPublishState", mock.Anything, issue.ID, mock.Anything).Return(nil)

		r := NewReconciler(reader, writer, client, nil, nil, nil)
		res, err := r.Sync(context.Background(), issue.ID)

		require.NoError(t, err)
		assert.Equal(t, models.IssueStatusArchived, res.Status)
		writer.AssertExpectations(t)
	})

	t.Run("still scheduled is unchanged", func(t *testing.T) {
		issue := scheduledIssue("cmp-3")
		reader := new(mockIssueReader)
		writer := new(mockWriter)
		client := new(mockCampaignClient)

		reader.On("GetIssueByID", mock.Anything, issue.ID).Return(issue, nil)
		client.On("GetCampaign", mock.Anything, "cmp-3").Return(&esp.Campaign{ID: "cmp-3", Status: esp.CampaignStatusScheduled}, nil)

		r := NewReconciler(reader, writer, client, nil, nil, nil)
		res, err := r.Sync(context.Background(), issue.ID)

		require.NoError(t, err)
		assert.Equal(t, SyncUnchanged, res.Outcome)
		writer.AssertNotCalled(t, "ApplyPublishState", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("issue without campaign is skipped", func(t *testing.T) {
		issue := scheduledIssue("")
		reader := new(mockIssueReader)
		client := new(mockCampaignClient)
		reader.On("GetIssueByID", mock.Anything, issue.ID).Return(issue, nil)

		r := NewReconciler(reader, new(mockWriter), client, nil, nil, nil)
		res, err := r.Sync(context.Background(), issue.ID)

		require.NoError(t, err)
		assert.Equal(t, SyncSkipped, res.Outcome)
		client.AssertNotCalled(t, "GetCampaign", mock.Anything, mock.Anything)
	})

	t.Run("published issue is skipped", func(t *testing.T) {
		issue := scheduledIssue("cmp-4")
		issue.Status = models.IssueStatusPublished
		reader := new(mockIssueReader)
		client := new(mockCampaignClient)
		reader.On("GetIssueByID", mock.Anything, issue.ID).Return(issue, nil)

		r := NewReconciler(reader, new(mockWriter), client, nil, nil, nil)
		res, err := r.Sync(context.Background(), issue.ID)

		require.NoError(t, err)
		assert.Equal(t, SyncSkipped, res.Outcome)
		client.AssertNotCalled(t, "GetCampaign", mock.Anything, mock.Anything)
	})

	t.Run("esp failure is a campaign failure", func(t *testing.T) {
		issue := scheduledIssue("cmp-5")
		reader := new(mockIssueReader)
		client := new(mockCampaignClient)
		reader.On("GetIssueByID", mock.Anything, issue.ID).Return(issue, nil)
		client.On("GetCampaign", mock.Anything, "cmp-5").Return(nil, errors.New("timeout"))

		r := NewReconciler(reader, new(mockWriter), client, nil, nil, nil)
		_, err := r.Sync(context.Background(), issue.ID)

		require.Error(t, err)
		assert.True(t, IsCampaignFailure(err))
	})

	t.Run("missing issue", func(t *testing.T) {
		id := uuid.New()
		reader := new(mockIssueReader)
		reader.On("GetIssueByID", mock.Anything, id).Return(nil, db.ErrNotFound)

		r := NewReconciler(reader, new(mockWriter), new(mockCampaignClient), nil, nil, nil)
		_, err := r.Sync(context.Background(), id)

		assert.ErrorIs(t, err, db.ErrNotFound)
	})
}
