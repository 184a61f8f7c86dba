package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/publish"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSyncer struct {
	mock.Mock
}

func (m *mockSyncer) Sync(ctx context.Context, issueID uuid.UUID) (*publish.SyncResult, error) {
	args := m.Called(ctx, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*publish.SyncResult), args.Error(1)
}

func syncTask(t *testing.T, issueID uuid.UUID) *asynq.Task {
	t.Helper()
	payload, err := NewStatusSyncTask(issueID, "cmp-1", time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	data, err := payload.Marshal()
	require.NoError(t, err)
	return asynq.NewTask(TypeCampaignStatusSync, data)
}

func TestStatusSyncHandler_ProcessTask(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		issueID := uuid.New()
		syncer := new(mockSyncer)
		syncer.On("Sync", mock.Anything, issueID).Return(&publish.SyncResult{
			Outcome:  publish.SyncUpdated,
			Previous: models.IssueStatusScheduled,
			Status:   models.IssueStatusPublished,
		}, nil)

		err := NewStatusSyncHandler(syncer, nil).ProcessTask(context.Background(), syncTask(t, issueID))

		require.NoError(t, err)
		syncer.AssertExpectations(t)
	})

	t.Run("still scheduled asks for a retry", func(t *testing.T) {
		issueID := uuid.New()
		syncer := new(mockSyncer)
		syncer.On("Sync", mock.Anything, issueID).Return(&publish.SyncResult{
			Outcome:  publish.SyncUnchanged,
			Previous: models.IssueStatusScheduled,
			Status:   models.IssueStatusScheduled,
		}, nil)

		err := NewStatusSyncHandler(syncer, nil).ProcessTask(context.Background(), syncTask(t, issueID))

		assert.ErrorIs(t, err, ErrCampaignPending)
	})

	t.Run("skipped", func(t *testing.T) {
		issueID := uuid.New()
		syncer := new(mockSyncer)
		syncer.On("Sync", mock.Anything, issueID).Return(&publish.SyncResult{
			Outcome: publish.SyncSkipped,
			Status:  models.IssueStatusPublished,
		}, nil)

		err := NewStatusSyncHandler(syncer, nil).ProcessTask(context.Background(), syncTask(t, issueID))

		assert.NoError(t, err)
	})

	t.Run("sync error is returned", func(t *testing.T) {
		issueID := uuid.New()
		syncer := new(mockSyncer)
		syncer.On("Sync", mock.Anything, issueID).Return(nil, errors.New("esp down"))

		err := NewStatusSyncHandler(syncer, nil).ProcessTask(context.Background(), syncTask(t, issueID))

		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("bad payload skips retry", func(t *testing.T) {
		syncer := new(mockSyncer)
		task := asynq.NewTask(TypeCampaignStatusSync, []byte(`{"issue_id":`))

		err := NewStatusSyncHandler(syncer, nil).ProcessTask(context.Background(), task)

		assert.ErrorIs(t, err, asynq.SkipRetry)
		syncer.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
	})
}

func TestNewStatusSyncTask(t *testing.T) {
	issueID := uuid.New()
	sendAt := time.Date(2025, 3, 3, 9, 0, 0, 0, time.FixedZone("CET", 3600))

	payload, err := NewStatusSyncTask(issueID, "cmp-9", sendAt)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, payload.SendAt.Location())
	assert.Equal(t, "sync:"+issueID.String()+":"+"1740988800", payload.taskID())

	data, err := payload.Marshal()
	require.NoError(t, err)
	decoded, err := UnmarshalStatusSyncPayload(data)
	require.NoError(t, err)
	assert.Equal(t, issueID, decoded.IssueID)
	assert.Equal(t, "cmp-9", decoded.CampaignID)

	_, err = NewStatusSyncTask(uuid.Nil, "cmp-9", sendAt)
	assert.Error(t, err)
	_, err = NewStatusSyncTask(issueID, "", sendAt)
	assert.Error(t, err)
	_, err = UnmarshalStatusSyncPayload([]byte(`{"campaign_id":"x"}`))
	assert.Error(t, err)
}
