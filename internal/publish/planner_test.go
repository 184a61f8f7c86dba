package publish

import (
	"testing"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
	"github.com/ad-tracker/newsletter-curator/internal/esp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePublishPlan(t *testing.T) {
	explicit := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	stored := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	scheduledIssue := models.NewNewsletterIssue(models.IssueTypeUrgent)
	scheduledIssue.ScheduledAt = &stored
	plainIssue := models.NewNewsletterIssue(models.IssueTypeUrgent)

	tests := []struct {
		name   string
		opts   Options
		issue  *models.NewsletterIssue
		want   Action
		sendAt *time.Time
	}{
		{
			name:  "send now overrides explicit and stored times",
			opts:  Options{SendNow: true, SendAt: &explicit},
			issue: scheduledIssue,
			want:  ActionSend,
		},
		{
			name:   "explicit time schedules",
			opts:   Options{SendAt: &explicit},
			issue:  plainIssue,
			want:   ActionSchedule,
			sendAt: &explicit,
		},
		{
			name:   "explicit time wins over stored time",
			opts:   Options{SendAt: &explicit},
			issue:  scheduledIssue,
			want:   ActionSchedule,
			sendAt: &explicit,
		},
		{
			name:   "stored time is reused",
			opts:   Options{},
			issue:  scheduledIssue,
			want:   ActionSchedule,
			sendAt: &stored,
		},
		{
			name:  "nothing scheduled stays draft",
			opts:  Options{},
			issue: plainIssue,
			want:  ActionDraft,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ResolvePublishPlan(tt.opts, tt.issue)
			assert.Equal(t, tt.want, plan.Action)
			if tt.sendAt == nil {
				assert.Nil(t, plan.SendAt)
				return
			}
			require.NotNil(t, plan.SendAt)
			assert.True(t, tt.sendAt.Equal(*plan.SendAt))
		})
	}
}

func TestResolvePublishPlan_CopiesTime(t *testing.T) {
	stored := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	issue := models.NewNewsletterIssue(models.IssueTypeEvergreen)
	issue.ScheduledAt = &stored

	plan := ResolvePublishPlan(Options{}, issue)
	require.NotNil(t, plan.SendAt)
	*plan.SendAt = plan.SendAt.Add(time.Hour)

	assert.True(t, stored.Equal(*issue.ScheduledAt))
}

func TestResolveIssueStatus(t *testing.T) {
	tests := []struct {
		action   Action
		reported esp.CampaignStatus
		want     models.IssueStatus
	}{
		{ActionSend, "", models.IssueStatusPublished},
		{ActionSend, esp.CampaignStatusDraft, models.IssueStatusPublished},
		{ActionSend, esp.CampaignStatusScheduled, models.IssueStatusPublished},
		{ActionSend, esp.CampaignStatusArchived, models.IssueStatusPublished},
		{ActionSchedule, esp.CampaignStatusSent, models.IssueStatusPublished},
		{ActionSchedule, esp.CampaignStatusArchived, models.IssueStatusArchived},
		{ActionSchedule, esp.CampaignStatusScheduled, models.IssueStatusScheduled},
		{ActionSchedule, esp.CampaignStatusDraft, models.IssueStatusScheduled},
		{ActionSchedule, "", models.IssueStatusScheduled},
		{ActionDraft, "", models.IssueStatusDraft},
		{ActionDraft, esp.CampaignStatusDraft, models.IssueStatusDraft},
		{ActionDraft, esp.CampaignStatusScheduled, models.IssueStatusScheduled},
		{ActionDraft, esp.CampaignStatusSent, models.IssueStatusPublished},
		{ActionDraft, esp.CampaignStatusArchived, models.IssueStatusArchived},
	}

	for _, tt := range tests {
		name := string(tt.action) + "/" + string(tt.reported)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveIssueStatus(tt.action, tt.reported))
		})
	}
}

func TestActionForStatus(t *testing.T) {
	assert.Equal(t, ActionSend, ActionForStatus(models.IssueStatusPublished))
	assert.Equal(t, ActionSchedule, ActionForStatus(models.IssueStatusScheduled))
	assert.Equal(t, ActionDraft, ActionForStatus(models.IssueStatusDraft))
	assert.Equal(t, ActionDraft, ActionForStatus(models.IssueStatusArchived))
}

func TestCheckReadiness(t *testing.T) {
	subject := "This week"
	blank := "   "
	ready := models.NewNewsletterIssue(models.IssueTypeUrgent)
	ready.Subject = &subject
	item := models.NewNewsletterItem(ready.ID, models.NewCuratedVideo("v1", "Title", "Channel", "https://youtu.be/v1", time.Now()), 0)

	t.Run("ready", func(t *testing.T) {
		assert.NoError(t, CheckReadiness(ready, []*models.NewsletterItem{item}))
	})

	t.Run("missing subject", func(t *testing.T) {
		issue := models.NewNewsletterIssue(models.IssueTypeUrgent)
		err := CheckReadiness(issue, []*models.NewsletterItem{item})
		require.Error(t, err)
		assert.True(t, IsNotPublishable(err))
		assert.Contains(t, err.Error(), "subject line")
	})

	t.Run("blank subject", func(t *testing.T) {
		issue := models.NewNewsletterIssue(models.IssueTypeUrgent)
		issue.Subject = &blank
		assert.True(t, IsNotPublishable(CheckReadiness(issue, []*models.NewsletterItem{item})))
	})

	t.Run("no items", func(t *testing.T) {
		err := CheckReadiness(ready, nil)
		require.Error(t, err)
		assert.True(t, IsNotPublishable(err))
		assert.Contains(t, err.Error(), "items")
	})

	t.Run("both missing", func(t *testing.T) {
		issue := models.NewNewsletterIssue(models.IssueTypeEvergreen)
		err := CheckReadiness(issue, nil)
		var re *ReadinessError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, []string{"subject line", "items"}, re.Missing)
	})
}
