package draft

import (
	"strings"
	"testing"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItem(position int, channel, url string, fields models.ItemFields) *models.NewsletterItem {
	video := models.NewCuratedVideo("vid"+channel, "Episode", channel, url, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	item := models.NewNewsletterItem(uuid.New(), video, position)
	item.Fields = fields
	return item
}

func TestAssembler_EmptyList(t *testing.T) {
	a := New("Signal Weekly")

	t.Run("urgent", func(t *testing.T) {
		out := a.Urgent(nil, nil)
		require.NotEmpty(t, out)
		assert.Contains(t, out, "[ADD FIRST MUST WATCH ITEM]")
		assert.Contains(t, out, PlaceholderIssueDate)
		assert.NotContains(t, out, "MUST WATCH\n")
	})

	t.Run("evergreen", func(t *testing.T) {
		out := a.Evergreen([]*models.NewsletterItem{}, nil)
		assert.Contains(t, out, "[ADD FIRST MUST KEEP ITEM]")
		assert.True(t, strings.HasPrefix(out, "Signal Weekly | Evergreen\n"))
	})
}

func TestAssembler_Header(t *testing.T) {
	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	out := New("").Urgent(nil, &date)

	assert.True(t, strings.HasPrefix(out, DefaultPublicationName+" | Urgent\nMarch 3, 2025\n"))
	assert.Contains(t, out, PlaceholderMeta)
	assert.Contains(t, out, "unsubscribe")
}

func TestAssembler_Deterministic(t *testing.T) {
	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	items := []*models.NewsletterItem{
		newItem(0, "Acquired", "https://www.youtube.com/watch?v=a", models.ItemFields{GuestName: "Jensen Huang", Signals: []string{"one"}}),
		newItem(1, "Dwarkesh", "https://www.youtube.com/watch?v=b", models.ItemFields{}),
	}

	a := New("Signal Weekly")
	assert.Equal(t, a.Urgent(items, &date), a.Urgent(items, &date))
	assert.Equal(t, a.Evergreen(items, &date), a.Evergreen(items, &date))
}

func TestAssembler_NoFieldsRendersPlaceholders(t *testing.T) {
	item := models.NewNewsletterItem(uuid.New(), nil, 0)

	t.Run("urgent", func(t *testing.T) {
		out := New("x").Urgent([]*models.NewsletterItem{item}, nil)

		for _, token := range []string{
			PlaceholderPodcastName,
			PlaceholderGuestName,
			PlaceholderVideoURL,
			PlaceholderActorLead,
			PlaceholderTopics,
			PlaceholderWhyNow,
			PlaceholderListenIf,
			PlaceholderSkipIf,
			PlaceholderHorizon,
			urgent.listPlaceholders[0],
			urgent.listPlaceholders[1],
			urgent.listPlaceholders[2],
		} {
			assert.Contains(t, out, token)
		}
		assert.NotContains(t, out, "undefined")
		assert.NotContains(t, out, ": \n")
	})

	t.Run("evergreen", func(t *testing.T) {
		out := New("x").Evergreen([]*models.NewsletterItem{item}, nil)

		assert.Contains(t, out, PlaceholderWhyCompounds)
		assert.Contains(t, out, PlaceholderFramework)
		assert.Contains(t, out, "Relevance horizon: "+EvergreenHorizon)
		assert.NotContains(t, out, PlaceholderHorizon)
		assert.Contains(t, out, evergreen.listPlaceholders[2])
	})
}

func TestAssembler_LeadItem(t *testing.T) {
	items := []*models.NewsletterItem{
		newItem(0, "Acquired", "https://www.youtube.com/watch?v=a", models.ItemFields{}),
		newItem(1, "Dwarkesh", "https://www.youtube.com/watch?v=b", models.ItemFields{}),
	}

	out := New("x").Urgent(items, nil)

	assert.Equal(t, 1, strings.Count(out, "MUST WATCH\n"))
	assert.Equal(t, 1, strings.Count(out, PlaceholderActorLead))
	assert.Equal(t, 1, strings.Count(out, PlaceholderActor+"\n"))
	assert.Less(t, strings.Index(out, "MUST WATCH"), strings.Index(out, "Acquired with"))
}

func TestAssembler_FieldValues(t *testing.T) {
	item := newItem(0, "Channel Name", "https://www.youtube.com/watch?v=abc", models.ItemFields{
		PodcastName:      "  Acquired  ",
		GuestName:        "Jensen Huang",
		Actor:            "CEO of Nvidia",
		Topics:           "AI infrastructure",
		Signals:          []string{"Demand outstrips supply", "  "},
		WhyNow:           "Earnings next week",
		ListenIf:         "you build on GPUs",
		SkipIf:           "you have heard the last three interviews",
		RelevanceHorizon: "6 months",
	})

	out := New("x").Urgent([]*models.NewsletterItem{item}, nil)

	assert.Contains(t, out, "Acquired with Jensen Huang\nhttps://www.youtube.com/watch?v=abc\n")
	assert.Contains(t, out, "Actor: CEO of Nvidia\n")
	assert.Contains(t, out, "- Demand outstrips supply\n")
	assert.Contains(t, out, "- "+urgent.listPlaceholders[1]+"\n")
	assert.Contains(t, out, "- "+urgent.listPlaceholders[2]+"\n")
	assert.Contains(t, out, "Why now: Earnings next week\n")
	assert.Contains(t, out, "Listen if you build on GPUs. Skip if you have heard the last three interviews.\n")
	assert.Contains(t, out, "Relevance horizon: 6 months\n")
	assert.NotContains(t, out, "Channel Name")
}

func TestAssembler_PodcastFallsBackToChannel(t *testing.T) {
	item := newItem(0, "Lex Fridman", "https://www.youtube.com/watch?v=abc", models.ItemFields{})

	out := New("x").Evergreen([]*models.NewsletterItem{item}, nil)

	assert.Contains(t, out, "Lex Fridman with "+PlaceholderGuestName)
}

func TestAssembler_ExtraSignalsAreDropped(t *testing.T) {
	item := newItem(0, "c", "u", models.ItemFields{Nuggets: []string{"a", "b", "c", "d"}})

	out := New("x").Evergreen([]*models.NewsletterItem{item}, nil)

	assert.Contains(t, out, "- c\n")
	assert.NotContains(t, out, "- d\n")
}

func TestAssembler_OrdersByPosition(t *testing.T) {
	first := newItem(0, "First", "u1", models.ItemFields{})
	second := newItem(1, "Second", "u2", models.ItemFields{})

	out := New("x").Urgent([]*models.NewsletterItem{second, first}, nil)

	assert.Less(t, strings.Index(out, "First with"), strings.Index(out, "Second with"))
	assert.Equal(t, 2, strings.Count(out, divider))
}

func TestAssembler_Assemble(t *testing.T) {
	a := New("x")
	assert.Equal(t, a.Urgent(nil, nil), a.Assemble(models.IssueTypeUrgent, nil, nil))
	assert.Equal(t, a.Evergreen(nil, nil), a.Assemble(models.IssueTypeEvergreen, nil, nil))
}
