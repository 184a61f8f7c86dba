package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewsletterItem is the placement of one curated video in one issue at one position.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type NewsletterItem struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	IssueID   uuid.UUID     `db:"issue_id" json:"issue_id"`
	VideoID   string        `db:"video_id" json:"video_id"`
	Position  int           `db:"position" json:"position"`
	Fields    ItemFields    `db:"fields" json:"fields"`
	Video     *CuratedVideo `db:"-" json:"video,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// NewNewsletterItem creates a new item for video under issueID at position.
func NewNewsletterItem(issueID uuid.UUID, video *CuratedVideo, position int) *NewsletterItem {
	now := time.Now()
	item := &NewsletterItem{
		ID:        uuid.New(),
		IssueID:   issueID,
		Position:  position,
		Video:     video,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if video != nil {
		item.VideoID = video.VideoID
	}
	return item
}

// Clone returns a copy of the item that shares no mutable state with it.
func (it *NewsletterItem) Clone() *NewsletterItem {
	c := *it
	c.Fields = it.Fields.Clone()
	if it.Video != nil {
		v := *it.Video
		c.Video = &v
	}
	return &c
}

// ItemFields is the optional curation metadata attached to an item.
type ItemFields struct {
	PodcastName      string   `json:"podcast_name,omitempty"`
	GuestName        string   `json:"guest_name,omitempty"`
	Actor            string   `json:"actor,omitempty"`
	Topics           string   `json:"topics,omitempty"`
	Signals          []string `json:"signals,omitempty"`
	Nuggets          []string `json:"nuggets,omitempty"`
	WhyNow           string   `json:"why_now,omitempty"`
	WhyCompounds     string   `json:"why_compounds,omitempty"`
	ListenIf         string   `json:"listen_if,omitempty"`
	SkipIf           string   `json:"skip_if,omitempty"`
	Framework        string   `json:"framework,omitempty"`
	RelevanceHorizon string   `json:"relevance_horizon,omitempty"`
}

// Clone returns a deep copy of the fields.
func (f ItemFields) Clone() ItemFields {
	c := f
	if f.Signals != nil {
		c.Signals = append([]string(nil), f.Signals...)
	}
	if f.Nuggets != nil {
		c.Nuggets = append([]string(nil), f.Nuggets...)
	}
	return c
}

// FieldsPatch is a partial ItemFields. Nil members are left unchanged when merged.
type FieldsPatch struct {
	PodcastName      *string  `json:"podcast_name,omitempty"`
	GuestName        *string  `json:"guest_name,omitempty"`
	Actor            *string  `json:"actor,omitempty"`
	Topics           *string  `json:"topics,omitempty"`
	Signals          []string `json:"signals,omitempty"`
	Nuggets          []string `json:"nuggets,omitempty"`
	WhyNow           *string  `json:"why_now,omitempty"`
	WhyCompounds     *string  `json:"why_compounds,omitempty"`
	ListenIf         *string  `json:"listen_if,omitempty"`
	SkipIf           *string  `json:"skip_if,omitempty"`
	Framework        *string  `json:"framework,omitempty"`
	RelevanceHorizon *string  `json:"relevance_horizon,omitempty"`
}

// Merge shallow-merges the patch into f and returns the result.
func (f ItemFields) Merge(p FieldsPatch) ItemFields {
	out := f.Clone()

	setString(&out.PodcastName, p.PodcastName)
	setString(&out.GuestName, p.GuestName)
	setString(&out.Actor, p.Actor)
	setString(&out.Topics, p.Topics)
	setString(&out.WhyNow, p.WhyNow)
	setString(&out.WhyCompounds, p.WhyCompounds)
	setString(&out.ListenIf, p.ListenIf)
	setString(&out.SkipIf, p.SkipIf)
	setString(&out.Framework, p.Framework)
	setString(&out.RelevanceHorizon, p.RelevanceHorizon)

	if p.Signals != nil {
		out.Signals = append([]string{}, p.Signals...)
	}
	if p.Nuggets != nil {
		out.Nuggets = append([]string{}, p.Nuggets...)
	}

	return out
}

// PositionUpdate is one (id, position) pair of a batch renumbering.
type PositionUpdate struct {
	ItemID   uuid.UUID `json:"item_id"`
	Position int       `json:"position"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
