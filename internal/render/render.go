// Package render produces the subscriber-facing HTML and plaintext renditions
// of an issue for submission to the ESP.
//
// Unlike the curation draft, missing fields are omitted rather than replaced
// with placeholders. All item content is escaped by html/template.
package render

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
)

// Renderer renders issues with the built-in templates.
type Renderer struct {
	publicationName string
	html            *htmltemplate.Template
	text            *texttemplate.Template
}

// New parses the built-in templates.
func New(publicationName string) (*Renderer, error) {
	funcs := funcMap()

	html, err := htmltemplate.New("issue.html").Funcs(htmltemplate.FuncMap(funcs)).Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}

	text, err := texttemplate.New("issue.txt").Funcs(texttemplate.FuncMap(funcs)).Parse(textTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}

	return &Renderer{
		publicationName: publicationName,
		html:            html,
		text:            text,
	}, nil
}

type itemView struct {
	Lead           bool
	LeadLabel      string
	Podcast        string
	Guest          string
	Title          string
	URL            string
	ThumbnailURL   string
	DurationSecs   int
	Actor          string
	Topics         string
	BulletLabel    string
	Bullets        []string
	RationaleLabel string
	Rationale      string
	Framework      string
	ListenIf       string
	SkipIf         string
	Horizon        string
}

type pageData struct {
	PublicationName string
	Section         string
	Subject         string
	PreviewText     string
	IssueDate       *time.Time
	Items           []itemView
}

// Render returns the HTML and plaintext renditions of issue with its ordered items.
func (r *Renderer) Render(issue *models.NewsletterIssue, items []*models.NewsletterItem) (string, string, error) {
	data := r.buildData(issue, items)

	var htmlBuf bytes.Buffer
	if err := r.html.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute html template: %w", err)
	}

	var textBuf bytes.Buffer
	if err := r.text.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute text template: %w", err)
	}

	return htmlBuf.String(), textBuf.String(), nil
}

func (r *Renderer) buildData(issue *models.NewsletterIssue, items []*models.NewsletterItem) *pageData {
	evergreen := issue.Type == models.IssueTypeEvergreen

	data := &pageData{
		PublicationName: r.publicationName,
		Section:         "Urgent",
		IssueDate:       issue.IssueDate,
		Items:           make([]itemView, 0, len(items)),
	}
	if evergreen {
		data.Section = "Evergreen"
	}
	if issue.Subject != nil {
		data.Subject = strings.TrimSpace(*issue.Subject)
	}
	if issue.PreviewText != nil {
		data.PreviewText = strings.TrimSpace(*issue.PreviewText)
	}

	for i, it := range items {
		f := it.Fields
		v := itemView{
			Lead:     i == 0,
			Podcast:  strings.TrimSpace(f.PodcastName),
			Guest:    strings.TrimSpace(f.GuestName),
			Actor:    strings.TrimSpace(f.Actor),
			Topics:   strings.TrimSpace(f.Topics),
			ListenIf: strings.TrimSpace(f.ListenIf),
			SkipIf:   strings.TrimSpace(f.SkipIf),
		}
		if it.Video != nil {
			if v.Podcast == "" {
				v.Podcast = it.Video.ChannelName
			}
			v.Title = it.Video.Title
			v.URL = it.Video.VideoURL
			v.ThumbnailURL = it.Video.ThumbnailURL
			v.DurationSecs = it.Video.DurationSeconds
		}

		if evergreen {
			v.LeadLabel = "Must Keep"
			v.BulletLabel = "Nuggets"
			v.Bullets = nonEmpty(f.Nuggets)
			v.RationaleLabel = "Why it compounds"
			v.Rationale = strings.TrimSpace(f.WhyCompounds)
			v.Framework = strings.TrimSpace(f.Framework)
			v.Horizon = "Multi-year"
		} else {
			v.LeadLabel = "Must Watch"
			v.BulletLabel = "Signals"
			v.Bullets = nonEmpty(f.Signals)
			v.RationaleLabel = "Why now"
			v.Rationale = strings.TrimSpace(f.WhyNow)
			v.Horizon = strings.TrimSpace(f.RelevanceHorizon)
		}

		data.Items = append(data.Items, v)
	}

	return data
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func funcMap() map[string]any {
	return map[string]any{
		"formatDate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"formatDuration": func(seconds int) string {
			if seconds <= 0 {
				return ""
			}
			minutes := seconds / 60
			if minutes < 60 {
				return fmt.Sprintf("%d min", minutes)
			}
			h := minutes / 60
			m := minutes % 60
			if m > 0 {
				return fmt.Sprintf("%dh %dm", h, m)
			}
			return fmt.Sprintf("%dh", h)
		},
		"upper": strings.ToUpper,
	}
}
