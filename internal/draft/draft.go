// Package draft assembles the plain-text curation worksheet for a newsletter issue.
//
// Output is a pure function of the ordered items, the issue date and the
// publication name. Missing curation fields render as bracketed placeholder
// tokens so every draft is structurally complete and can be edited in place.
package draft

import (
	"slices"
	"strings"
	"time"

	"github.com/ad-tracker/newsletter-curator/internal/db/models"
)

// DefaultPublicationName is used when an Assembler is built with an empty name.
const DefaultPublicationName = "The Podcast Brief"

// DateLayout is the layout of the issue date in the draft header.
const DateLayout = "January 2, 2006"

// SignalSlots is the number of signal/nugget bullets rendered per item.
const SignalSlots = 3

// Placeholder tokens.
const (
	PlaceholderIssueDate    = "[SET ISSUE DATE]"
	PlaceholderPodcastName  = "[ADD PODCAST NAME]"
	PlaceholderGuestName    = "[ADD GUEST NAME]"
	PlaceholderVideoURL     = "[ADD VIDEO URL]"
	PlaceholderActor        = "[ADD ACTOR: ONE LINE ON WHO IS SPEAKING]"
	PlaceholderActorLead    = "[ADD ACTOR: 2-3 SENTENCES ON WHO IS SPEAKING AND WHY THEIR VIEW CARRIES WEIGHT RIGHT NOW]"
	PlaceholderTopics       = "[ADD TOPICS]"
	PlaceholderWhyNow       = "[ADD WHY NOW]"
	PlaceholderWhyCompounds = "[ADD WHY IT COMPOUNDS]"
	PlaceholderListenIf     = "[ADD LISTEN-IF CONDITION]"
	PlaceholderSkipIf       = "[ADD SKIP-IF CONDITION]"
	PlaceholderFramework    = "[ADD FRAMEWORK]"
	PlaceholderHorizon      = "[ADD RELEVANCE HORIZON]"
	PlaceholderMeta         = "[ADD META LINE: SIGNAL COUNT AND EDITOR NOTE]"
)

// EvergreenHorizon is the fixed relevance horizon of evergreen items.
const EvergreenHorizon = "Multi-year"

const divider = "———"

const footerNotice = "You are receiving this because you subscribed. Reply to this email with feedback, or unsubscribe at any time using the link below."

type variant struct {
	section          string
	leadMarker       string
	emptyBody        string
	listLabel        string
	listPlaceholders [SignalSlots]string
	rationaleLabel   string
	rationaleDefault string
	withFramework    bool
	list             func(models.ItemFields) []string
	rationale        func(models.ItemFields) string
	horizon          func(models.ItemFields) string
}

var urgent = variant{
	section:    "Urgent",
	leadMarker: "MUST WATCH",
	emptyBody:  "[ADD FIRST MUST WATCH ITEM]",
	listLabel:  "Signals",
	listPlaceholders: [SignalSlots]string{
		"[ADD SIGNAL 1: THE CLAIM THAT MOVES THINGS]",
		"[ADD SIGNAL 2: THE SUPPORTING DATA POINT]",
		"[ADD SIGNAL 3: THE SECOND-ORDER EFFECT]",
	},
	rationaleLabel:   "Why now",
	rationaleDefault: PlaceholderWhyNow,
	list:             func(f models.ItemFields) []string { return f.Signals },
	rationale:        func(f models.ItemFields) string { return f.WhyNow },
	horizon: func(f models.ItemFields) string {
		return valueOr(f.RelevanceHorizon, PlaceholderHorizon)
	},
}

var evergreen = variant{
	section:    "Evergreen",
	leadMarker: "MUST KEEP",
	emptyBody:  "[ADD FIRST MUST KEEP ITEM]",
	listLabel:  "Nuggets",
	listPlaceholders: [SignalSlots]string{
		"[ADD NUGGET 1: THE CORE IDEA]",
		"[ADD NUGGET 2: THE BEST EXAMPLE]",
		"[ADD NUGGET 3: THE TAKEAWAY TO REUSE]",
	},
	rationaleLabel:   "Why it compounds",
	rationaleDefault: PlaceholderWhyCompounds,
	withFramework:    true,
	list:             func(f models.ItemFields) []string { return f.Nuggets },
	rationale:        func(f models.ItemFields) string { return f.WhyCompounds },
	horizon:          func(models.ItemFields) string { return EvergreenHorizon },
}

// Assembler renders drafts for one publication.
type Assembler struct {
	publicationName string
}

// New creates an Assembler. An empty name falls back to DefaultPublicationName.
func New(publicationName string) *Assembler {
	if strings.TrimSpace(publicationName) == "" {
		publicationName = DefaultPublicationName
	}
	return &Assembler{publicationName: strings.TrimSpace(publicationName)}
}

// Assemble renders the draft for an issue of the given type.
// Unknown types render with the urgent layout.
func (a *Assembler) Assemble(issueType models.IssueType, items []*models.NewsletterItem, issueDate *time.Time) string {
	if issueType == models.IssueTypeEvergreen {
		return a.Evergreen(items, issueDate)
	}
	return a.Urgent(items, issueDate)
}

// Urgent renders the urgent issue draft.
func (a *Assembler) Urgent(items []*models.NewsletterItem, issueDate *time.Time) string {
	return a.render(&urgent, items, issueDate)
}

// Evergreen renders the evergreen issue draft.
func (a *Assembler) Evergreen(items []*models.NewsletterItem, issueDate *time.Time) string {
	return a.render(&evergreen, items, issueDate)
}

func (a *Assembler) render(v *variant, items []*models.NewsletterItem, issueDate *time.Time) string {
	var b strings.Builder

	b.WriteString(a.publicationName)
	b.WriteString(" | ")
	b.WriteString(v.section)
	b.WriteString("\n")
	b.WriteString(formatDate(issueDate))
	b.WriteString("\n\n")

	ordered := orderedItems(items)
	if len(ordered) == 0 {
		b.WriteString(v.emptyBody)
		b.WriteString("\n")
	}
	for i, item := range ordered {
		if i > 0 {
			b.WriteString("\n")
			b.WriteString(divider)
			b.WriteString("\n\n")
		}
		writeBlock(&b, v, item, i == 0)
	}

	b.WriteString("\n")
	b.WriteString(divider)
	b.WriteString("\n\n")
	b.WriteString(PlaceholderMeta)
	b.WriteString("\n\n")
	b.WriteString(footerNotice)
	b.WriteString("\n")

	return b.String()
}

func writeBlock(b *strings.Builder, v *variant, item *models.NewsletterItem, lead bool) {
	f := item.Fields

	if lead {
		b.WriteString(v.leadMarker)
		b.WriteString("\n")
	}

	b.WriteString(titleLine(item))
	b.WriteString("\n")
	b.WriteString(videoURL(item))
	b.WriteString("\n\n")

	actorDefault := PlaceholderActor
	if lead {
		actorDefault = PlaceholderActorLead
	}
	writeLabeled(b, "Actor", valueOr(f.Actor, actorDefault))
	writeLabeled(b, "Topics", valueOr(f.Topics, PlaceholderTopics))
	b.WriteString("\n")

	b.WriteString(v.listLabel)
	b.WriteString(":\n")
	entries := v.list(f)
	for slot := 0; slot < SignalSlots; slot++ {
		value := ""
		if slot < len(entries) {
			value = entries[slot]
		}
		b.WriteString("- ")
		b.WriteString(valueOr(value, v.listPlaceholders[slot]))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	writeLabeled(b, v.rationaleLabel, valueOr(v.rationale(f), v.rationaleDefault))
	if v.withFramework {
		writeLabeled(b, "Framework", valueOr(f.Framework, PlaceholderFramework))
	}
	b.WriteString("\n")

	b.WriteString("Listen if ")
	b.WriteString(valueOr(f.ListenIf, PlaceholderListenIf))
	b.WriteString(". Skip if ")
	b.WriteString(valueOr(f.SkipIf, PlaceholderSkipIf))
	b.WriteString(".\n\n")

	writeLabeled(b, "Relevance horizon", v.horizon(f))
}

func writeLabeled(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func titleLine(item *models.NewsletterItem) string {
	podcast := item.Fields.PodcastName
	if strings.TrimSpace(podcast) == "" && item.Video != nil {
		podcast = item.Video.ChannelName
	}
	return valueOr(podcast, PlaceholderPodcastName) + " with " + valueOr(item.Fields.GuestName, PlaceholderGuestName)
}

func videoURL(item *models.NewsletterItem) string {
	if item.Video == nil {
		return PlaceholderVideoURL
	}
	return valueOr(item.Video.VideoURL, PlaceholderVideoURL)
}

func formatDate(d *time.Time) string {
	if d == nil || d.IsZero() {
		return PlaceholderIssueDate
	}
	return d.Format(DateLayout)
}

// orderedItems returns the non-nil items sorted by position without touching the input.
func orderedItems(items []*models.NewsletterItem) []*models.NewsletterItem {
	out := make([]*models.NewsletterItem, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.NewsletterItem) int {
		return a.Position - b.Position
	})
	return out
}

func valueOr(value, placeholder string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return placeholder
}
