// Package render lays out podcast records for the dashboard. Catalog
// entries and processing results share this path.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"podboard/internal/domain"
	"podboard/internal/theme"
)

// View holds the fields the dashboard shows for a record.
type View struct {
	PodcastTitle string
	EpisodeTitle string
	ImageURL     string
	Summary      string
	GuestName    string
	GuestSummary string
	Highlights   []string
}

// Options tweak the layout.
type Options struct {
	Width               int
	SkipEmptyHighlights bool
}

// FromRecord extracts the displayed fields. Missing optional fields come
// through as empty strings.
func FromRecord(rec domain.PodcastRecord) View {
	return View{
		PodcastTitle: rec.Title(),
		EpisodeTitle: rec.EpisodeTitle(),
		ImageURL:     rec.EpisodeImage(),
		Summary:      rec.Summary,
		GuestName:    rec.Guest.Name,
		GuestSummary: rec.Guest.Summary,
		Highlights:   rec.HighlightLines(),
	}
}

// Moments returns the highlight lines to show, dropping empty ones only when
// asked to.
func (v View) Moments(skipEmpty bool) []string {
	if !skipEmpty {
		return v.Highlights
	}
	out := make([]string, 0, len(v.Highlights))
	for _, line := range v.Highlights {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// Record renders rec as the newsletter content block.
func Record(th theme.Theme, rec domain.PodcastRecord, opts Options) string {
	return FromRecord(rec).Render(th, opts)
}

// Render lays the view out.
func (v View) Render(th theme.Theme, opts Options) string {
	body := th.Body
	if opts.Width > 0 {
		body = body.Copy().Width(opts.Width)
	}

	sections := []string{
		th.Banner.Render("Newsletter Content"),
	}
	if v.PodcastTitle != "" {
		sections = append(sections, th.Muted.Render(v.PodcastTitle))
	}
	sections = append(sections,
		th.Heading.Render("Podcast Cover"),
		th.Link.Render(orPlaceholder(v.ImageURL, "(no image)")),
		th.Heading.Render("Episode Title"),
		body.Render(v.EpisodeTitle),
		th.Heading.Render("Podcast Episode Summary"),
		body.Render(v.Summary),
		th.Heading.Render("Podcast Guest"),
		body.Render(v.GuestName),
		th.Heading.Render("Podcast Guest Details"),
		body.Render(v.GuestSummary),
		th.Heading.Render("Key Moments"),
	)
	for _, moment := range v.Moments(opts.SkipEmptyHighlights) {
		sections = append(sections, body.Render(moment))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
