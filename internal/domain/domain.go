package domain

import (
	"strings"
	"time"
)

// PodcastRecord is a newsletter document describing one processed episode.
// PodcastDetails and its PodcastTitle are required; every other field is
// optional and renders empty when absent. Keys outside these fields are not
// kept.
type PodcastRecord struct {
	Details    *PodcastDetails `json:"podcast_details"`
	Summary    string          `json:"podcast_summary"`
	Guest      PodcastGuest    `json:"podcast_guest"`
	Highlights string          `json:"podcast_highlights"`
}

type PodcastDetails struct {
	PodcastTitle *string `json:"podcast_title"`
	EpisodeTitle string  `json:"episode_title"`
	EpisodeImage string  `json:"episode_image"`
}

type PodcastGuest struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Title returns the index key of the record, or "" when it has none.
func (r PodcastRecord) Title() string {
	if r.Details == nil || r.Details.PodcastTitle == nil {
		return ""
	}
	return *r.Details.PodcastTitle
}

// HasTitle reports whether the record carries podcast_details.podcast_title.
func (r PodcastRecord) HasTitle() bool {
	return r.Details != nil && r.Details.PodcastTitle != nil
}

func (r PodcastRecord) EpisodeTitle() string {
	if r.Details == nil {
		return ""
	}
	return r.Details.EpisodeTitle
}

func (r PodcastRecord) EpisodeImage() string {
	if r.Details == nil {
		return ""
	}
	return r.Details.EpisodeImage
}

// HighlightLines splits the highlights on newlines. Empty segments between
// moments are kept. An empty or absent podcast_highlights yields no lines
// rather than a single empty one, since the two cannot be told apart here.
func (r PodcastRecord) HighlightLines() []string {
	if r.Highlights == "" {
		return nil
	}
	return strings.Split(r.Highlights, "\n")
}

// NewRecord builds a record with every field set.
func NewRecord(title, episodeTitle, episodeImage, summary string, guest PodcastGuest, highlights string) PodcastRecord {
	return PodcastRecord{
		Details: &PodcastDetails{
			PodcastTitle: &title,
			EpisodeTitle: episodeTitle,
			EpisodeImage: episodeImage,
		},
		Summary:    summary,
		Guest:      guest,
		Highlights: highlights,
	}
}

// Submission is one feed URL handed to the processing function.
type Submission struct {
	ID          int64
	FeedURL     string
	Status      string
	ResultTitle string
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
	HasFinished bool
}

const (
	SubmissionRunning   = "RUNNING"
	SubmissionSucceeded = "SUCCEEDED"
	SubmissionFailed    = "FAILED"
)
