package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestOptionalFieldsDefaultEmpty(t *testing.T) {
	var rec PodcastRecord
	if err := json.Unmarshal([]byte(`{"podcast_details":{"podcast_title":"Solo"}}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !rec.HasTitle() || rec.Title() != "Solo" {
		t.Fatalf("title = %q", rec.Title())
	}
	if rec.EpisodeTitle() != "" || rec.EpisodeImage() != "" || rec.Summary != "" || rec.Guest.Name != "" {
		t.Fatalf("expected empty optional fields, got %+v", rec)
	}
	if rec.HighlightLines() != nil {
		t.Fatalf("expected no highlight lines, got %v", rec.HighlightLines())
	}
}

func TestMissingDetails(t *testing.T) {
	var rec PodcastRecord
	if rec.HasTitle() || rec.Title() != "" || rec.EpisodeTitle() != "" {
		t.Fatal("zero record should have no title")
	}

	empty := ""
	rec.Details = &PodcastDetails{PodcastTitle: &empty}
	if !rec.HasTitle() {
		t.Fatal("an empty title is still a title")
	}
}

func TestHighlightLinesKeepEmptySegments(t *testing.T) {
	rec := NewRecord("T", "", "", "", PodcastGuest{}, "m1\n\nm2")
	want := []string{"m1", "", "m2"}
	if got := rec.HighlightLines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("HighlightLines() = %q, want %q", got, want)
	}
}
