package fuzzy

import (
	"reflect"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"a", "", 1},
		{"", "abc", 3},
		{"Tech", "tech", 0},
		{"kitten", "sitting", 3},
		{"podcast", "podkast", 1},
		{"café", "cafe", 1},
	}

	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d; want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("", ""); got != 1 {
		t.Fatalf("Similarity of empty strings = %f; want 1", got)
	}
	if got := Similarity("news", "newz"); got != 0.75 {
		t.Fatalf("Similarity(news, newz) = %f; want 0.75", got)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		text, query string
		want        bool
	}{
		{"Tech Talk", "tech", true},
		{"Tech Talk", "TALK", true},
		{"Tech Talk", "teck", true},
		{"Tech Talk", "teck talc", true},
		{"The Rabbit Hole", "rabitt", true},
		{"Data Engineering Weekly", "enginering", true},
		{"Tech Talk", "xyz", false},
		{"Tech Talk", "tech xyz", false},
		{"", "tech", false},
		{"Tech Talk", "  ", false},
	}

	for _, tt := range tests {
		if got := Match(tt.text, tt.query); got != tt.want {
			t.Errorf("Match(%q, %q) = %v; want %v", tt.text, tt.query, got, tt.want)
		}
	}
}

func TestScoreOrdering(t *testing.T) {
	prefix := Score("Tech Talk", "tech")
	substring := Score("Hi-Tech Radio", "tech")
	typo := Score("The Teck Show", "tech")

	if !(prefix > substring && substring > typo) {
		t.Fatalf("unexpected ordering: prefix=%f substring=%f typo=%f", prefix, substring, typo)
	}
}

func TestRank(t *testing.T) {
	titles := []string{"Weekly Wrap", "Hi-Tech Radio", "Tech Talk", "The Teck Show"}

	got := Rank(titles, "tech")
	want := []string{"Tech Talk", "Hi-Tech Radio", "The Teck Show"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rank() = %v; want %v", got, want)
	}

	all := Rank(titles, "")
	if len(all) != len(titles) || all[0] != "Hi-Tech Radio" {
		t.Fatalf("Rank with empty query = %v", all)
	}
}
