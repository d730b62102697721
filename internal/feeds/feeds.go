// Package feeds fetches a podcast feed so the operator can check it before
// sending it to the processing function.
package feeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Preview summarises a feed.
type Preview struct {
	Title       string
	Author      string
	Description string
	ImageURL    string
	Total       int
	Episodes    []Episode
}

// Episode is one feed item.
type Episode struct {
	Title       string
	PublishedAt time.Time
	HasPublish  bool
	AudioURL    string
}

// Fetch retrieves and parses an RSS/Atom feed, keeping at most limit
// episodes in feed order.
func Fetch(ctx context.Context, client *http.Client, userAgent, url string, limit int) (Preview, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Preview{}, fmt.Errorf("feed URL cannot be empty")
	}

	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	if ua := strings.TrimSpace(userAgent); ua != "" {
		parser.UserAgent = ua
	}

	feed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return Preview{}, fmt.Errorf("fetch feed: %w", err)
	}

	preview := Preview{
		Title:       strings.TrimSpace(feed.Title),
		Description: strings.TrimSpace(feed.Description),
		ImageURL:    feedImage(feed),
		Total:       len(feed.Items),
	}
	if len(feed.Authors) > 0 && feed.Authors[0] != nil {
		preview.Author = strings.TrimSpace(feed.Authors[0].Name)
	}

	items := feed.Items
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	preview.Episodes = make([]Episode, 0, len(items))
	for _, item := range items {
		ep := Episode{Title: strings.TrimSpace(item.Title)}
		if item.PublishedParsed != nil {
			ep.PublishedAt = item.PublishedParsed.UTC()
			ep.HasPublish = true
		}
		for _, enc := range item.Enclosures {
			if enc != nil && strings.TrimSpace(enc.URL) != "" {
				ep.AudioURL = strings.TrimSpace(enc.URL)
				break
			}
		}
		preview.Episodes = append(preview.Episodes, ep)
	}
	return preview, nil
}

func feedImage(feed *gofeed.Feed) string {
	if feed.Image != nil && feed.Image.URL != "" {
		return feed.Image.URL
	}
	if feed.ITunesExt != nil {
		return feed.ITunesExt.Image
	}
	return ""
}
