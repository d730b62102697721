package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Tech Talk</title>
    <description>Weekly conversations</description>
    <itunes:image href="http://x/cover.png"/>
    <item>
      <title>AI Today</title>
      <pubDate>Mon, 02 Jan 2006 15:04:05 +0000</pubDate>
      <enclosure url="http://x/ai.mp3" length="10" type="audio/mpeg"/>
    </item>
    <item>
      <title>Compilers</title>
      <enclosure url="http://x/compilers.mp3" length="10" type="audio/mpeg"/>
    </item>
    <item>
      <title>Old Times</title>
    </item>
  </channel>
</rss>`

func TestFetchPreview(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleFeed)
	}))
	t.Cleanup(server.Close)

	preview, err := Fetch(context.Background(), server.Client(), "podboard/test", server.URL, 2)
	require.NoError(t, err)

	assert.Equal(t, "podboard/test", userAgent)
	assert.Equal(t, "Tech Talk", preview.Title)
	assert.Equal(t, "Weekly conversations", preview.Description)
	assert.Equal(t, "http://x/cover.png", preview.ImageURL)
	assert.Equal(t, 3, preview.Total)
	require.Len(t, preview.Episodes, 2)
	assert.Equal(t, "AI Today", preview.Episodes[0].Title)
	assert.True(t, preview.Episodes[0].HasPublish)
	assert.Equal(t, 2006, preview.Episodes[0].PublishedAt.Year())
	assert.Equal(t, "http://x/ai.mp3", preview.Episodes[0].AudioURL)
	assert.False(t, preview.Episodes[1].HasPublish)
}

func TestFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	_, err := Fetch(context.Background(), server.Client(), "", server.URL, 5)
	assert.Error(t, err)

	_, err = Fetch(context.Background(), nil, "", "  ", 5)
	assert.EqualError(t, err, "feed URL cannot be empty")
}
