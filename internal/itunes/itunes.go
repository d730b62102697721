// Package itunes looks up podcast feed URLs in the iTunes directory so the
// operator can find a feed to submit.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultBaseURL = "https://itunes.apple.com"

// Client talks to the iTunes Search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client. An empty baseURL selects the public API.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Show is a directory entry that has a feed.
type Show struct {
	ID      string
	Title   string
	Author  string
	FeedURL string
	Genre   string
}

type response struct {
	Results []struct {
		CollectionID     int64  `json:"collectionId"`
		CollectionName   string `json:"collectionName"`
		ArtistName       string `json:"artistName"`
		FeedURL          string `json:"feedUrl"`
		PrimaryGenreName string `json:"primaryGenreName"`
	} `json:"results"`
}

// Search returns up to limit shows matching term. Entries without a feed
// URL are dropped since they cannot be processed.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]Show, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("search term cannot be empty")
	}
	if limit <= 0 {
		limit = 10
	}

	q := url.Values{}
	q.Set("media", "podcast")
	q.Set("entity", "podcast")
	q.Set("term", term)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes search failed: %s", resp.Status)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	shows := make([]Show, 0, len(payload.Results))
	for _, item := range payload.Results {
		feed := strings.TrimSpace(item.FeedURL)
		if feed == "" {
			continue
		}
		shows = append(shows, Show{
			ID:      strconv.FormatInt(item.CollectionID, 10),
			Title:   strings.TrimSpace(item.CollectionName),
			Author:  strings.TrimSpace(item.ArtistName),
			FeedURL: feed,
			Genre:   item.PrimaryGenreName,
		})
	}
	return shows, nil
}
