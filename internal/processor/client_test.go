package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podboard/internal/domain"
)

const resultJSON = `{"podcast_details": {"podcast_title": "Tech Talk", "episode_title": "AI Today", "episode_image": "http://x/img.png"}, "podcast_summary": "S", "podcast_guest": {"name": "G", "summary": "GS"}, "podcast_highlights": "One\nTwo"}`

const callsPath = "/v1/apps/corise-podcast-project/functions/process_podcast/calls"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.Client(), Options{
		BaseURL:      server.URL,
		Token:        "secret",
		PollInterval: time.Millisecond,
		UserAgent:    "podboard/test",
	})
}

func TestProcessFeedSynchronousResult(t *testing.T) {
	var gotArgs []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, callsPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "podboard/test", r.Header.Get("User-Agent"))

		var body callRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotArgs = body.Args

		fmt.Fprintf(w, `{"status": "succeeded", "result": %s}`, resultJSON)
	})

	rec, err := client.ProcessFeed(context.Background(), "http://feed.example/rss")
	require.NoError(t, err)

	assert.Equal(t, []string{"http://feed.example/rss", DefaultOutputPath}, gotArgs)
	assert.Equal(t, "Tech Talk", rec.Title())
	assert.Equal(t, "AI Today", rec.EpisodeTitle())
	assert.Equal(t, []string{"One", "Two"}, rec.HighlightLines())
}

func TestProcessFeedPollsUntilSucceeded(t *testing.T) {
	var polls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case callsPath:
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"call_id": "fc-1", "status": "pending"}`)
		case "/v1/calls/fc-1":
			if polls.Add(1) < 3 {
				fmt.Fprint(w, `{"call_id": "fc-1", "status": "running"}`)
				return
			}
			fmt.Fprintf(w, `{"call_id": "fc-1", "status": "succeeded", "result": %s}`, resultJSON)
		default:
			http.NotFound(w, r)
		}
	})

	rec, err := client.ProcessFeed(context.Background(), "http://feed.example/rss")
	require.NoError(t, err)
	assert.Equal(t, "Tech Talk", rec.Title())
	assert.Equal(t, int32(3), polls.Load())
}

func TestProcessFeedFunctionNotDeployed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	rec, err := client.ProcessFeed(context.Background(), "http://feed.example/rss")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookup))
	assert.True(t, errors.Is(err, ErrFunctionNotFound))
	assert.False(t, errors.Is(err, ErrExecution))
	assert.False(t, rec.HasTitle())

	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, DefaultFunctionRef, lookupErr.Function)
}

func TestProcessFeedRuntimeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(nil, Options{BaseURL: baseURL})
	_, err := client.ProcessFeed(context.Background(), "http://feed.example/rss")

	assert.ErrorIs(t, err, ErrLookup)
}

func TestProcessFeedWithoutBaseURL(t *testing.T) {
	client := NewClient(nil, Options{})
	_, err := client.ProcessFeed(context.Background(), "http://feed.example/rss")

	assert.ErrorIs(t, err, ErrLookup)
}

func TestProcessFeedJobFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case callsPath:
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"call_id": "fc-2"}`)
		default:
			fmt.Fprint(w, `{"call_id": "fc-2", "status": "failed", "error": {"type": "RuntimeError", "message": "whisper crashed"}}`)
		}
	})

	_, err := client.ProcessFeed(context.Background(), "http://feed.example/rss")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecution))
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "fc-2", execErr.CallID)
	assert.Contains(t, err.Error(), "RuntimeError: whisper crashed")
}

func TestProcessFeedExecutionErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error": {"message": "boom"}}`, message: "boom"},
		{name: "unparsable body", status: http.StatusOK, body: `<html>`, message: "decode call response"},
		{name: "no result", status: http.StatusOK, body: `{"status": "succeeded"}`, message: "job returned no result"},
		{name: "accepted without id", status: http.StatusAccepted, body: `{}`, message: "without a call ID"},
		{name: "unknown status", status: http.StatusOK, body: `{"status": "exploded"}`, message: "unknown call status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := client.ProcessFeed(context.Background(), "http://feed.example/rss")

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrExecution)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestProcessFeedCustomFunction(t *testing.T) {
	var path string
	var args []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		var body callRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		args = body.Args
		fmt.Fprintf(w, `{"result": %s}`, resultJSON)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.Client(), Options{
		BaseURL:    server.URL + "/",
		Function:   Function{Namespace: "news", Name: "digest"},
		OutputPath: "/tmp/out/",
	})
	_, err := client.ProcessFeed(context.Background(), "http://feed.example/rss")

	require.NoError(t, err)
	assert.Equal(t, "/v1/apps/news/functions/digest/calls", path)
	assert.Equal(t, []string{"http://feed.example/rss", "/tmp/out/"}, args)
	assert.Equal(t, "news/digest", client.Function().String())
}

func TestProcessFeedContextCancelledWhilePolling(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == callsPath {
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{"call_id": "fc-3"}`)
			return
		}
		fmt.Fprint(w, `{"status": "running"}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ProcessFeed(ctx, "http://feed.example/rss")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFuncAdapter(t *testing.T) {
	var p FeedProcessor = Func(func(_ context.Context, feedURL string) (domain.PodcastRecord, error) {
		return domain.NewRecord(feedURL, "", "", "", domain.PodcastGuest{}, ""), nil
	})

	rec, err := p.ProcessFeed(context.Background(), "http://feed.example/rss")
	require.NoError(t, err)
	assert.Equal(t, "http://feed.example/rss", rec.Title())
}
