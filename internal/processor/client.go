package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"podboard/internal/domain"
)

const (
	statusPending   = "pending"
	statusRunning   = "running"
	statusSucceeded = "succeeded"
	statusFailed    = "failed"

	maxPollInterval = 30 * time.Second
)

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	BaseURL      string
	Token        string
	Function     Function
	OutputPath   string
	PollInterval time.Duration
	UserAgent    string
}

// Client calls a function on an HTTP job runtime. A call is submitted with
// POST /v1/apps/{namespace}/functions/{name}/calls; the runtime either
// answers with the result directly or with a call ID that is polled at
// GET /v1/calls/{id} until it settles.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	function   Function
	outputPath string
	poll       time.Duration
	userAgent  string
}

// NewClient creates a runtime client. The http.Client should not carry a
// Timeout: processing calls are allowed to take as long as the job does.
func NewClient(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	fn := opts.Function
	if strings.TrimSpace(fn.Namespace) == "" {
		fn.Namespace = DefaultNamespace
	}
	if strings.TrimSpace(fn.Name) == "" {
		fn.Name = DefaultFunction
	}
	outputPath := opts.OutputPath
	if strings.TrimSpace(outputPath) == "" {
		outputPath = DefaultOutputPath
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      strings.TrimSpace(opts.Token),
		function:   fn,
		outputPath: outputPath,
		poll:       poll,
		userAgent:  strings.TrimSpace(opts.UserAgent),
	}
}

// Function returns the function this client invokes.
func (c *Client) Function() Function {
	return c.function
}

type callRequest struct {
	Args []string `json:"args"`
}

type callResponse struct {
	CallID string          `json:"call_id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	Error  *callError      `json:"error"`
}

type callError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ProcessFeed submits feedURL with the configured output path and blocks
// until the job returns. The URL is passed through unvalidated and the
// result is not checked beyond decoding.
func (c *Client) ProcessFeed(ctx context.Context, feedURL string) (domain.PodcastRecord, error) {
	if c.baseURL == "" {
		return domain.PodcastRecord{}, &LookupError{Function: c.function, Err: fmt.Errorf("processor URL is not configured")}
	}

	log.Printf("processor: calling %s with %s", c.function, feedURL)
	start := time.Now()

	call, err := c.submit(ctx, feedURL)
	if err != nil {
		return domain.PodcastRecord{}, err
	}
	if call.Status != statusSucceeded {
		call, err = c.wait(ctx, call.CallID)
		if err != nil {
			return domain.PodcastRecord{}, err
		}
	}

	rec, err := c.decodeResult(call)
	if err != nil {
		return domain.PodcastRecord{}, err
	}
	log.Printf("processor: %s finished in %s", c.function, time.Since(start).Round(time.Millisecond))
	return rec, nil
}

func (c *Client) submit(ctx context.Context, feedURL string) (callResponse, error) {
	body, err := json.Marshal(callRequest{Args: []string{feedURL, c.outputPath}})
	if err != nil {
		return callResponse{}, err
	}

	endpoint := fmt.Sprintf("%s/v1/apps/%s/functions/%s/calls", c.baseURL,
		url.PathEscape(c.function.Namespace), url.PathEscape(c.function.Name))
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return callResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return callResponse{}, &LookupError{Function: c.function, Err: err}
	}
	defer resp.Body.Close()

	var status string
	switch resp.StatusCode {
	case http.StatusOK:
		status = statusSucceeded
	case http.StatusAccepted:
		status = statusPending
	case http.StatusNotFound:
		return callResponse{}, &LookupError{Function: c.function, Err: ErrFunctionNotFound}
	default:
		return callResponse{}, c.executionError("", statusMessage(resp), nil)
	}

	call, err := decodeCall(resp.Body)
	if err != nil {
		return callResponse{}, c.executionError("", "", err)
	}
	if call.Status == "" {
		call.Status = status
	}
	call, err = c.settled(call)
	if err != nil {
		return callResponse{}, err
	}
	if call.Status != statusSucceeded && strings.TrimSpace(call.CallID) == "" {
		return callResponse{}, c.executionError("", "runtime accepted the call without a call ID", nil)
	}
	return call, nil
}

func (c *Client) wait(ctx context.Context, callID string) (callResponse, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.poll
	policy.MaxInterval = maxPollInterval
	policy.Multiplier = 1.5
	policy.MaxElapsedTime = 0
	policy.Reset()

	for {
		next := policy.NextBackOff()
		if err := waitWithContext(ctx, next); err != nil {
			return callResponse{}, c.executionError(callID, "", err)
		}

		call, err := c.fetch(ctx, callID)
		if err != nil {
			return callResponse{}, err
		}
		if call.Status == statusPending || call.Status == statusRunning {
			continue
		}
		return c.settled(call)
	}
}

func (c *Client) fetch(ctx context.Context, callID string) (callResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/calls/%s", c.baseURL, url.PathEscape(callID))
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return callResponse{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return callResponse{}, c.executionError(callID, "", fmt.Errorf("poll call: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return callResponse{}, c.executionError(callID, "poll call: "+statusMessage(resp), nil)
	}
	call, err := decodeCall(resp.Body)
	if err != nil {
		return callResponse{}, c.executionError(callID, "", err)
	}
	if call.CallID == "" {
		call.CallID = callID
	}
	return call, nil
}

// settled turns a terminal failed status into an ExecutionError and passes
// anything else through.
func (c *Client) settled(call callResponse) (callResponse, error) {
	switch call.Status {
	case statusFailed:
		msg := "job failed"
		if call.Error != nil && call.Error.Message != "" {
			msg = call.Error.Message
			if call.Error.Type != "" {
				msg = call.Error.Type + ": " + msg
			}
		}
		return callResponse{}, c.executionError(call.CallID, msg, nil)
	case statusSucceeded, statusPending, statusRunning:
		return call, nil
	default:
		return callResponse{}, c.executionError(call.CallID, fmt.Sprintf("unknown call status %q", call.Status), nil)
	}
}

func (c *Client) decodeResult(call callResponse) (domain.PodcastRecord, error) {
	raw := bytes.TrimSpace(call.Result)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.PodcastRecord{}, c.executionError(call.CallID, "job returned no result", nil)
	}
	var rec domain.PodcastRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.PodcastRecord{}, c.executionError(call.CallID, "", fmt.Errorf("decode result: %w", err))
	}
	return rec, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *Client) executionError(callID, msg string, err error) error {
	execErr := &ExecutionError{Function: c.function, CallID: callID, Message: msg, Err: err}
	log.Printf("processor: %v", execErr)
	return execErr
}

func decodeCall(r io.Reader) (callResponse, error) {
	var call callResponse
	if err := json.NewDecoder(r).Decode(&call); err != nil {
		return callResponse{}, fmt.Errorf("decode call response: %w", err)
	}
	call.Status = strings.ToLower(strings.TrimSpace(call.Status))
	return call, nil
}

func statusMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var payload struct {
		Error *callError `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != nil && payload.Error.Message != "" {
		return fmt.Sprintf("%s: %s", resp.Status, payload.Error.Message)
	}
	return "runtime responded " + resp.Status
}

func waitWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
