// Package processor invokes the remote podcast processing function.
//
// The function runs on an external job runtime and may take minutes. From
// the caller's point of view ProcessFeed blocks until the job finishes; no
// retry and no local timeout are applied. Only the caller's context ends
// the wait early.
package processor

import (
	"context"

	"podboard/internal/domain"
)

const (
	DefaultNamespace  = "corise-podcast-project"
	DefaultFunction   = "process_podcast"
	DefaultOutputPath = "/content/podcast/"
)

// FeedProcessor turns a podcast feed URL into a processed record.
type FeedProcessor interface {
	ProcessFeed(ctx context.Context, feedURL string) (domain.PodcastRecord, error)
}

// Func adapts an ordinary function to FeedProcessor.
type Func func(ctx context.Context, feedURL string) (domain.PodcastRecord, error)

func (f Func) ProcessFeed(ctx context.Context, feedURL string) (domain.PodcastRecord, error) {
	return f(ctx, feedURL)
}

// Function names a deployed function by application namespace and name.
type Function struct {
	Namespace string
	Name      string
}

func (f Function) String() string {
	return f.Namespace + "/" + f.Name
}

// DefaultFunctionRef is the function the dashboard calls unless configured
// otherwise.
var DefaultFunctionRef = Function{Namespace: DefaultNamespace, Name: DefaultFunction}
