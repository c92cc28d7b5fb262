// Package collect implements the target-seeking collection loop: scroll-based
// discovery of listing candidates, two-tier detail fetching, qualification,
// dedup, and progress reporting, bounded by interacting work ceilings.
package collect

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Session is the serially-used browser automation surface for one run. Page
// state is shared and mutable, so callers must never navigate concurrently.
// Lookups on missing nodes return zero values rather than blocking; every
// operation honors its context deadline.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, value string) error
	Text(ctx context.Context, selector string) (string, error)
	Attr(ctx context.Context, selector, name string) (string, error)
	BodyText(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	AnchorHrefs(ctx context.Context, selector string) ([]string, error)
	ScrollToBottom(ctx context.Context, selector string) error
	ScrollHeight(ctx context.Context, selector string) (int, error)
	Location(ctx context.Context) (string, error)
	Close() error
}

// Engine opens browser sessions. One session serves a whole run.
type Engine interface {
	NewSession(ctx context.Context) (Session, error)
}

// Emitter receives fire-and-forget progress and log events, ordered relative
// to the candidate processing that produced them. Delivery is not guaranteed.
type Emitter interface {
	Log(level, message string)
	Progress(found, target int)
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) Log(string, string) {}
func (NopEmitter) Progress(int, int)  {}

// ErrNoResultsSurface signals that the search produced no discoverable
// results panel. Fatal when nothing was ever found, benign exhaustion
// otherwise.
var ErrNoResultsSurface = errors.New("collect: results surface missing")

// SetupError wraps a failure to acquire the browser session. Always fatal;
// no partial results are produced.
type SetupError struct {
	Cause error
}

func (e *SetupError) Error() string { return fmt.Sprintf("collect: session setup: %v", e.Cause) }
func (e *SetupError) Unwrap() error { return e.Cause }

// DetailFetchError reports that a single candidate's listing page failed to
// load. Recovered locally: the candidate is logged and skipped.
type DetailFetchError struct {
	CandidateID string
	Cause       error
}

func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("collect: fetch details for %s: %v", e.CandidateID, e.Cause)
}

func (e *DetailFetchError) Unwrap() error { return e.Cause }
