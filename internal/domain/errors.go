// Package domain holds the shared message shape and error taxonomy for the
// gateway. Adapters and the router never swallow these errors; only the UI
// layer decides what to display.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned by the router when no provider adapter is
// ready to serve a chat call.
var ErrNotConfigured = errors.New("no LLM provider configured")

// QuotaExceededError is returned by the trial adapter when the free-tier
// limit is hit. ResetAt is when the caller's window rolls over.
type QuotaExceededError struct {
	ResetAt time.Time
	// Message is the server-supplied human-readable explanation, if any.
	Message string
}

func (e *QuotaExceededError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	minutes := int(time.Until(e.ResetAt).Minutes()) + 1
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("free trial limit reached, resets in %d minutes", minutes)
}

// UpstreamError is returned when a chat backend answers with a non-success
// status. The status and body are surfaced verbatim for diagnostics and never
// retried automatically.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d): %s", e.Status, e.Body)
}
