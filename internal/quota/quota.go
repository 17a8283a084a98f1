// Package quota implements admission control for the free-tier provider:
// at most Limit requests per identity per fixed window.
//
// The gate owns all quota records. The backing store is injected so the
// in-memory default can be swapped for Redis or SQLite without touching the
// admission logic.
package quota

import (
	"context"
	"time"
)

// FallbackIdentity buckets callers whose network identity cannot be
// determined. Service degrades to one shared quota bucket rather than
// failing closed.
const FallbackIdentity = "unknown"

// Defaults for the free trial.
const (
	DefaultLimit  = 5
	DefaultWindow = 24 * time.Hour
)

// Record is the per-identity counter. It is replaced, not merged, when the
// window rolls over.
type Record struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// Decision is the outcome of an admission check. Denial is an expected,
// frequent outcome, so it is a normal return value, never an error.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store persists quota records keyed by identity. Implementations do not
// need to be atomic across Get/Set pairs; the Gate serializes the
// read-check-increment sequence itself.
type Store interface {
	// Get returns the record for identity and whether one exists.
	Get(ctx context.Context, identity string) (Record, bool, error)

	// Set creates or overwrites the record for identity.
	Set(ctx context.Context, identity string, rec Record) error
}
