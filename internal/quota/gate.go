package quota

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// GateOption configures the gate.
type GateOption func(*Gate)

// WithLimit overrides the per-window request limit.
func WithLimit(limit int) GateOption {
	return func(g *Gate) {
		g.limit = limit
	}
}

// WithWindow overrides the window duration.
func WithWindow(window time.Duration) GateOption {
	return func(g *Gate) {
		g.window = window
	}
}

// WithClock overrides the time source. Tests use this to advance past the
// window reset without sleeping.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		g.now = now
	}
}

// WithLogger sets the logger used to report store failures.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// Gate enforces the fixed-window quota. Check never returns an error: an
// unusable identity maps to FallbackIdentity and a failing store degrades to
// admitting the request.
type Gate struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
	logger *slog.Logger

	// mu serializes the read-check-increment sequence. Two concurrent checks
	// for the same identity must never both consume the last slot.
	mu sync.Mutex
}

// NewGate creates a gate backed by store.
func NewGate(store Store, opts ...GateOption) *Gate {
	g := &Gate{
		store:  store,
		limit:  DefaultLimit,
		window: DefaultWindow,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Limit returns the configured per-window request limit.
func (g *Gate) Limit() int {
	return g.limit
}

// Check runs the admission decision for identity and, when admitted,
// consumes one slot. The slot is spent on attempt, not on success: a chat
// call that later fails upstream does not refund it.
func (g *Gate) Check(ctx context.Context, identity string) Decision {
	if identity == "" {
		identity = FallbackIdentity
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	rec, found, err := g.store.Get(ctx, identity)
	if err != nil {
		g.logger.Error("quota store get failed, admitting request",
			slog.String("identity", identity),
			slog.String("error", err.Error()),
		)
		found = false
	}

	// Unseen identity or expired window: replace the record outright.
	if !found || now.After(rec.ResetAt) {
		rec = Record{Count: 1, ResetAt: now.Add(g.window)}
		g.set(ctx, identity, rec)
		return Decision{Allowed: true, Remaining: g.limit - 1, ResetAt: rec.ResetAt}
	}

	// At the limit: deny without touching the record. Denial must not extend
	// the window.
	if rec.Count >= g.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: rec.ResetAt}
	}

	rec.Count++
	g.set(ctx, identity, rec)
	return Decision{Allowed: true, Remaining: g.limit - rec.Count, ResetAt: rec.ResetAt}
}

func (g *Gate) set(ctx context.Context, identity string, rec Record) {
	if err := g.store.Set(ctx, identity, rec); err != nil {
		g.logger.Error("quota store set failed",
			slog.String("identity", identity),
			slog.String("error", err.Error()),
		)
	}
}
