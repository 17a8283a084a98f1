package domain

import (
	"context"
)

// ChatProvider is the contract every provider adapter implements.
type ChatProvider interface {
	Name() string

	// Initialized reports whether the adapter has valid credentials or a
	// valid endpoint and can accept chat calls.
	Initialized() bool

	// Chat sends an ordered conversation and returns the assistant's text.
	// Exactly one upstream call per invocation; retries belong to the UI.
	Chat(ctx context.Context, messages []Message) (string, error)
}
