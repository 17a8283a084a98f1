// Package trial defines the wire contract of the free-trial chat endpoint.
// The server handler and the trial adapter must agree on these shapes
// bit-exactly, so they live in one place.
package trial

import (
	"github.com/pysensei/ai-gateway/internal/domain"
)

// Rate limit headers mirrored on every trial endpoint response.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// ChatRequest is the trial endpoint request body.
type ChatRequest struct {
	Messages []domain.Message `json:"messages"`
}

// ChatResponse is the success (200) body. ResetTime is epoch milliseconds.
type ChatResponse struct {
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
	ResetTime int64  `json:"resetTime"`
}

// RateLimitedResponse is the quota-exceeded (429) body.
type RateLimitedResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
	ResetTime int64  `json:"resetTime"`
}

// UnavailableResponse is the missing-upstream-credential (503) body.
type UnavailableResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	NeedsUpgrade bool   `json:"needsUpgrade"`
}

// ErrorResponse is the generic error body (400 and upstream failures).
type ErrorResponse struct {
	Error string `json:"error"`
}
