// Package gateway provides the public API for embedding the provider router
// and quota gate. This is the stable API for external consumers.
package gateway

import (
	"github.com/pysensei/ai-gateway/internal/provider"
	"github.com/pysensei/ai-gateway/internal/quota"
)

// Service routes chat calls to the active provider adapter.
// See internal/provider.Service for full documentation.
type Service = provider.Service

// NewService creates an unconfigured router.
var NewService = provider.NewService

// Provider configuration variants.
type (
	Config        = provider.Config
	DirectKey     = provider.DirectKey
	Trial         = provider.Trial
	ProxiedWorker = provider.ProxiedWorker
	QuotaStatus   = provider.QuotaStatus
)

// Router options.
var (
	WithHTTPClient       = provider.WithHTTPClient
	WithCallTimeout      = provider.WithCallTimeout
	WithTrialBaseURL     = provider.WithTrialBaseURL
	WithAnthropicBaseURL = provider.WithAnthropicBaseURL
)

// Gate enforces the free-tier quota.
// See internal/quota.Gate for full documentation.
type Gate = quota.Gate

// NewGate creates a gate backed by store.
var NewGate = quota.NewGate

// Quota types and options.
type (
	QuotaStore    = quota.Store
	QuotaRecord   = quota.Record
	QuotaDecision = quota.Decision
)

var (
	WithLimit  = quota.WithLimit
	WithWindow = quota.WithWindow
	WithClock  = quota.WithClock
)
