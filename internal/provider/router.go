// Package provider routes chat calls to whichever adapter matches the
// active provider configuration.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pysensei/ai-gateway/internal/domain"
	"github.com/pysensei/ai-gateway/internal/provider/anthropic"
	"github.com/pysensei/ai-gateway/internal/provider/trial"
	"github.com/pysensei/ai-gateway/internal/provider/worker"
)

// QuotaStatus is the client-side view of the trial quota. It is a cache of
// the last server response: advisory, display-only, and stale between
// requests. Known is false unless the trial provider is active and has seen
// at least one response.
type QuotaStatus struct {
	Remaining int
	ResetAt   time.Time
	Known     bool
}

// ServiceOption configures the router.
type ServiceOption func(*Service)

// WithHTTPClient sets the HTTP client handed to every adapter.
func WithHTTPClient(httpClient *http.Client) ServiceOption {
	return func(s *Service) {
		s.httpClient = httpClient
	}
}

// WithCallTimeout bounds each chat call. Zero disables the bound.
func WithCallTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.callTimeout = timeout
	}
}

// WithTrialBaseURL sets the base URL of the trial backend endpoint.
func WithTrialBaseURL(baseURL string) ServiceOption {
	return func(s *Service) {
		s.trialBaseURL = baseURL
	}
}

// WithAnthropicBaseURL overrides the Anthropic API base URL.
func WithAnthropicBaseURL(baseURL string) ServiceOption {
	return func(s *Service) {
		s.anthropicBaseURL = baseURL
	}
}

// Service is the single entry point for chat calls. It owns the active
// configuration and dispatches to the matching adapter.
type Service struct {
	httpClient       *http.Client
	callTimeout      time.Duration
	trialBaseURL     string
	anthropicBaseURL string

	mu     sync.RWMutex
	active domain.ChatProvider
}

// NewService creates an unconfigured router. Chat fails with
// domain.ErrNotConfigured until Configure succeeds.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		callTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure atomically swaps the active configuration, replacing the
// previous adapter outright. After it returns the old adapter is never
// addressed again.
func (s *Service) Configure(cfg Config) error {
	var next domain.ChatProvider

	switch c := cfg.(type) {
	case DirectKey:
		var opts []anthropic.ProviderOption
		if s.anthropicBaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(s.anthropicBaseURL))
		}
		if s.httpClient != nil {
			opts = append(opts, anthropic.WithHTTPClient(s.httpClient))
		}
		next = anthropic.New(c.SecretKey, opts...)

	case Trial:
		var opts []trial.ProviderOption
		if s.httpClient != nil {
			opts = append(opts, trial.WithHTTPClient(s.httpClient))
		}
		next = trial.New(s.trialBaseURL, opts...)

	case ProxiedWorker:
		var opts []worker.ProviderOption
		if s.httpClient != nil {
			opts = append(opts, worker.WithHTTPClient(s.httpClient))
		}
		next = worker.New(c.EndpointURL, c.WorkerAPIKey, opts...)

	default:
		return fmt.Errorf("unsupported provider config %T", cfg)
	}

	s.mu.Lock()
	s.active = next
	s.mu.Unlock()
	return nil
}

// IsReady reports whether the active adapter can accept chat calls.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active != nil && s.active.Initialized()
}

// Chat forwards the conversation to the active adapter. Adapter errors
// propagate unchanged.
func (s *Service) Chat(ctx context.Context, messages []domain.Message) (string, error) {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()

	if active == nil || !active.Initialized() {
		return "", domain.ErrNotConfigured
	}

	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}
	return active.Chat(ctx, messages)
}

// QuotaStatus returns the trial quota display estimate. The zero value means
// unknown: either the trial provider is not active or no response has been
// seen yet. The authoritative count lives in the server-side quota gate.
func (s *Service) QuotaStatus() QuotaStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.active.(*trial.Provider)
	if !ok {
		return QuotaStatus{}
	}
	remaining, resetAt, known := t.QuotaStatus()
	return QuotaStatus{Remaining: remaining, ResetAt: resetAt, Known: known}
}
