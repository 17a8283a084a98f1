// Package trial implements the free-trial adapter. It holds no secret: chat
// calls go to a same-origin backend endpoint that owns the real credential
// and runs the quota gate before forwarding upstream.
package trial

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	trialapi "github.com/pysensei/ai-gateway/internal/api/trial"
	"github.com/pysensei/ai-gateway/internal/domain"
)

// DefaultPath is the backend chat endpoint path.
const DefaultPath = "/api/ai"

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithPath overrides the endpoint path.
func WithPath(path string) ProviderOption {
	return func(p *Provider) {
		p.path = path
	}
}

// Provider implements domain.ChatProvider against the trial backend
// endpoint. It caches the quota metadata returned by the server; the cache
// is a display estimate only, never consulted for admission.
type Provider struct {
	baseURL    string
	path       string
	httpClient *http.Client

	mu        sync.Mutex
	remaining int
	resetAt   time.Time
	seen      bool
}

var _ domain.ChatProvider = (*Provider)(nil)

// New creates a trial provider addressing the backend at baseURL.
func New(baseURL string, opts ...ProviderOption) *Provider {
	p := &Provider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		path:       DefaultPath,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "trial"
}

// Initialized is always true: the server holds the credentials.
func (p *Provider) Initialized() bool {
	return true
}

// QuotaStatus returns the last quota metadata the server reported. ok is
// false until the first chat call completes.
func (p *Provider) QuotaStatus() (remaining int, resetAt time.Time, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remaining, p.resetAt, p.seen
}

func (p *Provider) Chat(ctx context.Context, messages []domain.Message) (string, error) {
	body, err := json.Marshal(trialapi.ChatRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+p.path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Quota metadata travels in the headers on every response, success or
	// denial. Cache it before looking at the status.
	p.cacheQuotaHeaders(resp.Header)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		var denied trialapi.RateLimitedResponse
		if err := json.Unmarshal(respBody, &denied); err == nil {
			p.cacheQuota(denied.Remaining, denied.ResetTime)
			return "", &domain.QuotaExceededError{
				ResetAt: time.UnixMilli(denied.ResetTime),
				Message: denied.Message,
			}
		}
		_, resetAt, _ := p.QuotaStatus()
		return "", &domain.QuotaExceededError{ResetAt: resetAt}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result trialapi.ChatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	p.cacheQuota(result.Remaining, result.ResetTime)
	return result.Message, nil
}

func (p *Provider) cacheQuotaHeaders(h http.Header) {
	remaining, remErr := strconv.Atoi(h.Get(trialapi.HeaderRemaining))
	resetMs, resetErr := strconv.ParseInt(h.Get(trialapi.HeaderReset), 10, 64)

	p.mu.Lock()
	defer p.mu.Unlock()
	if remErr == nil {
		p.remaining = remaining
		p.seen = true
	}
	if resetErr == nil {
		p.resetAt = time.UnixMilli(resetMs)
	}
}

func (p *Provider) cacheQuota(remaining int, resetMs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remaining = remaining
	p.seen = true
	if resetMs > 0 {
		p.resetAt = time.UnixMilli(resetMs)
	}
}
