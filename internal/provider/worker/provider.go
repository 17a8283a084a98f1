// Package worker implements the proxied-worker adapter: chat calls go to a
// caller-configured relay endpoint speaking the chat-completions shape, with
// an optional bearer credential for private relays.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	openaiapi "github.com/pysensei/ai-gateway/internal/api/openai"
	"github.com/pysensei/ai-gateway/internal/domain"
)

const (
	// DefaultEndpoint is the shared relay worker, free for all users.
	DefaultEndpoint = "https://python-tutor-ai.pythontutor.workers.dev"

	// DefaultModel is the model name the relay expects.
	DefaultModel = "claude-3-haiku"
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithModel overrides the relay model name.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// Provider implements domain.ChatProvider against a relay worker.
type Provider struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ domain.ChatProvider = (*Provider)(nil)

// New creates a worker provider. An empty endpoint selects the shared
// default; apiKey may be empty for relays that require no auth.
func New(endpoint, apiKey string, opts ...ProviderOption) *Provider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	p := &Provider{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		apiKey:     apiKey,
		model:      DefaultModel,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "worker"
}

func (p *Provider) Initialized() bool {
	return p.endpoint != ""
}

func (p *Provider) Chat(ctx context.Context, messages []domain.Message) (string, error) {
	apiMessages := make([]openaiapi.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		apiMessages = append(apiMessages, openaiapi.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	body, err := json.Marshal(openaiapi.ChatCompletionRequest{
		Model:    p.model,
		Messages: apiMessages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var result openaiapi.ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result.Text(), nil
}
