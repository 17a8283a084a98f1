// Package anthropic implements the direct-key adapter: chat calls go
// straight to the Anthropic API with a caller-supplied secret.
package anthropic

import (
	"context"
	"net/http"

	anthropicapi "github.com/pysensei/ai-gateway/internal/api/anthropic"
	"github.com/pysensei/ai-gateway/internal/domain"
)

const (
	// DefaultModel is the tutor's chat model.
	DefaultModel = "claude-3-5-haiku-20241022"

	defaultMaxTokens = 2048
)

// ProviderOption configures the provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = httpClient
	}
}

// WithModel overrides the chat model.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(maxTokens int) ProviderOption {
	return func(p *Provider) {
		p.maxTokens = maxTokens
	}
}

// Provider implements domain.ChatProvider against the Anthropic Messages API.
type Provider struct {
	client     *anthropicapi.Client
	apiKey     string
	baseURL    string
	httpClient *http.Client
	model      string
	maxTokens  int
}

var _ domain.ChatProvider = (*Provider)(nil)

// New creates a direct-key provider.
func New(apiKey string, opts ...ProviderOption) *Provider {
	p := &Provider{
		apiKey:    apiKey,
		model:     DefaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}

	var clientOpts []anthropicapi.ClientOption
	if p.baseURL != "" {
		clientOpts = append(clientOpts, anthropicapi.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		clientOpts = append(clientOpts, anthropicapi.WithHTTPClient(p.httpClient))
	}
	p.client = anthropicapi.NewClient(apiKey, clientOpts...)
	return p
}

func (p *Provider) Name() string {
	return "anthropic"
}

func (p *Provider) Initialized() bool {
	return p.apiKey != ""
}

// Chat sends the conversation. The system message is extracted and sent
// out-of-band; the remaining turns travel as the conversation.
func (p *Provider) Chat(ctx context.Context, messages []domain.Message) (string, error) {
	system, conversation := domain.SplitSystem(messages)

	apiMessages := make([]anthropicapi.Message, 0, len(conversation))
	for _, m := range conversation {
		apiMessages = append(apiMessages, anthropicapi.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := p.client.CreateMessage(ctx, &anthropicapi.MessagesRequest{
		Model:     p.model,
		Messages:  apiMessages,
		MaxTokens: p.maxTokens,
		System:    system,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
