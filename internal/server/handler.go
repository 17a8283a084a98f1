package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	anthropicapi "github.com/pysensei/ai-gateway/internal/api/anthropic"
	trialapi "github.com/pysensei/ai-gateway/internal/api/trial"
	"github.com/pysensei/ai-gateway/internal/domain"
	"github.com/pysensei/ai-gateway/internal/quota"
	"github.com/pysensei/ai-gateway/internal/tokens"
)

// DefaultSystemPrompt is used when the conversation carries no system turn.
const DefaultSystemPrompt = "You are an expert Python sensei."

// ClientIdentity derives the quota identity from the request. Precedence:
// first comma-separated X-Forwarded-For value trimmed, then X-Real-IP, then
// the constant fallback. The precedence determines who shares a quota bucket
// behind proxies, so it must not change.
func ClientIdentity(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return quota.FallbackIdentity
}

// TrialHandlerOption configures the handler.
type TrialHandlerOption func(*TrialHandler)

// WithModel overrides the upstream chat model.
func WithModel(model string) TrialHandlerOption {
	return func(h *TrialHandler) {
		h.model = model
	}
}

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(maxTokens int) TrialHandlerOption {
	return func(h *TrialHandler) {
		h.maxTokens = maxTokens
	}
}

// WithEstimator enables prompt token estimation in request logs.
func WithEstimator(estimator *tokens.Estimator) TrialHandlerOption {
	return func(h *TrialHandler) {
		h.estimator = estimator
	}
}

// WithClock overrides the time source used for the minutes-until-reset
// message.
func WithClock(now func() time.Time) TrialHandlerOption {
	return func(h *TrialHandler) {
		h.now = now
	}
}

// TrialHandler serves the free-trial chat endpoint. It runs the quota gate
// before anything else (a denied or malformed attempt still spends a slot),
// then forwards the conversation upstream with the server-held credential.
type TrialHandler struct {
	gate      *quota.Gate
	client    *anthropicapi.Client
	model     string
	maxTokens int
	estimator *tokens.Estimator
	now       func() time.Time
}

// NewTrialHandler creates the handler. client may be nil when no upstream
// credential is configured; the endpoint then answers 503.
func NewTrialHandler(gate *quota.Gate, client *anthropicapi.Client, opts ...TrialHandlerOption) *TrialHandler {
	h := &TrialHandler{
		gate:      gate,
		client:    client,
		model:     "claude-3-5-haiku-20241022",
		maxTokens: 2048,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TrialHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := ClientIdentity(r)
	AddLogField(ctx, "identity", identity)

	decision := h.gate.Check(ctx, identity)

	if !decision.Allowed {
		SetRateLimits(ctx, h.gate.Limit(), decision.Remaining, decision.ResetAt)
		minutes := int(math.Ceil(decision.ResetAt.Sub(h.now()).Minutes()))
		writeJSON(w, http.StatusTooManyRequests, trialapi.RateLimitedResponse{
			Error: "Free trial limit reached",
			Message: fmt.Sprintf(
				"You've used all %d free requests. Trial resets in %d minutes, or upgrade for unlimited access.",
				h.gate.Limit(), minutes),
			Remaining: 0,
			ResetTime: decision.ResetAt.UnixMilli(),
		})
		return
	}

	var req trialapi.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Messages == nil {
		writeJSON(w, http.StatusBadRequest, trialapi.ErrorResponse{
			Error: "Invalid request: messages array required",
		})
		return
	}

	if h.client == nil {
		writeJSON(w, http.StatusServiceUnavailable, trialapi.UnavailableResponse{
			Error: "API key required",
			Message: "Free trial requires server configuration. Please add your Anthropic API key " +
				"to continue, or sign up for a paid plan for instant access.",
			NeedsUpgrade: true,
		})
		return
	}

	if h.estimator != nil {
		if count, err := h.estimator.CountMessages(req.Messages); err == nil {
			AddLogField(ctx, "prompt_tokens_est", strconv.Itoa(count))
		}
	}

	system, conversation := domain.SplitSystem(req.Messages)
	if system == "" {
		system = DefaultSystemPrompt
	}

	apiMessages := make([]anthropicapi.Message, 0, len(conversation))
	for _, m := range conversation {
		apiMessages = append(apiMessages, anthropicapi.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := h.client.CreateMessage(ctx, &anthropicapi.MessagesRequest{
		Model:     h.model,
		Messages:  apiMessages,
		MaxTokens: h.maxTokens,
		System:    system,
	})
	if err != nil {
		AddError(ctx, err)
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			writeJSON(w, upstream.Status, trialapi.ErrorResponse{Error: "AI service error"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, trialapi.ErrorResponse{Error: "Internal server error"})
		return
	}

	// Quota headers accompany only the success and denial bodies; error
	// responses carry none.
	SetRateLimits(ctx, h.gate.Limit(), decision.Remaining, decision.ResetAt)
	writeJSON(w, http.StatusOK, trialapi.ChatResponse{
		Message:   resp.Text(),
		Remaining: decision.Remaining,
		ResetTime: decision.ResetAt.UnixMilli(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
