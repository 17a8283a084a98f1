package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openaiapi "github.com/pysensei/ai-gateway/internal/api/openai"
	"github.com/pysensei/ai-gateway/internal/domain"
)

func TestChatTranslatesShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer worker-key" {
			t.Errorf("expected bearer credential, got %q", r.Header.Get("Authorization"))
		}

		var req openaiapi.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != DefaultModel {
			t.Errorf("expected model %s, got %s", DefaultModel, req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("expected system turn preserved in-band, got %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"id":"chatcmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"relayed"},"finish_reason":"stop"}]}`)
	}))
	defer ts.Close()

	p := New(ts.URL, "worker-key")

	text, err := p.Chat(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "You are a tutor."},
		{Role: domain.RoleUser, Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if text != "relayed" {
		t.Fatalf("expected 'relayed', got %q", text)
	}
}

func TestChatOmitsAuthWithoutKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected no Authorization header, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer ts.Close()

	p := New(ts.URL, "")

	if _, err := p.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}}); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
}

func TestChatUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "relay exploded")
	}))
	defer ts.Close()

	p := New(ts.URL, "")

	_, err := p.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}})

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *domain.UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusBadGateway || upstream.Body != "relay exploded" {
		t.Fatalf("expected verbatim status and body, got %d %q", upstream.Status, upstream.Body)
	}
}

func TestChatEmptyChoicesIsEmptyText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"choices":[]}`)
	}))
	defer ts.Close()

	p := New(ts.URL, "")

	text, err := p.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestDefaultEndpoint(t *testing.T) {
	p := New("", "")
	if !p.Initialized() {
		t.Fatal("expected default endpoint to initialize the adapter")
	}
}
