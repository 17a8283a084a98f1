package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/pysensei/ai-gateway/internal/domain"
	"github.com/pysensei/ai-gateway/internal/testutil"
)

func TestCreateMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key header to be 'test-key', got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("expected anthropic-version header to be set")
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{
  "id": "msg_123",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-haiku-20241022",
  "content": [{"type": "text", "text": "Hello!"}],
  "usage": {"input_tokens": 12, "output_tokens": 4}
}`)
	}))
	defer ts.Close()

	c := NewClient("test-key", WithBaseURL(ts.URL))

	resp, err := c.CreateMessage(context.Background(), &MessagesRequest{
		Model:     "claude-3-5-haiku-20241022",
		Messages:  []Message{{Role: "user", Content: "hi"}},
		MaxTokens: 2048,
	})
	if err != nil {
		t.Fatalf("CreateMessage returned error: %v", err)
	}
	if resp.Text() != "Hello!" {
		t.Fatalf("expected text 'Hello!', got %q", resp.Text())
	}
	if resp.Usage.InputTokens != 12 {
		t.Fatalf("expected 12 input tokens, got %d", resp.Usage.InputTokens)
	}
}

func TestCreateMessageUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	}))
	defer ts.Close()

	c := NewClient("test-key", WithBaseURL(ts.URL))

	_, err := c.CreateMessage(context.Background(), &MessagesRequest{
		Model:     "claude-3-5-haiku-20241022",
		Messages:  []Message{{Role: "user", Content: "hi"}},
		MaxTokens: 2048,
	})

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *domain.UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", upstream.Status)
	}
}

func TestCreateMessageMissingTextIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"id": "msg_124", "type": "message", "role": "assistant", "content": []}`)
	}))
	defer ts.Close()

	c := NewClient("test-key", WithBaseURL(ts.URL))

	resp, err := c.CreateMessage(context.Background(), &MessagesRequest{
		Model:     "claude-3-5-haiku-20241022",
		Messages:  []Message{{Role: "user", Content: "hi"}},
		MaxTokens: 2048,
	})
	if err != nil {
		t.Fatalf("CreateMessage returned error: %v", err)
	}
	if resp.Text() != "" {
		t.Fatalf("expected empty text for contentless response, got %q", resp.Text())
	}
}

func TestCreateMessageVCR(t *testing.T) {
	r := testutil.NewRecorder(t, "create_message")

	c := NewClient("test-key", WithHTTPClient(testutil.HTTPClient(r)))

	resp, err := c.CreateMessage(context.Background(), &MessagesRequest{
		Model:     "claude-3-5-haiku-20241022",
		Messages:  []Message{{Role: "user", Content: "What is a list comprehension?"}},
		MaxTokens: 2048,
		System:    "You are an expert Python sensei.",
	})
	if err != nil {
		t.Fatalf("CreateMessage returned error: %v", err)
	}
	if resp.Text() == "" {
		t.Fatal("expected recorded response text")
	}
}

func TestCreateMessageVCRRejectsDifferentBody(t *testing.T) {
	if os.Getenv("VCR_MODE") == "record" {
		t.Skip("mismatch behavior only applies when replaying")
	}

	r := testutil.NewRecorder(t, "create_message")

	c := NewClient("test-key", WithHTTPClient(testutil.HTTPClient(r)))

	// Same URL as the recorded interaction, different payload: the matcher
	// compares bodies, so replay must refuse it.
	_, err := c.CreateMessage(context.Background(), &MessagesRequest{
		Model:     "claude-3-5-haiku-20241022",
		Messages:  []Message{{Role: "user", Content: "What is a decorator?"}},
		MaxTokens: 2048,
	})
	if err == nil {
		t.Fatal("expected replay to reject a request with an unrecorded body")
	}
}
