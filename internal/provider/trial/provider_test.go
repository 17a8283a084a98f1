package trial

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	trialapi "github.com/pysensei/ai-gateway/internal/api/trial"
	"github.com/pysensei/ai-gateway/internal/domain"
)

func trialBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestChatCachesQuotaMetadata(t *testing.T) {
	reset := time.Now().Add(24 * time.Hour).UnixMilli()
	ts := trialBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultPath {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set(trialapi.HeaderLimit, "5")
		w.Header().Set(trialapi.HeaderRemaining, "3")
		w.Header().Set(trialapi.HeaderReset, strconv.FormatInt(reset, 10))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(trialapi.ChatResponse{Message: "hi there", Remaining: 3, ResetTime: reset})
	})

	p := New(ts.URL)

	if _, _, ok := p.QuotaStatus(); ok {
		t.Fatal("expected quota status unknown before first call")
	}

	text, err := p.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if text != "hi there" {
		t.Fatalf("expected 'hi there', got %q", text)
	}

	remaining, resetAt, ok := p.QuotaStatus()
	if !ok {
		t.Fatal("expected quota status known after call")
	}
	if remaining != 3 {
		t.Fatalf("expected remaining 3, got %d", remaining)
	}
	if resetAt.UnixMilli() != reset {
		t.Fatalf("expected reset %d, got %d", reset, resetAt.UnixMilli())
	}
}

func TestChatQuotaExceeded(t *testing.T) {
	reset := time.Now().Add(3 * time.Hour).UnixMilli()
	ts := trialBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(trialapi.HeaderLimit, "5")
		w.Header().Set(trialapi.HeaderRemaining, "0")
		w.Header().Set(trialapi.HeaderReset, strconv.FormatInt(reset, 10))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(trialapi.RateLimitedResponse{
			Error:     "Free trial limit reached",
			Message:   "You've used all 5 free requests. Trial resets in 180 minutes, or upgrade for unlimited access.",
			Remaining: 0,
			ResetTime: reset,
		})
	})

	p := New(ts.URL)

	_, err := p.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}})

	var quotaErr *domain.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected *domain.QuotaExceededError, got %v", err)
	}
	if quotaErr.ResetAt.UnixMilli() != reset {
		t.Fatalf("expected reset %d, got %d", reset, quotaErr.ResetAt.UnixMilli())
	}
	if quotaErr.Error() == "" || quotaErr.Message == "" {
		t.Fatal("expected the server's human-readable message to surface")
	}

	remaining, _, ok := p.QuotaStatus()
	if !ok || remaining != 0 {
		t.Fatalf("expected cached remaining 0 after denial, got remaining=%d known=%v", remaining, ok)
	}
}

func TestChatUpstreamError(t *testing.T) {
	ts := trialBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(trialapi.UnavailableResponse{Error: "API key required", NeedsUpgrade: true})
	})

	p := New(ts.URL)

	_, err := p.Chat(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}})

	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *domain.UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", upstream.Status)
	}
}

// The cached counter is a display estimate; the server decides admission.
// Two rapid calls with a stale cache must still hit the server gate both
// times, so only the server-side count matters.
func TestStaleCacheCannotBypassServerGate(t *testing.T) {
	var mu sync.Mutex
	count := 0
	reset := time.Now().Add(24 * time.Hour).UnixMilli()

	ts := trialBackend(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		admitted := count <= 1 // server has exactly one slot left
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !admitted {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(trialapi.RateLimitedResponse{
				Error: "Free trial limit reached", Remaining: 0, ResetTime: reset,
			})
			return
		}
		json.NewEncoder(w).Encode(trialapi.ChatResponse{Message: "ok", Remaining: 0, ResetTime: reset})
	})

	p := New(ts.URL)
	msgs := []domain.Message{{Role: domain.RoleUser, Content: "hi"}}

	if _, err := p.Chat(context.Background(), msgs); err != nil {
		t.Fatalf("first call should pass the gate: %v", err)
	}

	_, err := p.Chat(context.Background(), msgs)
	var quotaErr *domain.QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("second call must be denied by the server regardless of the client cache, got %v", err)
	}
}

func TestInitializedAlwaysTrue(t *testing.T) {
	if !New("http://localhost:0").Initialized() {
		t.Fatal("trial provider must always report initialized")
	}
}
