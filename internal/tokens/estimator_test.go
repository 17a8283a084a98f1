package tokens

import (
	"testing"

	"github.com/pysensei/ai-gateway/internal/domain"
)

func TestCountMessages(t *testing.T) {
	est, err := NewEstimator()
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	count, err := est.CountMessages([]domain.Message{
		{Role: domain.RoleUser, Content: "Explain list comprehensions."},
	})
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if count <= perMessageOverhead {
		t.Fatalf("expected content tokens beyond the framing overhead, got %d", count)
	}
}

func TestCountMessagesEmptyConversation(t *testing.T) {
	est, err := NewEstimator()
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	count, err := est.CountMessages(nil)
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 for an empty conversation, got %d", count)
	}
}

func TestCountMessagesGrowsWithTurns(t *testing.T) {
	est, err := NewEstimator()
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}

	one, err := est.CountMessages([]domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	two, err := est.CountMessages([]domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hello back"},
	})
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if two <= one {
		t.Fatalf("expected two turns (%d) to cost more than one (%d)", two, one)
	}
}
