package sessions

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nextlevelbuilder/telegpt/internal/providers"
)

func TestHistorySeedsSystemPrompt(t *testing.T) {
	m := NewManager("You are a helpful assistant.", "gpt-3.5-turbo")

	h := m.History("telegram|100")
	if len(h) != 1 {
		t.Fatalf("expected seeded history of 1, got %d", len(h))
	}
	if h[0].Role != providers.RoleSystem || h[0].Content != "You are a helpful assistant." {
		t.Errorf("unexpected seed message: %+v", h[0])
	}
}

func TestAddMessageBeforeHistoryStillSeeds(t *testing.T) {
	m := NewManager("seed", "gpt-3.5-turbo")

	m.AddMessage("telegram|100", providers.Message{Role: providers.RoleUser, Content: "hi"})

	h := m.History("telegram|100")
	if len(h) != 2 {
		t.Fatalf("expected system prompt + user message, got %d messages", len(h))
	}
	if h[0].Role != providers.RoleSystem {
		t.Errorf("expected system prompt first, got %+v", h[0])
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	m := NewManager("seed", "gpt-3.5-turbo")
	m.AddMessage("telegram|100", providers.Message{Role: providers.RoleUser, Content: "hi"})

	h := m.History("telegram|100")
	h[0].Content = "mutated"

	if got := m.History("telegram|100"); got[0].Content != "seed" {
		t.Errorf("internal history was mutated through the returned slice")
	}
}

func TestSessionsIndependent(t *testing.T) {
	m := NewManager("seed", "gpt-3.5-turbo")

	m.AddMessage("telegram|100", providers.Message{Role: providers.RoleUser, Content: "from A"})
	m.SetModel("telegram|200", "gpt-4")

	if h := m.History("telegram|200"); len(h) != 1 {
		t.Errorf("chat 200 inherited chat 100 messages: %v", h)
	}
	if info := m.Snapshot("telegram|100"); info.Model != "gpt-3.5-turbo" {
		t.Errorf("chat 100 inherited chat 200 model: %s", info.Model)
	}
}

func TestRollbackLast(t *testing.T) {
	m := NewManager("seed", "gpt-3.5-turbo")
	key := "telegram|100"

	m.AddMessage(key, providers.Message{Role: providers.RoleUser, Content: "doomed"})
	m.RollbackLast(key, providers.RoleUser)

	if h := m.History(key); len(h) != 1 {
		t.Errorf("expected user turn rolled back, history: %v", h)
	}

	// A role mismatch must leave history untouched.
	m.AddMessage(key, providers.Message{Role: providers.RoleAssistant, Content: "kept"})
	m.RollbackLast(key, providers.RoleUser)
	if h := m.History(key); len(h) != 2 {
		t.Errorf("rollback removed a message of the wrong role: %v", h)
	}
}

func TestClearKeepsSettings(t *testing.T) {
	m := NewManager("seed", "gpt-3.5-turbo")
	key := "telegram|100"

	m.AddMessage(key, providers.Message{Role: providers.RoleUser, Content: "hi"})
	m.SetModel(key, "gpt-4")
	m.SetShowCost(key, true)
	m.AddCost(key, decimal.RequireFromString("0.01"))

	m.Clear(key, false)

	if h := m.History(key); len(h) != 1 || h[0].Role != providers.RoleSystem {
		t.Errorf("clear must reseed the system prompt, got %v", h)
	}
	info := m.Snapshot(key)
	if info.Model != "gpt-4" || !info.ShowCost {
		t.Errorf("clear must keep model and cost display: %+v", info)
	}
	if !info.TotalCost.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("clear must keep the running total by default: %s", info.TotalCost)
	}
}

func TestClearResetsCostWhenAsked(t *testing.T) {
	m := NewManager("seed", "gpt-3.5-turbo")
	key := "telegram|100"

	m.AddCost(key, decimal.RequireFromString("0.05"))
	m.Clear(key, true)

	if info := m.Snapshot(key); !info.TotalCost.IsZero() {
		t.Errorf("expected total reset to zero, got %s", info.TotalCost)
	}
}

func TestAddCostAccumulates(t *testing.T) {
	m := NewManager("seed", "gpt-3.5-turbo")
	key := "telegram|100"

	m.AddCost(key, decimal.RequireFromString("0.002"))
	total := m.AddCost(key, decimal.RequireFromString("0.002"))

	if !total.Equal(decimal.RequireFromString("0.004")) {
		t.Errorf("expected exact total 0.004, got %s", total)
	}
}

func TestEmptySystemPrompt(t *testing.T) {
	m := NewManager("", "gpt-3.5-turbo")
	if h := m.History("telegram|100"); len(h) != 0 {
		t.Errorf("expected empty seed history, got %v", h)
	}
}
