// Package agent orchestrates one completion turn: history in, LLM call,
// history and cost accounting out.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/telegpt/internal/pricing"
	"github.com/nextlevelbuilder/telegpt/internal/providers"
	"github.com/nextlevelbuilder/telegpt/internal/sessions"
)

const defaultGreeting = "Hi! I'm an AI assistant. Send me a message or a voice note and I'll reply."

// Loop runs completion turns against the provider and keeps session state
// consistent with what the model has actually seen.
type Loop struct {
	provider provider
	sessions *sessions.Manager
	prices   pricing.Table

	maxTokens        int
	gpt3Model        string
	gpt4Model        string
	resetCostOnClear bool
}

// provider is the subset of providers.Provider the loop needs.
type provider interface {
	Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error)
	DefaultModel() string
}

// New creates a completion loop.
func New(p providers.Provider, mgr *sessions.Manager, prices pricing.Table, maxTokens int, gpt3Model, gpt4Model string, resetCostOnClear bool) *Loop {
	return &Loop{
		provider:         p,
		sessions:         mgr,
		prices:           prices,
		maxTokens:        maxTokens,
		gpt3Model:        gpt3Model,
		gpt4Model:        gpt4Model,
		resetCostOnClear: resetCostOnClear,
	}
}

// Answer runs one completion turn for the session. The user turn is recorded
// before the call and rolled back if the call fails, so a failed turn leaves
// no trace in history. The reply carries a cost footer when the session asks
// for one.
func (l *Loop) Answer(ctx context.Context, key, userText string) (string, error) {
	l.sessions.AddMessage(key, providers.Message{Role: providers.RoleUser, Content: userText})

	info := l.sessions.Snapshot(key)

	resp, err := l.provider.Chat(ctx, providers.ChatRequest{
		Messages:  l.sessions.History(key),
		Model:     info.Model,
		MaxTokens: l.maxTokens,
	})
	if err != nil {
		l.sessions.RollbackLast(key, providers.RoleUser)
		return "", fmt.Errorf("completion for %s: %w", key, err)
	}

	l.sessions.AddMessage(key, providers.Message{Role: providers.RoleAssistant, Content: resp.Content})

	cost := l.prices.Cost(info.Model, resp.Usage)
	total := l.sessions.AddCost(key, cost)

	if resp.Usage != nil {
		slog.Info("completion finished",
			"session", key,
			"model", info.Model,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
			"cost", cost.String(),
			"total_cost", total.String(),
		)
	}

	reply := resp.Content
	if info.ShowCost {
		reply += fmt.Sprintf("\n\n%s · cost $%s · total $%s", info.Model, cost.StringFixed(4), total.StringFixed(4))
	}
	return reply, nil
}

// HandleCommand applies a chat command to the session and returns the text
// to send back. Unknown commands return an empty string.
func (l *Loop) HandleCommand(key, command string) string {
	switch command {
	case "start":
		// Touch the session so /start seeds it.
		l.sessions.History(key)
		return defaultGreeting

	case "clear":
		l.sessions.Clear(key, l.resetCostOnClear)
		return "Chat history cleared."

	case "use_gpt3":
		l.sessions.SetModel(key, l.gpt3Model)
		return fmt.Sprintf("Switched to %s.", l.gpt3Model)

	case "use_gpt4":
		l.sessions.SetModel(key, l.gpt4Model)
		return fmt.Sprintf("Switched to %s.", l.gpt4Model)

	case "show_cost":
		l.sessions.SetShowCost(key, true)
		return "Cost display enabled. Each reply will include its cost."

	case "hide_cost":
		l.sessions.SetShowCost(key, false)
		return "Cost display disabled."
	}

	slog.Debug("unknown command", "session", key, "command", command)
	return ""
}
