// Package pricing converts token usage into money.
//
// Rates are expressed per 1000 tokens and held as decimals so repeated
// accumulation stays exact. Chat models price prompt and completion tokens
// separately; legacy completion models use a flat rate over total tokens.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/nextlevelbuilder/telegpt/internal/providers"
)

// Entry holds per-1K-token rates for one model. Either the Prompt/Completion
// pair or Flat is set, never both.
type Entry struct {
	Prompt     decimal.Decimal
	Completion decimal.Decimal
	Flat       decimal.Decimal
}

// Table maps model names to their rates.
type Table map[string]Entry

var perThousand = decimal.NewFromInt(1000)

// Default returns the built-in OpenAI price table.
func Default() Table {
	return Table{
		"gpt-3.5-turbo": {
			Prompt:     decimal.RequireFromString("0.0015"),
			Completion: decimal.RequireFromString("0.002"),
		},
		"gpt-3.5-turbo-16k": {
			Prompt:     decimal.RequireFromString("0.003"),
			Completion: decimal.RequireFromString("0.004"),
		},
		"gpt-4": {
			Prompt:     decimal.RequireFromString("0.03"),
			Completion: decimal.RequireFromString("0.06"),
		},
		"gpt-4-32k": {
			Prompt:     decimal.RequireFromString("0.06"),
			Completion: decimal.RequireFromString("0.12"),
		},
		"text-davinci-003": {
			Flat: decimal.RequireFromString("0.02"),
		},
	}
}

// Cost returns the dollar cost of one completion. Unknown models and nil
// usage cost zero; callers accumulate the result into session totals.
func (t Table) Cost(model string, usage *providers.Usage) decimal.Decimal {
	if usage == nil {
		return decimal.Zero
	}

	entry, ok := t[model]
	if !ok {
		return decimal.Zero
	}

	if !entry.Flat.IsZero() {
		return entry.Flat.
			Mul(decimal.NewFromInt(int64(usage.TotalTokens))).
			Div(perThousand)
	}

	prompt := entry.Prompt.
		Mul(decimal.NewFromInt(int64(usage.PromptTokens))).
		Div(perThousand)
	completion := entry.Completion.
		Mul(decimal.NewFromInt(int64(usage.CompletionTokens))).
		Div(perThousand)

	return prompt.Add(completion)
}
