// Package config loads the bot configuration from a JSON5 file with
// environment variable overlays.
package config

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration.
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	OpenAI   OpenAIConfig   `json:"openai"`
	Agent    AgentConfig    `json:"agent"`
}

// TelegramConfig configures the Telegram channel.
type TelegramConfig struct {
	// Token is set via env only and never serialized.
	Token      string              `json:"-"`
	AllowFrom  FlexibleStringSlice `json:"allow_from"`
	ChunkLimit int                 `json:"chunk_limit"`
}

// OpenAIConfig configures the completion backend.
type OpenAIConfig struct {
	// APIKey is set via env only and never serialized.
	APIKey  string `json:"-"`
	APIBase string `json:"api_base"`
}

// AgentConfig configures the completion loop.
type AgentConfig struct {
	Model             string `json:"model"`
	GPT3Model         string `json:"gpt3_model"`
	GPT4Model         string `json:"gpt4_model"`
	MaxTokens         int    `json:"max_tokens"`
	SystemPrompt      string `json:"system_prompt"`
	InboundDebounceMs int    `json:"inbound_debounce_ms"`
	ResetCostOnClear  bool   `json:"reset_cost_on_clear"`
}

// Validate checks that the config can actually run a bot.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (set TELEGPT_TELEGRAM_TOKEN)")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai api key is required (set TELEGPT_OPENAI_API_KEY)")
	}
	if c.Agent.Model == "" {
		return fmt.Errorf("agent model must not be empty")
	}
	if c.Agent.MaxTokens <= 0 {
		return fmt.Errorf("agent max_tokens must be positive, got %d", c.Agent.MaxTokens)
	}
	if c.Agent.InboundDebounceMs < 0 {
		return fmt.Errorf("inbound_debounce_ms must not be negative, got %d", c.Agent.InboundDebounceMs)
	}
	return nil
}
