package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			ChunkLimit: 4096,
		},
		Agent: AgentConfig{
			Model:             "gpt-3.5-turbo",
			GPT3Model:         "gpt-3.5-turbo",
			GPT4Model:         "gpt-4",
			MaxTokens:         2000,
			SystemPrompt:      "You are a helpful assistant.",
			InboundDebounceMs: 2000,
		},
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A missing
// file is not an error: the bot can run on defaults plus env.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("TELEGPT_TELEGRAM_TOKEN", &c.Telegram.Token)
	envStr("TELEGPT_OPENAI_API_KEY", &c.OpenAI.APIKey)
	envStr("TELEGPT_OPENAI_API_BASE", &c.OpenAI.APIBase)
	envStr("TELEGPT_MODEL", &c.Agent.Model)
	envStr("TELEGPT_SYSTEM_PROMPT", &c.Agent.SystemPrompt)

	if v := os.Getenv("TELEGPT_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agent.MaxTokens = n
		}
	}
	if v := os.Getenv("TELEGPT_INBOUND_DEBOUNCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Agent.InboundDebounceMs = n
		}
	}
	if v := os.Getenv("TELEGPT_CHUNK_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Telegram.ChunkLimit = n
		}
	}
	if v := os.Getenv("TELEGPT_RESET_COST_ON_CLEAR"); v != "" {
		c.Agent.ResetCostOnClear = v == "true" || v == "1"
	}

	// Allowed user IDs from env (comma-separated)
	if v := os.Getenv("TELEGPT_ALLOWED_USER_IDS"); v != "" {
		ids := strings.Split(v, ",")
		out := make(FlexibleStringSlice, 0, len(ids))
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
		c.Telegram.AllowFrom = out
	}
}
