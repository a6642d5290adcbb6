package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/telegpt/internal/agent"
	"github.com/nextlevelbuilder/telegpt/internal/bus"
	"github.com/nextlevelbuilder/telegpt/internal/channels/telegram"
	"github.com/nextlevelbuilder/telegpt/internal/config"
	"github.com/nextlevelbuilder/telegpt/internal/pricing"
	"github.com/nextlevelbuilder/telegpt/internal/providers"
	"github.com/nextlevelbuilder/telegpt/internal/sessions"
)

// runBot wires the bot together and blocks until shutdown.
func runBot() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	provider := providers.NewOpenAIProvider("openai", cfg.OpenAI.APIKey, cfg.OpenAI.APIBase, cfg.Agent.Model)
	sessionMgr := sessions.NewManager(cfg.Agent.SystemPrompt, cfg.Agent.Model)
	loop := agent.New(provider, sessionMgr, pricing.Default(),
		cfg.Agent.MaxTokens, cfg.Agent.GPT3Model, cfg.Agent.GPT4Model, cfg.Agent.ResetCostOnClear)
	msgBus := bus.NewMessageBus()

	tgChannel, err := telegram.New(cfg.Telegram, msgBus, provider)
	if err != nil {
		slog.Error("failed to create telegram channel", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tgChannel.Start(ctx); err != nil {
		slog.Error("failed to start telegram channel", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		consumeInboundMessages(gctx, msgBus, loop, cfg.Agent.InboundDebounceMs)
		return nil
	})

	g.Go(func() error {
		dispatchOutboundMessages(gctx, msgBus, tgChannel)
		return nil
	})

	g.Go(func() error {
		return config.Watch(gctx, cfgPath, func(fresh *config.Config) {
			tgChannel.SetAllowList(fresh.Telegram.AllowFrom)
		})
	})

	slog.Info("telegpt started",
		"model", cfg.Agent.Model,
		"debounce_ms", cfg.Agent.InboundDebounceMs,
		"allow_list_size", len(cfg.Telegram.AllowFrom),
	)

	if err := g.Wait(); err != nil {
		slog.Error("bot terminated with error", "error", err)
	}

	if err := tgChannel.Stop(); err != nil {
		slog.Warn("telegram channel stop failed", "error", err)
	}
	slog.Info("telegpt stopped", "sessions", sessionMgr.Count())
}

// dispatchOutboundMessages delivers bus outbound messages to the channel.
func dispatchOutboundMessages(ctx context.Context, msgBus *bus.MessageBus, ch *telegram.Channel) {
	for {
		msg, ok := msgBus.SubscribeOutbound(ctx)
		if !ok {
			return
		}
		// Only unknown commands yield an empty reply; Telegram rejects
		// empty sendMessage calls, so skip those here.
		if msg.Content == "" {
			continue
		}
		if err := ch.Send(ctx, msg); err != nil {
			slog.Error("outbound delivery failed", "chat_id", msg.ChatID, "error", err)
		}
	}
}
