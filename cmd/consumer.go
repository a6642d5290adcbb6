package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/telegpt/internal/agent"
	"github.com/nextlevelbuilder/telegpt/internal/bus"
	"github.com/nextlevelbuilder/telegpt/internal/providers"
)

// consumeInboundMessages reads inbound messages from the bus and routes them
// through the completion loop, then publishes the reply back.
func consumeInboundMessages(ctx context.Context, msgBus *bus.MessageBus, loop *agent.Loop, debounceMs int) {
	slog.Info("inbound message consumer started")

	// Inbound message deduplication. TTL=20min, max=5000 entries, prevents
	// poll restarts / double-taps from duplicating completion runs.
	dedupe := bus.NewDedupeCache(20*time.Minute, 5000)

	// Per-session lanes so one chat's turns run in order while distinct
	// chats proceed concurrently.
	var lanes sync.Map // session key string → *sync.Mutex

	// processMergedMessage handles one (possibly merged) inbound message.
	// Called directly by the debouncer's flush callback, so the completion
	// runs in its own goroutine to not block other chats' flushes.
	processMergedMessage := func(msg bus.InboundMessage) {
		key := msg.Key()
		runID := uuid.NewString()

		go func() {
			laneIface, _ := lanes.LoadOrStore(key, &sync.Mutex{})
			lane := laneIface.(*sync.Mutex)
			lane.Lock()
			defer lane.Unlock()

			slog.Debug("completion run started", "run_id", runID, "session", key, "length", len(msg.Content))

			reply, err := loop.Answer(ctx, key, msg.Content)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					slog.Info("completion run cancelled", "run_id", runID, "session", key)
					return
				}
				slog.Error("completion run failed", "run_id", runID, "session", key, "error", err)
				msgBus.PublishOutbound(bus.OutboundMessage{
					Channel: msg.Channel,
					ChatID:  msg.ChatID,
					Content: formatCompletionError(err),
				})
				return
			}

			msgBus.PublishOutbound(bus.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				Content: reply,
			})
		}()
	}

	// Inbound debounce: merge rapid messages from the same chat before
	// spending a completion on them.
	if debounceMs <= 0 {
		debounceMs = 2000
	}
	debouncer := bus.NewInboundDebouncer(
		time.Duration(debounceMs)*time.Millisecond,
		processMergedMessage,
	)
	defer debouncer.Stop()

	slog.Info("inbound debounce configured", "debounce_ms", debounceMs)

	for {
		msg, ok := msgBus.ConsumeInbound(ctx)
		if !ok {
			slog.Info("inbound message consumer stopped")
			return
		}

		if msgID := msg.Metadata["message_id"]; msgID != "" {
			dedupeKey := fmt.Sprintf("%s|%s|%s|%s", msg.Channel, msg.SenderID, msg.ChatID, msgID)
			if dedupe.IsDuplicate(dedupeKey) {
				slog.Debug("dedup: skipping duplicate message", "key", dedupeKey)
				continue
			}
		}

		// Commands bypass the debouncer but still take the session lane:
		// /clear arriving mid-completion must wait for the in-flight turn
		// instead of interleaving with its history writes.
		if cmd := msg.Command(); cmd != "" {
			go func(m bus.InboundMessage, command string) {
				key := m.Key()
				laneIface, _ := lanes.LoadOrStore(key, &sync.Mutex{})
				lane := laneIface.(*sync.Mutex)
				lane.Lock()
				defer lane.Unlock()

				if reply := loop.HandleCommand(key, command); reply != "" {
					msgBus.PublishOutbound(bus.OutboundMessage{
						Channel: m.Channel,
						ChatID:  m.ChatID,
						Content: reply,
					})
				}
			}(msg, cmd)
			continue
		}

		debouncer.Push(msg)
	}
}

// formatCompletionError turns a backend failure into user-facing text.
func formatCompletionError(err error) string {
	var httpErr *providers.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Status == http.StatusUnauthorized:
			return "The bot's API key was rejected. Please contact the bot owner."
		case httpErr.Status == http.StatusTooManyRequests:
			return "The AI backend is rate limiting us. Please try again in a moment."
		case httpErr.Status >= 500:
			return "The AI backend had an internal error. Please try again."
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The AI backend took too long to answer. Please try again."
	}
	return "Sorry, I couldn't process that message. Please try again."
}
