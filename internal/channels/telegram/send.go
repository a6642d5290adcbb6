package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/telegpt/internal/bus"
	"github.com/nextlevelbuilder/telegpt/internal/channels"
)

// Send delivers an outbound message, splitting it into Telegram-sized chunks
// sent in order.
func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	chatID, err := parseChatID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat ID %q: %w", msg.ChatID, err)
	}

	limit := c.config.ChunkLimit
	if limit <= 0 || limit > channels.MaxMessageLen {
		limit = channels.MaxMessageLen
	}

	chunks := channels.SplitMessage(msg.Content, limit)
	for i, chunk := range chunks {
		if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), chunk)); err != nil {
			return fmt.Errorf("send chunk %d/%d to chat %s: %w", i+1, len(chunks), msg.ChatID, err)
		}
	}

	slog.Debug("telegram message sent",
		"chat_id", msg.ChatID,
		"chunks", len(chunks),
		"length", len(msg.Content),
	)
	return nil
}
