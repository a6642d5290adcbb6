package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/telegpt/internal/bus"
	"github.com/nextlevelbuilder/telegpt/internal/channels"
)

// handleMessage processes one incoming Telegram update.
func (c *Channel) handleMessage(ctx context.Context, update telego.Update) {
	message := update.Message
	if message == nil {
		return
	}

	user := message.From
	if user == nil {
		return
	}

	userID := fmt.Sprintf("%d", user.ID)
	chatIDStr := fmt.Sprintf("%d", message.Chat.ID)

	slog.Debug("telegram message received",
		"chat_id", message.Chat.ID,
		"user_id", user.ID,
		"username", user.Username,
		"text_preview", channels.Truncate(message.Text, 60),
	)

	// Silent drop: unauthorized senders get no reply.
	if !c.IsAllowed(userID, user.Username) {
		slog.Debug("unauthorized access denied",
			"user_id", userID, "username", user.Username,
		)
		return
	}

	if message.Voice != nil {
		c.handleVoice(ctx, message, userID, chatIDStr)
		return
	}

	text := message.Text
	if text == "" {
		slog.Debug("telegram message skipped (no text)", "chat_id", message.Chat.ID)
		return
	}

	if c.handleBotCommand(ctx, message.Chat.ID, chatIDStr, text, userID) {
		return
	}

	c.msgBus.PublishInbound(bus.InboundMessage{
		Channel:  c.Name(),
		SenderID: userID,
		ChatID:   chatIDStr,
		Content:  text,
		Metadata: map[string]string{
			"message_id": fmt.Sprintf("%d", message.MessageID),
		},
	})
}
