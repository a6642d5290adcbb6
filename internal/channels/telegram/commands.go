package telegram

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/telegpt/internal/bus"
)

// helpText is the /help reply, answered directly by the channel without a
// round trip through the bus.
const helpText = "Available commands:\n" +
	"/start — Greet the bot and begin a conversation\n" +
	"/clear — Clear conversation history\n" +
	"/use_gpt3 — Switch to the GPT-3.5 model\n" +
	"/use_gpt4 — Switch to the GPT-4 model\n" +
	"/show_cost — Show cost after each reply\n" +
	"/hide_cost — Hide the cost footer\n" +
	"/help — Show this help message\n" +
	"\nJust send a message (or a voice note) to chat with the AI."

// busCommands are the commands forwarded to the agent loop. They carry chat
// state changes, so the channel never answers them locally.
var busCommands = map[string]bool{
	"/start":     true,
	"/clear":     true,
	"/use_gpt3":  true,
	"/use_gpt4":  true,
	"/show_cost": true,
	"/hide_cost": true,
}

// handleBotCommand checks if the message is a known bot command and handles
// it. Returns true if the message was consumed as a command.
func (c *Channel) handleBotCommand(ctx context.Context, chatID int64, chatIDStr, text, senderID string) bool {
	if len(text) == 0 || text[0] != '/' {
		return false
	}

	// Extract command (strip @botname suffix if present).
	cmd := strings.SplitN(text, " ", 2)[0]
	cmd = strings.SplitN(cmd, "@", 2)[0]
	cmd = strings.ToLower(cmd)

	if cmd == "/help" {
		msg := tu.Message(tu.ID(chatID), helpText)
		if _, err := c.bot.SendMessage(ctx, msg); err != nil {
			slog.Warn("failed to send help reply", "chat_id", chatID, "error", err)
		}
		return true
	}

	if !busCommands[cmd] {
		slog.Debug("unknown command ignored", "command", cmd, "chat_id", chatID)
		return true
	}

	c.msgBus.PublishInbound(bus.InboundMessage{
		Channel:  c.Name(),
		SenderID: senderID,
		ChatID:   chatIDStr,
		Content:  text,
		Metadata: map[string]string{
			"command": strings.TrimPrefix(cmd, "/"),
		},
	})
	return true
}

// SyncMenuCommands registers bot commands with Telegram via setMyCommands.
func (c *Channel) SyncMenuCommands(ctx context.Context, commands []telego.BotCommand) error {
	if err := c.bot.DeleteMyCommands(ctx, nil); err != nil {
		slog.Debug("deleteMyCommands failed (may not exist)", "error", err)
	}

	if len(commands) == 0 {
		return nil
	}

	return c.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: commands,
	})
}

// DefaultMenuCommands returns the bot menu commands.
func DefaultMenuCommands() []telego.BotCommand {
	return []telego.BotCommand{
		{Command: "start", Description: "Start chatting with the bot"},
		{Command: "clear", Description: "Clear conversation history"},
		{Command: "use_gpt3", Description: "Switch to GPT-3.5"},
		{Command: "use_gpt4", Description: "Switch to GPT-4"},
		{Command: "show_cost", Description: "Show cost after each reply"},
		{Command: "hide_cost", Description: "Hide the cost footer"},
		{Command: "help", Description: "Show available commands"},
	}
}
