package bus

import "context"

// InboundMessage represents a message received from a channel (Telegram, CLI, etc.)
type InboundMessage struct {
	Channel  string            `json:"channel"`
	SenderID string            `json:"sender_id"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage represents a message to be sent to a channel.
type OutboundMessage struct {
	Channel  string            `json:"channel"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Key returns the per-chat routing key used for debouncing and session lookup.
// Messages from the same chat share one pending buffer and one debounce timer.
func (m InboundMessage) Key() string {
	return m.Channel + "|" + m.ChatID
}

// Command returns the command name carried in metadata, or "" for a normal
// message. Commands bypass the inbound debouncer.
func (m InboundMessage) Command() string {
	return m.Metadata["command"]
}

// MessageRouter abstracts inbound/outbound message routing between channels
// and the completion loop.
type MessageRouter interface {
	PublishInbound(msg InboundMessage)
	ConsumeInbound(ctx context.Context) (InboundMessage, bool)
	PublishOutbound(msg OutboundMessage)
	SubscribeOutbound(ctx context.Context) (OutboundMessage, bool)
}
