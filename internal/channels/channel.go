// Package channels defines the chat-transport abstraction and helpers shared
// by channel implementations.
package channels

import (
	"context"
	"strings"
	"sync"

	"github.com/nextlevelbuilder/telegpt/internal/bus"
)

// Channel is a chat transport connected to the message bus.
type Channel interface {
	// Name returns the channel identifier (e.g. "telegram").
	Name() string

	// Start begins receiving messages and blocks until ctx is cancelled or
	// the transport fails.
	Start(ctx context.Context) error

	// Stop shuts the transport down.
	Stop() error

	// Send delivers an outbound message to the chat it names.
	Send(ctx context.Context, msg bus.OutboundMessage) error
}

// BaseChannel carries the allow-list shared by channel implementations. The
// list is read on every inbound message and replaced wholesale on config
// reload, hence the lock.
type BaseChannel struct {
	name string

	mu        sync.RWMutex
	allowList []string
}

// NewBaseChannel creates the shared channel core.
func NewBaseChannel(name string, allowList []string) *BaseChannel {
	return &BaseChannel{name: name, allowList: allowList}
}

// Name returns the channel identifier.
func (b *BaseChannel) Name() string { return b.name }

// SetAllowList replaces the allow-list. Used by config hot reload.
func (b *BaseChannel) SetAllowList(allowList []string) {
	b.mu.Lock()
	b.allowList = allowList
	b.mu.Unlock()
}

// IsAllowed reports whether a sender may use the bot. An empty allow-list
// means open access. Entries match against the sender ID or username, with a
// leading "@" ignored and "id|username" compound entries split.
func (b *BaseChannel) IsAllowed(senderID, username string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.allowList) == 0 {
		return true
	}

	for _, entry := range b.allowList {
		entry = strings.TrimPrefix(strings.TrimSpace(entry), "@")
		if entry == "" {
			continue
		}
		for _, part := range strings.Split(entry, "|") {
			if part == senderID || (username != "" && part == username) {
				return true
			}
		}
	}
	return false
}

// Truncate shortens s to max runes for log lines.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
