package bus

import (
	"context"
	"testing"
	"time"
)

// TestBus_InboundRoundTrip verifies publish → consume ordering.
func TestBus_InboundRoundTrip(t *testing.T) {
	b := NewMessageBus()
	b.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", Content: "a"})
	b.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", Content: "b"})

	ctx := context.Background()
	for _, want := range []string{"a", "b"} {
		msg, ok := b.ConsumeInbound(ctx)
		if !ok {
			t.Fatal("expected message, got closed")
		}
		if msg.Content != want {
			t.Errorf("expected %q, got %q", want, msg.Content)
		}
	}
}

// TestBus_ConsumeStopsOnCancel verifies that a cancelled context unblocks the
// consumer with ok=false.
func TestBus_ConsumeStopsOnCancel(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := b.ConsumeInbound(ctx)
		done <- ok
	}()

	cancel()
	select {
	case ok := <-done:
		if ok {
			t.Error("expected ok=false after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("consumer did not unblock on cancel")
	}
}

// TestBus_OutboundRoundTrip verifies the outbound queue path.
func TestBus_OutboundRoundTrip(t *testing.T) {
	b := NewMessageBus()
	b.PublishOutbound(OutboundMessage{Channel: "telegram", ChatID: "1", Content: "reply"})

	msg, ok := b.SubscribeOutbound(context.Background())
	if !ok || msg.Content != "reply" {
		t.Fatalf("expected reply message, got %v ok=%v", msg, ok)
	}
}

// TestDedupeCache_DetectsRepeats verifies duplicate detection and expiry.
func TestDedupeCache_DetectsRepeats(t *testing.T) {
	c := NewDedupeCache(50*time.Millisecond, 10)

	if c.IsDuplicate("k") {
		t.Error("first sighting must not be a duplicate")
	}
	if !c.IsDuplicate("k") {
		t.Error("second sighting within TTL must be a duplicate")
	}

	time.Sleep(80 * time.Millisecond)
	if c.IsDuplicate("k") {
		t.Error("sighting after TTL must not be a duplicate")
	}
}

// TestDedupeCache_CapBounded verifies the hard cap on tracked keys.
func TestDedupeCache_CapBounded(t *testing.T) {
	c := NewDedupeCache(time.Minute, 3)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		c.IsDuplicate(k)
	}
	c.mu.Lock()
	n := len(c.seen)
	c.mu.Unlock()
	if n > 3 {
		t.Errorf("cache exceeded cap: %d entries", n)
	}
}
