package bus

import (
	"sync"
	"testing"
	"time"
)

// collectFlushes returns a flush func that appends merged messages under a
// mutex, plus an accessor snapshotting what has flushed so far.
func collectFlushes() (func(InboundMessage), func() []InboundMessage) {
	var mu sync.Mutex
	var got []InboundMessage
	flush := func(m InboundMessage) {
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	}
	snapshot := func() []InboundMessage {
		mu.Lock()
		defer mu.Unlock()
		out := make([]InboundMessage, len(got))
		copy(out, got)
		return out
	}
	return flush, snapshot
}

func inbound(chatID, content string) InboundMessage {
	return InboundMessage{Channel: "telegram", SenderID: "1", ChatID: chatID, Content: content}
}

// TestDebouncer_MergesBurst verifies that two messages inside the debounce
// window produce exactly one flush with fragments joined by a single space
// in arrival order.
func TestDebouncer_MergesBurst(t *testing.T) {
	flush, snapshot := collectFlushes()
	d := NewInboundDebouncer(50*time.Millisecond, flush)
	defer d.Stop()

	d.Push(inbound("100", "Hi"))
	time.Sleep(10 * time.Millisecond)
	d.Push(inbound("100", "there"))

	time.Sleep(150 * time.Millisecond)

	got := snapshot()
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 flush, got %d", len(got))
	}
	if got[0].Content != "Hi there" {
		t.Errorf("expected merged content %q, got %q", "Hi there", got[0].Content)
	}
}

// TestDebouncer_RearmExtendsWindow verifies that each new message restarts
// the quiet-period countdown.
func TestDebouncer_RearmExtendsWindow(t *testing.T) {
	flush, snapshot := collectFlushes()
	d := NewInboundDebouncer(60*time.Millisecond, flush)
	defer d.Stop()

	d.Push(inbound("100", "a"))
	time.Sleep(40 * time.Millisecond)
	// Timer re-armed: nothing may have flushed yet.
	if got := snapshot(); len(got) != 0 {
		t.Fatalf("flushed before window elapsed: %v", got)
	}
	d.Push(inbound("100", "b"))
	time.Sleep(40 * time.Millisecond)
	if got := snapshot(); len(got) != 0 {
		t.Fatalf("flushed before extended window elapsed: %v", got)
	}

	time.Sleep(80 * time.Millisecond)
	got := snapshot()
	if len(got) != 1 || got[0].Content != "a b" {
		t.Fatalf("expected single flush %q, got %v", "a b", got)
	}
}

// TestDebouncer_ChatsIndependent verifies that different chats buffer and
// flush independently.
func TestDebouncer_ChatsIndependent(t *testing.T) {
	flush, snapshot := collectFlushes()
	d := NewInboundDebouncer(30*time.Millisecond, flush)
	defer d.Stop()

	d.Push(inbound("100", "from A"))
	d.Push(inbound("200", "from B"))

	time.Sleep(100 * time.Millisecond)

	got := snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 flushes, got %d", len(got))
	}
	contents := map[string]string{}
	for _, m := range got {
		contents[m.ChatID] = m.Content
	}
	if contents["100"] != "from A" || contents["200"] != "from B" {
		t.Errorf("chats bled into each other: %v", contents)
	}
}

// TestDebouncer_FreshBufferAfterFire verifies that a message arriving after a
// flush starts a new buffer instead of reusing the consumed one.
func TestDebouncer_FreshBufferAfterFire(t *testing.T) {
	flush, snapshot := collectFlushes()
	d := NewInboundDebouncer(30*time.Millisecond, flush)
	defer d.Stop()

	d.Push(inbound("100", "first"))
	time.Sleep(80 * time.Millisecond)
	d.Push(inbound("100", "second"))
	time.Sleep(80 * time.Millisecond)

	got := snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 flushes, got %d", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Errorf("expected separate batches, got %v", got)
	}
}

// TestDebouncer_StopCancelsPending verifies that Stop drops armed timers and
// that later Push calls are ignored.
func TestDebouncer_StopCancelsPending(t *testing.T) {
	flush, snapshot := collectFlushes()
	d := NewInboundDebouncer(30*time.Millisecond, flush)

	d.Push(inbound("100", "doomed"))
	d.Stop()
	d.Push(inbound("100", "ignored"))

	time.Sleep(80 * time.Millisecond)
	if got := snapshot(); len(got) != 0 {
		t.Errorf("expected no flushes after Stop, got %v", got)
	}
}

// TestDebouncer_EmptyFireIsNoop exercises the stale-timer path directly:
// firing a key with no pending buffer must not panic or flush.
func TestDebouncer_EmptyFireIsNoop(t *testing.T) {
	flush, snapshot := collectFlushes()
	d := NewInboundDebouncer(30*time.Millisecond, flush)
	defer d.Stop()

	d.fire("telegram|100")

	if got := snapshot(); len(got) != 0 {
		t.Errorf("expected no flush for empty fire, got %v", got)
	}
}

// TestDebouncer_MetadataFromLastFragment verifies that the merged message
// carries the newest fragment's metadata (e.g. the latest message_id for
// reply-to routing).
func TestDebouncer_MetadataFromLastFragment(t *testing.T) {
	flush, snapshot := collectFlushes()
	d := NewInboundDebouncer(30*time.Millisecond, flush)
	defer d.Stop()

	first := inbound("100", "one")
	first.Metadata = map[string]string{"message_id": "1"}
	second := inbound("100", "two")
	second.Metadata = map[string]string{"message_id": "2"}

	d.Push(first)
	d.Push(second)
	time.Sleep(80 * time.Millisecond)

	got := snapshot()
	if len(got) != 1 {
		t.Fatalf("expected 1 flush, got %d", len(got))
	}
	if got[0].Metadata["message_id"] != "2" {
		t.Errorf("expected metadata from last fragment, got %v", got[0].Metadata)
	}
}
