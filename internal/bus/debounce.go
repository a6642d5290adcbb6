package bus

import (
	"strings"
	"sync"
	"time"
)

// InboundDebouncer merges rapid messages from the same chat before
// processing: each message (re)arms a per-chat timer, and only when the chat
// has been quiet for the full delay is the buffered batch flushed as one
// merged message. This prevents a burst of short messages from producing one
// completion request per fragment.
//
// Each chat's buffer and timer are independent; flushing one chat never
// blocks another. A message arriving while its chat's timer is firing either
// joins the firing batch or opens a fresh buffer, never neither.
type InboundDebouncer struct {
	delay time.Duration
	flush func(InboundMessage)

	mu      sync.Mutex
	pending map[string]*pendingBatch
	stopped bool
}

type pendingBatch struct {
	msgs  []InboundMessage
	timer *time.Timer
}

// NewInboundDebouncer creates a debouncer that calls flush with the merged
// message once a chat has been quiet for delay.
func NewInboundDebouncer(delay time.Duration, flush func(InboundMessage)) *InboundDebouncer {
	return &InboundDebouncer{
		delay:   delay,
		flush:   flush,
		pending: make(map[string]*pendingBatch),
	}
}

// Push buffers a message and re-arms its chat's timer. Any timer already
// armed for the chat is cancelled first, so the delay always counts from the
// most recent message.
func (d *InboundDebouncer) Push(msg InboundMessage) {
	key := msg.Key()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	b, ok := d.pending[key]
	if !ok {
		b = &pendingBatch{}
		d.pending[key] = b
	} else if b.timer != nil {
		b.timer.Stop()
	}

	b.msgs = append(b.msgs, msg)
	b.timer = time.AfterFunc(d.delay, func() { d.fire(key) })
}

// fire takes and clears the chat's pending buffer, then flushes the merged
// batch. Firing with no buffer (a stale timer racing a newer one) is a no-op.
func (d *InboundDebouncer) fire(key string) {
	d.mu.Lock()
	b, ok := d.pending[key]
	if !ok || len(b.msgs) == 0 {
		delete(d.pending, key)
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	d.flush(mergeBatch(b.msgs))
}

// Stop cancels all armed timers and drops any pending buffers. Pushes after
// Stop are ignored.
func (d *InboundDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, b := range d.pending {
		if b.timer != nil {
			b.timer.Stop()
		}
		delete(d.pending, key)
	}
}

// mergeBatch joins buffered fragments with a single space in arrival order.
// Routing fields and metadata are taken from the most recent fragment.
func mergeBatch(msgs []InboundMessage) InboundMessage {
	merged := msgs[len(msgs)-1]

	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.Content)
	}
	merged.Content = strings.Join(parts, " ")
	return merged
}
