package realtime

import (
	"strings"
	"sync"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/bus"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"go.uber.org/zap"
)

const topicRoot = "realtime."

// Hub is the change feed. Row changes are broadcast as bus events under
// realtime.<schema>.<table>.<type> and consumed through named channels.
type Hub struct {
	bus    *bus.Bus
	logger *zap.Logger

	mu       sync.Mutex
	channels map[*Channel]struct{}
}

// NewHub creates a change feed on top of b.
func NewHub(b *bus.Bus, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{bus: b, logger: logger, channels: make(map[*Channel]struct{})}
}

// Broadcast publishes a row change to every matching channel.
func (h *Hub) Broadcast(c domain.Change) int {
	if c.Schema == "" {
		c.Schema = domain.SchemaPublic
	}
	if c.CommitTimestamp.IsZero() {
		c.CommitTimestamp = time.Now().UTC()
	}
	delivered := h.bus.Publish(bus.Event{
		Topic:     topic(domain.Filter{Schema: c.Schema, Table: c.Table, Event: c.Type}),
		Timestamp: c.CommitTimestamp,
		Payload:   c,
	})
	h.reportDrops()
	return delivered
}

// reportDrops logs channels that missed changes since the last report.
func (h *Hub) reportDrops() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.channels {
		d := ch.sub.Dropped()
		if d == ch.reported {
			continue
		}
		h.logger.Warn("channel missed changes",
			zap.String("channel", ch.Name),
			zap.Uint64("missed", d-ch.reported),
			zap.Uint64("total", d),
		)
		ch.reported = d
	}
}

// Channel opens a subscription scoped by f. The caller owns the channel and
// must Close it.
func (h *Hub) Channel(name string, f domain.Filter, bufSize int) *Channel {
	sub := h.bus.Subscribe(topic(f), bufSize)
	ch := &Channel{
		Name:    name,
		hub:     h,
		sub:     sub,
		changes: make(chan domain.Change, bufSize),
		done:    make(chan struct{}),
	}
	h.mu.Lock()
	h.channels[ch] = struct{}{}
	h.mu.Unlock()

	go ch.pump()
	h.logger.Debug("channel opened", zap.String("channel", name), zap.String("topic", topic(f)))
	return ch
}

// Open returns the number of channels not yet closed.
func (h *Hub) Open() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels)
}

func (h *Hub) release(ch *Channel) {
	h.mu.Lock()
	delete(h.channels, ch)
	h.mu.Unlock()
	h.logger.Debug("channel closed", zap.String("channel", ch.Name))
}

// topic builds the longest prefix the filter pins down. Empty fields stop
// the prefix so they match everything below.
func topic(f domain.Filter) string {
	var b strings.Builder
	b.WriteString(topicRoot)
	for _, part := range []string{f.Schema, f.Table, string(f.Event)} {
		if part == "" {
			return b.String()
		}
		b.WriteString(part)
		b.WriteByte('.')
	}
	return strings.TrimSuffix(b.String(), ".")
}
