package realtime

import (
	"sync"

	"github.com/MacklinHill1/neighborhood-help-app/internal/bus"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
)

// Channel is a scoped change-feed subscription.
type Channel struct {
	Name string

	hub     *Hub
	sub     *bus.Subscription
	changes chan domain.Change
	done    chan struct{}
	once    sync.Once

	// reported is the drop count already logged; guarded by hub.mu.
	reported uint64
}

// Changes returns the stream of changes. It is closed after Close.
func (c *Channel) Changes() <-chan domain.Change {
	return c.changes
}

// Dropped returns how many changes the channel missed because its consumer
// fell behind.
func (c *Channel) Dropped() uint64 {
	return c.sub.Dropped()
}

// Close releases the subscription. Safe to call more than once.
func (c *Channel) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.sub.Close()
		c.hub.release(c)
	})
	return nil
}

func (c *Channel) pump() {
	defer close(c.changes)
	for {
		select {
		case evt, ok := <-c.sub.C:
			if !ok {
				return
			}
			change, ok := evt.Payload.(domain.Change)
			if !ok {
				continue
			}
			select {
			case c.changes <- change:
			case <-c.done:
				return
			}
		case <-c.done:
			return
		}
	}
}
