package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Broadcaster receives decoded row changes. realtime.Hub satisfies it.
type Broadcaster interface {
	Broadcast(domain.Change) int
}

// Listener holds a dedicated connection on LISTEN, loads each notified
// message and forwards it to a Broadcaster.
type Listener struct {
	store  *Store
	out    Broadcaster
	logger *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewListener creates a listener. Call Start to begin forwarding.
func NewListener(s *Store, out Broadcaster, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{store: s, out: out, logger: logger}
}

// Start checks the pool and forwards notifications in the background until
// Stop. A lost connection is reacquired after a short pause.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.store.pool.Ping(ctx); err != nil {
		return fmt.Errorf("listener: ping: %w", err)
	}
	runCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(runCtx)
	return nil
}

// Stop ends forwarding and waits for the loop to exit.
func (l *Listener) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("listener connection lost", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.store.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	// The connection is tainted by LISTEN; do not return it to the pool.
	defer func() { _ = conn.Hijack().Close(context.Background()) }()

	if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
		return err
	}
	l.logger.Info("listening for message inserts", zap.String("channel", NotifyChannel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		id, err := parseNotification(n.Payload)
		if err != nil {
			l.logger.Warn("bad notification payload", zap.Error(err))
			continue
		}
		m, err := l.store.GetMessage(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, store.ErrNotFound) {
				err = fmt.Errorf("load notified message: %w", err)
			}
			l.logger.Warn("notified message dropped", zap.String("id", id), zap.Error(err))
			continue
		}
		delivered := l.out.Broadcast(messageInsert(m))
		l.logger.Debug("message insert forwarded",
			zap.String("id", m.ID),
			zap.Int("channels", delivered),
		)
	}
}

// parseNotification returns the message id carried by a NOTIFY payload.
func parseNotification(payload string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(payload))
	if err != nil {
		return "", fmt.Errorf("notification payload %q: %w", payload, err)
	}
	return id.String(), nil
}

func messageInsert(m *domain.Message) domain.Change {
	return domain.Change{
		Type:            domain.ChangeInsert,
		Schema:          domain.SchemaPublic,
		Table:           domain.TableMessages,
		Record:          m,
		CommitTimestamp: m.CreatedAt,
	}
}
