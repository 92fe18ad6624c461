package conversation

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
)

// fakeBackend is an in-memory Backend. Thread fetches for a counterpart can
// be held back with hold.
type fakeBackend struct {
	mu       sync.Mutex
	messages []domain.Message
	profiles map[string]domain.Profile
	channels []*fakeChannel
	inserts  int
	nextID   int

	insertErr  error
	listErr    error
	threadErr  error
	resolveErr error
	subErr     error

	// partGate, when set, blocks the next ListParticipants after its rows
	// were read; partStarted is signalled once it waits.
	partGate    chan struct{}
	partStarted chan struct{}

	// gates[counterpart] blocks ListThread until closed; started receives the
	// counterpart once the fetch is waiting.
	gates   map[string]chan struct{}
	started chan string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles: make(map[string]domain.Profile),
		gates:    make(map[string]chan struct{}),
		started:  make(chan string, 8),
	}
}

// holdParticipants makes the next ListParticipants call wait on the
// returned channel with the rows it read before blocking.
func (f *fakeBackend) holdParticipants() (release chan struct{}, started chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partGate = make(chan struct{})
	f.partStarted = make(chan struct{}, 1)
	return f.partGate, f.partStarted
}

func (f *fakeBackend) hold(counterpart string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[counterpart] = g
	return g
}

// seed stores a message without broadcasting it.
func (f *fakeBackend) seed(from, to, content string) domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.storeLocked(from, to, content)
}

func (f *fakeBackend) storeLocked(from, to, content string) domain.Message {
	f.nextID++
	m := domain.Message{
		ID:         "m" + strconv.Itoa(f.nextID),
		SenderID:   from,
		ReceiverID: to,
		Content:    content,
		CreatedAt:  time.Unix(int64(f.nextID), 0).UTC(),
	}
	f.messages = append(f.messages, m)
	return m
}

// push delivers m to every open channel.
func (f *fakeBackend) push(m domain.Message) {
	f.mu.Lock()
	chans := append([]*fakeChannel(nil), f.channels...)
	f.mu.Unlock()
	for _, ch := range chans {
		ch.deliver(domain.Change{Type: domain.ChangeInsert, Table: domain.TableMessages, Record: &m})
	}
}

func (f *fakeBackend) open() []*fakeChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeChannel
	for _, ch := range f.channels {
		if !ch.isClosed() {
			out = append(out, ch)
		}
	}
	return out
}

func (f *fakeBackend) insertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inserts
}

func (f *fakeBackend) ListParticipants(ctx context.Context, userID string) ([]domain.Participants, error) {
	f.mu.Lock()
	if f.listErr != nil {
		f.mu.Unlock()
		return nil, f.listErr
	}
	var out []domain.Participants
	for i := len(f.messages) - 1; i >= 0; i-- {
		m := f.messages[i]
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, domain.Participants{SenderID: m.SenderID, ReceiverID: m.ReceiverID})
		}
	}
	gate, started := f.partGate, f.partStarted
	f.partGate, f.partStarted = nil, nil
	f.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}

func (f *fakeBackend) ListThread(ctx context.Context, userID, counterpartID string) ([]domain.Message, error) {
	f.mu.Lock()
	gate := f.gates[counterpartID]
	f.mu.Unlock()
	if gate != nil {
		f.started <- counterpartID
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.threadErr != nil {
		return nil, f.threadErr
	}
	var out []domain.Message
	for _, m := range f.messages {
		if m.Between(userID, counterpartID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertMessage(_ context.Context, nm domain.NewMessage) (*domain.Message, error) {
	f.mu.Lock()
	f.inserts++
	if f.insertErr != nil {
		f.mu.Unlock()
		return nil, f.insertErr
	}
	m := f.storeLocked(nm.SenderID, nm.ReceiverID, nm.Content)
	f.mu.Unlock()
	f.push(m)
	return &m, nil
}

func (f *fakeBackend) ResolveProfiles(_ context.Context, ids []string) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	var out []domain.Profile
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBackend) Subscribe(_ context.Context, name string, _ domain.Filter) (Channel, error) {
	f.mu.Lock()
	subErr := f.subErr
	f.mu.Unlock()
	if subErr != nil {
		return nil, subErr
	}
	ch := &fakeChannel{name: name, changes: make(chan domain.Change, 16)}
	f.mu.Lock()
	f.channels = append(f.channels, ch)
	f.mu.Unlock()
	return ch, nil
}

type fakeChannel struct {
	name    string
	mu      sync.Mutex
	closed  bool
	changes chan domain.Change
}

func (c *fakeChannel) Changes() <-chan domain.Change { return c.changes }

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.changes)
	}
	return nil
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeChannel) deliver(change domain.Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.changes <- change
}

var errRejected = errors.New("rejected")
