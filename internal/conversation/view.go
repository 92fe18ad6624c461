// Package conversation is the view model of the messaging screen: the list
// of counterparts, the selected thread fed by a fetch and the change feed,
// and the draft being composed. It is UI independent.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"go.uber.org/zap"
)

// ErrSuperseded is returned by loads whose result was discarded because the
// selection or the user changed while they were in flight.
var ErrSuperseded = errors.New("conversation: superseded")

// Channel is an open change-feed subscription.
type Channel interface {
	Changes() <-chan domain.Change
	Close() error
}

// Backend is what the view needs from the backend service.
type Backend interface {
	ListParticipants(ctx context.Context, userID string) ([]domain.Participants, error)
	ListThread(ctx context.Context, userID, counterpartID string) ([]domain.Message, error)
	InsertMessage(ctx context.Context, nm domain.NewMessage) (*domain.Message, error)
	ResolveProfiles(ctx context.Context, ids []string) ([]domain.Profile, error)
	Subscribe(ctx context.Context, name string, f domain.Filter) (Channel, error)
}

// Conversation is one entry of the conversation list.
type Conversation struct {
	ID          string
	Name        string
	AvatarURL   string
	ZipCode     string
	Placeholder bool
}

// State is a point-in-time copy of the view.
type State struct {
	User          *domain.User
	Conversations []Conversation
	Selected      string
	Messages      []domain.Message
	Draft         string
	Loading       bool
}

// View holds the conversation screen state. All methods are safe for
// concurrent use.
type View struct {
	backend Backend
	logger  *zap.Logger

	mu            sync.Mutex
	user          *domain.User
	conversations []Conversation
	selected      string
	messages      []domain.Message
	seen          map[string]struct{}
	draft         string
	loading       bool

	// gen identifies the current selection, epoch the current user and
	// loadGen the latest conversation list load.
	gen     uint64
	epoch   uint64
	loadGen uint64
	channel Channel

	refreshCh chan struct{}
}

// NewView creates a view with no user.
func NewView(b Backend, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{
		backend:   b,
		logger:    logger,
		seen:      make(map[string]struct{}),
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh signals state changes. Signals coalesce.
func (v *View) RefreshCh() <-chan struct{} {
	return v.refreshCh
}

func (v *View) notify() {
	select {
	case v.refreshCh <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := State{
		Conversations: append([]Conversation(nil), v.conversations...),
		Selected:      v.selected,
		Messages:      append([]domain.Message(nil), v.messages...),
		Draft:         v.draft,
		Loading:       v.loading,
	}
	if v.user != nil {
		u := *v.user
		s.User = &u
	}
	return s
}

// SignedIn reports whether a user is set.
func (v *View) SignedIn() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.user != nil
}

// SetUser switches the view to u, or to the signed-out state when u is nil.
// A change of identity drops the selection, the thread, the draft and the
// conversation list, then reloads the list for the new user.
func (v *View) SetUser(ctx context.Context, u *domain.User) error {
	v.mu.Lock()
	if sameUser(v.user, u) {
		if u != nil {
			cp := *u
			v.user = &cp
		}
		v.mu.Unlock()
		return nil
	}
	v.epoch++
	v.gen++
	old := v.channel
	v.channel = nil
	v.user = nil
	if u != nil {
		cp := *u
		v.user = &cp
	}
	v.conversations = nil
	v.selected = ""
	v.messages = nil
	v.seen = make(map[string]struct{})
	v.draft = ""
	v.loading = false
	v.mu.Unlock()

	closeChannel(old)
	v.notify()

	if u == nil {
		v.logger.Info("signed out")
		return nil
	}
	v.logger.Info("user set", zap.String("user_id", u.ID))
	return v.LoadConversations(ctx)
}

func sameUser(a, b *domain.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// LoadConversations rebuilds the conversation list. Without a user it does
// nothing. Counterparts without a profile get the placeholder identity.
func (v *View) LoadConversations(ctx context.Context) error {
	v.mu.Lock()
	if v.user == nil {
		v.mu.Unlock()
		return nil
	}
	me := v.user.ID
	epoch := v.epoch
	v.loadGen++
	loadGen := v.loadGen
	v.mu.Unlock()

	rows, err := v.backend.ListParticipants(ctx, me)
	if err != nil {
		v.logger.Error("load conversations failed", zap.Error(err))
		return fmt.Errorf("load conversations: %w", err)
	}
	ids := Counterparts(rows, me)

	byID := make(map[string]domain.Profile, len(ids))
	if len(ids) > 0 {
		profiles, err := v.backend.ResolveProfiles(ctx, ids)
		if err != nil {
			v.logger.Warn("resolve profiles failed", zap.Error(err))
		}
		for _, p := range profiles {
			byID[p.ID] = p
		}
	}

	convs := make([]Conversation, 0, len(ids))
	for _, id := range ids {
		c := Conversation{ID: id, Name: domain.PlaceholderName(id), Placeholder: true}
		if p, ok := byID[id]; ok {
			c.AvatarURL = p.AvatarURL
			c.ZipCode = p.ZipCode
			if name := strings.TrimSpace(p.FullName); name != "" {
				c.Name = name
				c.Placeholder = false
			}
		}
		convs = append(convs, c)
	}

	v.mu.Lock()
	if v.epoch != epoch || v.loadGen != loadGen {
		v.mu.Unlock()
		v.logger.Debug("stale conversation list discarded")
		return ErrSuperseded
	}
	v.conversations = convs
	v.mu.Unlock()
	v.notify()
	return nil
}

// Select makes counterpartID the active thread. The displayed messages are
// cleared and the previous channel released before the new channel is
// opened and the thread fetched. A result that arrives after another
// Select, SetUser or Close is dropped and ErrSuperseded returned. An empty
// counterpartID clears the selection.
func (v *View) Select(ctx context.Context, counterpartID string) error {
	v.mu.Lock()
	if v.user == nil {
		v.mu.Unlock()
		return nil
	}
	me := v.user.ID
	v.gen++
	gen := v.gen
	old := v.channel
	v.channel = nil
	v.selected = counterpartID
	v.messages = nil
	v.seen = make(map[string]struct{})
	v.loading = counterpartID != ""
	v.mu.Unlock()

	closeChannel(old)
	v.notify()
	if counterpartID == "" {
		return nil
	}

	var subErr error
	ch, err := v.backend.Subscribe(ctx, ChannelName(me, counterpartID), domain.MessageInserts)
	if err != nil {
		v.logger.Warn("subscribe failed", zap.String("counterpart", counterpartID), zap.Error(err))
		subErr = fmt.Errorf("subscribe: %w", err)
	} else {
		v.mu.Lock()
		if v.gen != gen {
			v.mu.Unlock()
			closeChannel(ch)
			return ErrSuperseded
		}
		v.channel = ch
		v.mu.Unlock()
		go v.pump(gen, me, counterpartID, ch)
	}

	msgs, err := v.backend.ListThread(ctx, me, counterpartID)

	v.mu.Lock()
	if v.gen != gen {
		v.mu.Unlock()
		v.logger.Debug("stale thread discarded", zap.String("counterpart", counterpartID))
		return ErrSuperseded
	}
	v.loading = false
	if err != nil {
		v.mu.Unlock()
		v.notify()
		v.logger.Error("load thread failed", zap.String("counterpart", counterpartID), zap.Error(err))
		return fmt.Errorf("load thread: %w", err)
	}

	// Messages the feed admitted while the fetch was in flight stay, after
	// the fetched ones.
	merged := make([]domain.Message, 0, len(msgs)+len(v.messages))
	seen := make(map[string]struct{}, len(msgs)+len(v.messages))
	for _, list := range [][]domain.Message{msgs, v.messages} {
		for _, m := range list {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			merged = append(merged, m)
		}
	}
	v.messages = merged
	v.seen = seen
	v.mu.Unlock()
	v.notify()
	return subErr
}

func (v *View) pump(gen uint64, me, counterpart string, ch Channel) {
	for c := range ch.Changes() {
		if c.Type != domain.ChangeInsert || c.Record == nil {
			continue
		}
		if v.admit(gen, me, counterpart, *c.Record) {
			v.notify()
		}
	}
}

// admit appends m if gen is still current, m belongs to the pair and its id
// is not displayed yet.
func (v *View) admit(gen uint64, me, counterpart string, m domain.Message) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen != gen {
		return false
	}
	if !m.Between(me, counterpart) {
		return false
	}
	if _, dup := v.seen[m.ID]; dup {
		return false
	}
	v.seen[m.ID] = struct{}{}
	v.messages = append(v.messages, m)
	return true
}

// SetDraft replaces the text being composed.
func (v *View) SetDraft(text string) {
	v.mu.Lock()
	v.draft = text
	v.mu.Unlock()
}

// Draft returns the text being composed.
func (v *View) Draft() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

// Send writes the trimmed draft to the selected counterpart. A blank draft,
// a missing user or a missing selection makes it a no-op. On success the
// draft is cleared and the conversation list reloaded; the message itself
// reaches the thread through the change feed. On failure the draft is kept
// and the error returned.
func (v *View) Send(ctx context.Context) error {
	v.mu.Lock()
	draft := v.draft
	text := strings.TrimSpace(draft)
	user := v.user
	counterpart := v.selected
	v.mu.Unlock()

	if text == "" || user == nil || counterpart == "" {
		return nil
	}

	m, err := v.backend.InsertMessage(ctx, domain.NewMessage{
		SenderID:   user.ID,
		ReceiverID: counterpart,
		Content:    text,
	})
	if err != nil {
		v.logger.Error("send failed", zap.String("counterpart", counterpart), zap.Error(err))
		return fmt.Errorf("send: %w", err)
	}
	v.logger.Debug("message sent", zap.String("id", m.ID), zap.String("counterpart", counterpart))

	v.mu.Lock()
	// Keep anything typed while the insert was in flight.
	if v.draft == draft {
		v.draft = ""
	}
	v.mu.Unlock()
	v.notify()

	if err := v.LoadConversations(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		v.logger.Warn("reload conversations after send failed", zap.Error(err))
	}
	return nil
}

// Close releases the open channel. Results still in flight are dropped.
// It is safe to call more than once.
func (v *View) Close() error {
	v.mu.Lock()
	v.gen++
	old := v.channel
	v.channel = nil
	v.loading = false
	v.mu.Unlock()
	closeChannel(old)
	return nil
}

func closeChannel(ch Channel) {
	if ch != nil {
		_ = ch.Close()
	}
}
