// Package identity is the workspace's identity provider. It holds the
// signed-in user, persists it across daemon restarts and announces
// sign-in and sign-out on the bus.
package identity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/bus"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"go.uber.org/zap"
)

var (
	// ErrNoSession is returned by calls that need a signed-in user.
	ErrNoSession = errors.New("identity: no session")
	// ErrInvalidUser is returned when signing in without a user id.
	ErrInvalidUser = errors.New("identity: user id is required")
)

// State is the session state of the workspace.
type State string

const (
	SignedOut State = "SIGNED_OUT"
	SignedIn  State = "SIGNED_IN"
)

var validTransitions = map[State][]State{
	SignedOut: {SignedIn},
	SignedIn:  {SignedIn, SignedOut},
}

// EventType names an auth notification.
type EventType string

const (
	EventInitialSession EventType = "INITIAL_SESSION"
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
)

// TopicPrefix is the bus prefix of all auth events.
const TopicPrefix = "auth."

// AuthEvent is the payload of auth events. User is nil after sign-out.
type AuthEvent struct {
	Type EventType
	User *domain.User
}

const (
	keyUserID = "session.user_id"
	keyEmail  = "session.email"
)

// Settings is the persistence the provider needs.
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	PutSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
	EnsureProfile(ctx context.Context, id string) error
}

// Provider tracks the current user.
type Provider struct {
	mu       sync.RWMutex
	state    State
	user     *domain.User
	settings Settings
	bus      *bus.Bus
	logger   *zap.Logger
}

// NewProvider creates a provider in the SignedOut state.
func NewProvider(settings Settings, b *bus.Bus, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{state: SignedOut, settings: settings, bus: b, logger: logger}
}

// Restore loads a persisted session, if any. No event is published.
func (p *Provider) Restore(ctx context.Context) error {
	id, ok, err := p.settings.GetSetting(ctx, keyUserID)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !ok || id == "" {
		return nil
	}
	email, _, err := p.settings.GetSetting(ctx, keyEmail)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	p.mu.Lock()
	p.state = SignedIn
	p.user = &domain.User{ID: id, Email: email}
	p.mu.Unlock()
	p.logger.Info("session restored", zap.String("user_id", id))
	return nil
}

// State returns the current session state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Current returns a copy of the signed-in user, or nil.
func (p *Provider) Current() *domain.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return nil
	}
	u := *p.user
	return &u
}

// SignIn establishes the session for userID, creating a bare profile row for
// a new user. Signing in as another user replaces the session.
func (p *Provider) SignIn(ctx context.Context, userID, email string) (*domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUser
	}
	if err := p.settings.EnsureProfile(ctx, userID); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if err := p.settings.PutSetting(ctx, keyUserID, userID); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if err := p.settings.PutSetting(ctx, keyEmail, email); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	u := &domain.User{ID: userID, Email: email}
	if err := p.transition(SignedIn, u); err != nil {
		return nil, err
	}
	p.logger.Info("signed in", zap.String("user_id", userID))
	return p.Current(), nil
}

// SignOut ends the session.
func (p *Provider) SignOut(ctx context.Context) error {
	if p.State() != SignedIn {
		return ErrNoSession
	}
	if err := p.settings.DeleteSetting(ctx, keyUserID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if err := p.settings.DeleteSetting(ctx, keyEmail); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if err := p.transition(SignedOut, nil); err != nil {
		return err
	}
	p.logger.Info("signed out")
	return nil
}

// Watch subscribes to auth events. The caller must Close the subscription.
func (p *Provider) Watch(bufSize int) *bus.Subscription {
	return p.bus.Subscribe(TopicPrefix, bufSize)
}

func (p *Provider) transition(to State, u *domain.User) error {
	p.mu.Lock()
	if !slices.Contains(validTransitions[p.state], to) {
		from := p.state
		p.mu.Unlock()
		return fmt.Errorf("identity: invalid transition from %s to %s", from, to)
	}
	p.state = to
	p.user = u
	p.mu.Unlock()

	if p.bus == nil {
		return nil
	}
	evt := AuthEvent{Type: EventSignedOut}
	topic := TopicPrefix + "signed_out"
	if to == SignedIn {
		uc := *u
		evt = AuthEvent{Type: EventSignedIn, User: &uc}
		topic = TopicPrefix + "signed_in"
	}
	p.bus.Publish(bus.Event{Topic: topic, Timestamp: time.Now(), Payload: evt})
	return nil
}
