// Package model adapts the conversation view and the daemon session to the
// TUI: auth events drive the view, profile lookups feed the profile page.
package model

import (
	"context"
	"errors"
	"sync"

	"github.com/MacklinHill1/neighborhood-help-app/internal/conversation"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Backend is the daemon surface the TUI drives. client.Client implements it.
type Backend interface {
	conversation.Backend
	SignIn(ctx context.Context, userID, email string) (*domain.User, error)
	SignOut(ctx context.Context) error
	WatchAuth(ctx context.Context, fn func(event string, u *domain.User)) error
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
}

// ViewModel owns the conversation view of the TUI and the profile shown on
// the profile page.
type ViewModel struct {
	View *conversation.View

	backend Backend
	logger  *zap.Logger

	mu        sync.RWMutex
	profile   *domain.Profile
	refreshCh chan struct{}
}

// NewViewModel creates a view model over the daemon client.
func NewViewModel(b Backend, logger *zap.Logger) *ViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewModel{
		View:      conversation.NewView(b, logger),
		backend:   b,
		logger:    logger,
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh signals changes of the profile page. Conversation changes are
// signalled on View.RefreshCh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// WatchAuth feeds every auth event into the view until ctx is done. The
// first event is the current session.
func (vm *ViewModel) WatchAuth(ctx context.Context) error {
	return vm.backend.WatchAuth(ctx, func(event string, u *domain.User) {
		vm.logger.Info("auth event", zap.String("event", event), zap.Bool("signed_in", u != nil))
		if err := vm.View.SetUser(ctx, u); err != nil && !errors.Is(err, conversation.ErrSuperseded) {
			vm.logger.Warn("load conversations failed", zap.Error(err))
		}
	})
}

// SignIn signs in on the daemon and switches the view to the user.
func (vm *ViewModel) SignIn(ctx context.Context, userID, email string) error {
	u, err := vm.backend.SignIn(ctx, userID, email)
	if err != nil {
		return err
	}
	return ignoreSuperseded(vm.View.SetUser(ctx, u))
}

// SignOut ends the daemon session and clears the view.
func (vm *ViewModel) SignOut(ctx context.Context) error {
	if err := vm.backend.SignOut(ctx); err != nil {
		return err
	}
	return vm.View.SetUser(ctx, nil)
}

// Open selects a conversation. A load overtaken by another selection is
// not an error.
func (vm *ViewModel) Open(ctx context.Context, counterpartID string) error {
	return ignoreSuperseded(vm.View.Select(ctx, counterpartID))
}

// Reload rebuilds the conversation list.
func (vm *ViewModel) Reload(ctx context.Context) error {
	return ignoreSuperseded(vm.View.LoadConversations(ctx))
}

// Send sends the draft to the open conversation.
func (vm *ViewModel) Send(ctx context.Context) error {
	return vm.View.Send(ctx)
}

// LoadProfile fetches the profile shown on the profile page. A user with no
// profile row gets an empty profile, displayed with the member fallback.
func (vm *ViewModel) LoadProfile(ctx context.Context, id string) error {
	p, err := vm.backend.GetProfile(ctx, id)
	if status.Code(err) == codes.NotFound {
		p, err = &domain.Profile{ID: id}, nil
	}
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.profile = p
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// Profile returns the last loaded profile, or nil.
func (vm *ViewModel) Profile() *domain.Profile {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.profile == nil {
		return nil
	}
	cp := *vm.profile
	return &cp
}

// Close releases the open conversation channel.
func (vm *ViewModel) Close() error {
	return vm.View.Close()
}

func ignoreSuperseded(err error) error {
	if errors.Is(err, conversation.ErrSuperseded) {
		return nil
	}
	return err
}
