// Package backend is the service layer the daemon exposes: the relational
// store, the change feed and the profile cache behind one set of calls.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MacklinHill1/neighborhood-help-app/internal/cache"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/realtime"
	"go.uber.org/zap"
)

var (
	// ErrInvalidMessage is returned for inserts with a missing endpoint or
	// blank content.
	ErrInvalidMessage = errors.New("backend: invalid message")
	// ErrMissingID is returned when a required user id is empty.
	ErrMissingID = errors.New("backend: id is required")
)

// Store is the relational store behind the service. store.DB and
// pgstore.Store implement it.
type Store interface {
	InsertMessage(ctx context.Context, nm domain.NewMessage) (*domain.Message, error)
	ListParticipants(ctx context.Context, userID string) ([]domain.Participants, error)
	ListThread(ctx context.Context, userID, counterpartID string) ([]domain.Message, error)
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	GetProfiles(ctx context.Context, ids []string) ([]domain.Profile, error)
	UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
}

// nativeFeed is implemented by stores that publish inserts to the change
// feed themselves.
type nativeFeed interface {
	NativeFeed() bool
}

// Service implements the backend operations.
type Service struct {
	store  Store
	hub    *realtime.Hub
	cache  cache.ProfileCache
	logger *zap.Logger

	native bool
}

// New creates a service. A nil cache disables profile caching.
func New(st Store, hub *realtime.Hub, pc cache.ProfileCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{store: st, hub: hub, cache: pc, logger: logger}
	if nf, ok := st.(nativeFeed); ok {
		s.native = nf.NativeFeed()
	}
	return s
}

// InsertMessage stores a message and, unless the store feeds the change
// feed itself, broadcasts the insert.
func (s *Service) InsertMessage(ctx context.Context, nm domain.NewMessage) (*domain.Message, error) {
	if nm.SenderID == "" || nm.ReceiverID == "" {
		return nil, fmt.Errorf("%w: sender and receiver are required", ErrInvalidMessage)
	}
	if strings.TrimSpace(nm.Content) == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidMessage)
	}

	m, err := s.store.InsertMessage(ctx, nm)
	if err != nil {
		return nil, err
	}

	if !s.native && s.hub != nil {
		rec := *m
		delivered := s.hub.Broadcast(domain.Change{
			Type:   domain.ChangeInsert,
			Schema: domain.SchemaPublic,
			Table:  domain.TableMessages,
			Record: &rec,
		})
		s.logger.Debug("message broadcast", zap.String("id", m.ID), zap.Int("channels", delivered))
	}
	return m, nil
}

// ListParticipants returns the endpoints of every message involving userID,
// newest first.
func (s *Service) ListParticipants(ctx context.Context, userID string) ([]domain.Participants, error) {
	if userID == "" {
		return nil, ErrMissingID
	}
	return s.store.ListParticipants(ctx, userID)
}

// ListThread returns the messages between the two users, oldest first.
func (s *Service) ListThread(ctx context.Context, userID, counterpartID string) ([]domain.Message, error) {
	if userID == "" || counterpartID == "" {
		return nil, ErrMissingID
	}
	return s.store.ListThread(ctx, userID, counterpartID)
}

// ResolveProfiles returns the profiles that exist among ids, in the order of
// ids. Duplicates and empty ids are ignored.
func (s *Service) ResolveProfiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	found := make(map[string]domain.Profile, len(ids))
	if s.cache != nil {
		cached, err := s.cache.GetProfiles(ctx, ids)
		if err != nil {
			s.logger.Warn("profile cache read failed", zap.Error(err))
		}
		for id, p := range cached {
			found[id] = p
		}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		loaded, err := s.store.GetProfiles(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("resolve profiles: %w", err)
		}
		for _, p := range loaded {
			found[p.ID] = p
		}
		if s.cache != nil && len(loaded) > 0 {
			if err := s.cache.PutProfiles(ctx, loaded); err != nil {
				s.logger.Warn("profile cache write failed", zap.Error(err))
			}
		}
	}

	out := make([]domain.Profile, 0, len(found))
	for _, id := range ids {
		if p, ok := found[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetProfile returns one profile; store.ErrNotFound when absent.
func (s *Service) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	return s.store.GetProfile(ctx, id)
}

// UpsertProfile writes a profile and drops its cached copy.
func (s *Service) UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p == nil || p.ID == "" {
		return nil, ErrMissingID
	}
	out, err := s.store.UpsertProfile(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, p.ID); err != nil {
			s.logger.Warn("profile cache invalidate failed", zap.Error(err), zap.String("id", p.ID))
		}
	}
	return out, nil
}

// Subscribe opens a change-feed channel. The caller must Close it.
func (s *Service) Subscribe(name string, f domain.Filter, bufSize int) *realtime.Channel {
	return s.hub.Channel(name, f, bufSize)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
