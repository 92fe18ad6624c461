// Package cache holds resolved profiles so the conversation list does not
// hit the relational store on every load.
package cache

import (
	"context"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
)

// ProfileCache is the contract shared by the in-process and Redis caches.
// Implementations must be safe for concurrent use.
type ProfileCache interface {
	// GetProfiles returns the cached profiles among ids. Misses are absent
	// from the map.
	GetProfiles(ctx context.Context, ids []string) (map[string]domain.Profile, error)
	PutProfiles(ctx context.Context, profiles []domain.Profile) error
	Invalidate(ctx context.Context, ids ...string) error
	Close() error
}
