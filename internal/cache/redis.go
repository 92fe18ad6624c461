package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "locaid:profile:"

// Redis is a ProfileCache stored in Redis as JSON strings.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ProfileCache = (*Redis)(nil)

// NewRedis connects to the Redis server at url and verifies it with a ping.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	if url == "" {
		return nil, errors.New("redis: url is empty")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Redis{client: c, ttl: ttl}, nil
}

func profileKey(id string) string { return keyPrefix + id }

func (r *Redis) GetProfiles(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: mget: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var p domain.Profile
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			continue
		}
		out[ids[i]] = p
	}
	return out, nil
}

func (r *Redis) PutProfiles(ctx context.Context, profiles []domain.Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, p := range profiles {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("redis: encode profile %q: %w", p.ID, err)
		}
		pipe.Set(ctx, profileKey(p.ID), data, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set profiles: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
