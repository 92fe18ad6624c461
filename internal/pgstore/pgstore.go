// Package pgstore is the Postgres implementation of the relational store.
// Inserts on messages raise a NOTIFY carrying the row id; Listener loads the
// row and forwards it to the change feed.
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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotifyChannel is the Postgres notification channel fed by the messages
// insert trigger.
const NotifyChannel = "locaid_messages"

// Store wraps a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 4
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// NativeFeed reports that inserts reach the change feed through NOTIFY.
func (s *Store) NativeFeed() bool { return true }

func (s *Store) InsertMessage(ctx context.Context, nm domain.NewMessage) (*domain.Message, error) {
	m := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   nm.SenderID,
		ReceiverID: nm.ReceiverID,
		Content:    nm.Content,
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, created_at)
		VALUES ($1, $2, $3, $4, date_trunc('milliseconds', now()))
		RETURNING created_at`,
		m.ID, m.SenderID, m.ReceiverID, m.Content).Scan(&m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

// GetMessage loads one message by id.
func (s *Store) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, sender_id, receiver_id, content, created_at
		FROM messages WHERE id = $1::uuid`, id).
		Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func (s *Store) ListParticipants(ctx context.Context, userID string) ([]domain.Participants, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sender_id, receiver_id
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC, seq DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Participants
	for rows.Next() {
		var p domain.Participants
		if err := rows.Scan(&p.SenderID, &p.ReceiverID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListThread(ctx context.Context, userID, counterpartID string) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, seq ASC`, userID, counterpartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.CreatedAt = m.CreatedAt.UTC()
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Store) UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	out := *p
	err := s.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, full_name, avatar_url, zip_code, bio, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			avatar_url = EXCLUDED.avatar_url,
			zip_code = EXCLUDED.zip_code,
			bio = EXCLUDED.bio,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		out.ID, out.FullName, out.AvatarURL, out.ZipCode, out.Bio).Scan(&out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert profile %q: %w", p.ID, err)
	}
	out.UpdatedAt = out.UpdatedAt.UTC()
	return &out, nil
}

func (s *Store) EnsureProfile(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO profiles (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	return err
}

func (s *Store) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := s.pool.QueryRow(ctx, `
		SELECT id, full_name, avatar_url, zip_code, bio, updated_at
		FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.ZipCode, &p.Bio, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (s *Store) GetProfiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, full_name, avatar_url, zip_code, bio, updated_at
		FROM profiles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.ZipCode, &p.Bio, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.UpdatedAt = p.UpdatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value)
	return err
}

func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM settings WHERE key = $1`, key)
	return err
}
