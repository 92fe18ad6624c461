package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
)

// UpsertProfile inserts or replaces the display fields of a profile.
func (db *DB) UpsertProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	out := *p
	out.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (id, full_name, avatar_url, zip_code, bio, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			avatar_url = excluded.avatar_url,
			zip_code = excluded.zip_code,
			bio = excluded.bio,
			updated_at = excluded.updated_at`,
		out.ID, out.FullName, out.AvatarURL, out.ZipCode, out.Bio, out.UpdatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("upsert profile %q: %w", p.ID, err)
	}
	return &out, nil
}

// EnsureProfile creates an empty profile row for id unless one exists.
func (db *DB) EnsureProfile(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (id, updated_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING`, id, time.Now().UnixMilli())
	return err
}

// GetProfile returns the profile with the given id, or ErrNotFound.
func (db *DB) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var (
		p  domain.Profile
		ts int64
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, full_name, avatar_url, zip_code, bio, updated_at
		FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.ZipCode, &p.Bio, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.UpdatedAt = time.UnixMilli(ts).UTC()
	return &p, nil
}

// GetProfiles returns the profiles that exist among ids. Missing ids are
// simply absent from the result.
func (db *DB) GetProfiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := db.QueryContext(ctx, `
		SELECT id, full_name, avatar_url, zip_code, bio, updated_at
		FROM profiles WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Profile
	for rows.Next() {
		var (
			p  domain.Profile
			ts int64
		)
		if err := rows.Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.ZipCode, &p.Bio, &ts); err != nil {
			return nil, err
		}
		p.UpdatedAt = time.UnixMilli(ts).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
