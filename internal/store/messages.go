package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/google/uuid"
)

// InsertMessage stores a new directed message. The id and created_at are
// assigned here, never by the caller.
func (db *DB) InsertMessage(ctx context.Context, nm domain.NewMessage) (*domain.Message, error) {
	m := &domain.Message{
		ID:         uuid.NewString(),
		SenderID:   nm.SenderID,
		ReceiverID: nm.ReceiverID,
		Content:    nm.Content,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// ListParticipants returns the endpoints of every message the user sent or
// received, newest first.
func (db *DB) ListParticipants(ctx context.Context, userID string) ([]domain.Participants, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT sender_id, receiver_id
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at DESC, rowid DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

// ListThread returns the messages exchanged between the two users in either
// direction, oldest first.
func (db *DB) ListThread(ctx context.Context, userID, counterpartID string) ([]domain.Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, rowid ASC`,
		userID, counterpartID, counterpartID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []domain.Message
	for rows.Next() {
		var (
			m  domain.Message
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &ts); err != nil {
			return nil, err
		}
		m.CreatedAt = time.UnixMilli(ts).UTC()
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the total number of messages.
func (db *DB) MessageCount(ctx context.Context) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
