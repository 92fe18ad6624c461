package domain

import (
	"strings"
	"time"
)

// Message is a directed, immutable row of the messages table.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessage is the client-supplied part of a message insert.
// The backend assigns ID and CreatedAt.
type NewMessage struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// Participants is the projection of a message onto its two endpoints.
type Participants struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
}

// Profile holds the display metadata of a user.
type Profile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	ZipCode   string    `json:"zip_code"`
	Bio       string    `json:"bio"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an authenticated principal.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// MemberName is shown on profile pages that have no name set.
const MemberName = "LocAid Member"

// PlaceholderName returns the generic identity used for a user without a
// resolvable profile.
func PlaceholderName(userID string) string {
	return "Neighbor " + ShortID(userID)
}

// ShortID returns the first eight characters of an id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// DisplayName returns the profile's name, or the placeholder for its id.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return PlaceholderName(p.ID)
}

// PairKey returns the canonical key of the unordered pair {a, b}.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// ChannelPrefix starts the change-feed channel name of a pair.
const ChannelPrefix = "chat:"

// PairChannel returns the change-feed channel name of the pair {a, b}.
func PairChannel(a, b string) string {
	return ChannelPrefix + PairKey(a, b)
}

// ParsePairChannel returns the two user ids a pair channel name refers to.
func ParsePairChannel(name string) (a, b string, ok bool) {
	key, found := strings.CutPrefix(name, ChannelPrefix)
	if !found {
		return "", "", false
	}
	a, b, found = strings.Cut(key, ":")
	if !found || a == "" || b == "" || strings.Contains(b, ":") {
		return "", "", false
	}
	return a, b, true
}

// Between reports whether m was exchanged between a and b, in either direction.
func (m *Message) Between(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
