package locaidv1

import (
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// AuthEventType values sent on WatchAuth.
const (
	AuthInitialSession = "INITIAL_SESSION"
	AuthSignedIn       = "SIGNED_IN"
	AuthSignedOut      = "SIGNED_OUT"
)

type UserReply struct {
	User *domain.User `json:"user,omitempty"`
}

type SignInRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

type AuthEvent struct {
	Event string       `json:"event"`
	User  *domain.User `json:"user,omitempty"`
}

type ParticipantsRequest struct {
	UserID string `json:"user_id"`
}

type ParticipantsReply struct {
	Rows []domain.Participants `json:"rows"`
}

type ThreadRequest struct {
	UserID        string `json:"user_id"`
	CounterpartID string `json:"counterpart_id"`
}

type ThreadReply struct {
	Messages []domain.Message `json:"messages"`
}

type InsertMessageRequest struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

type MessageReply struct {
	Message *domain.Message `json:"message"`
}

// SubscribeRequest opens a change-feed channel. Empty filter fields match
// everything.
type SubscribeRequest struct {
	Channel string `json:"channel"`
	Schema  string `json:"schema,omitempty"`
	Table   string `json:"table,omitempty"`
	Event   string `json:"event,omitempty"`
}

type ChangeEvent struct {
	Type            string                 `json:"type"`
	Schema          string                 `json:"schema,omitempty"`
	Table           string                 `json:"table,omitempty"`
	Record          *domain.Message        `json:"record,omitempty"`
	CommitTimestamp *timestamppb.Timestamp `json:"commit_timestamp,omitempty"`
}

type ResolveProfilesRequest struct {
	IDs []string `json:"ids"`
}

type ProfilesReply struct {
	Profiles []domain.Profile `json:"profiles"`
}

type GetProfileRequest struct {
	ID string `json:"id"`
}

type ProfileReply struct {
	Profile *domain.Profile `json:"profile"`
}

type UpsertProfileRequest struct {
	Profile *domain.Profile `json:"profile"`
}

// Filter converts the request into a change-feed filter.
func (r *SubscribeRequest) Filter() domain.Filter {
	return domain.Filter{Schema: r.Schema, Table: r.Table, Event: domain.ChangeType(r.Event)}
}

// ChangeToEvent converts a feed change into its wire form.
func ChangeToEvent(c domain.Change) *ChangeEvent {
	evt := &ChangeEvent{
		Type:   string(c.Type),
		Schema: c.Schema,
		Table:  c.Table,
		Record: c.Record,
	}
	if !c.CommitTimestamp.IsZero() {
		evt.CommitTimestamp = timestamppb.New(c.CommitTimestamp)
	}
	return evt
}

// Change converts a wire event back into a feed change.
func (e *ChangeEvent) Change() domain.Change {
	c := domain.Change{
		Type:   domain.ChangeType(e.Type),
		Schema: e.Schema,
		Table:  e.Table,
		Record: e.Record,
	}
	if e.CommitTimestamp != nil {
		c.CommitTimestamp = e.CommitTimestamp.AsTime()
	}
	return c
}
