package domain

import "time"

// ChangeType identifies the kind of a change-feed event.
type ChangeType string

const (
	ChangeInsert     ChangeType = "INSERT"
	ChangeSubscribed ChangeType = "SUBSCRIBED"
)

// Default schema and table names carried on change events.
const (
	SchemaPublic  = "public"
	TableMessages = "messages"
)

// Change is a row-level notification delivered by the change feed.
type Change struct {
	Type            ChangeType `json:"type"`
	Schema          string     `json:"schema,omitempty"`
	Table           string     `json:"table,omitempty"`
	Record          *Message   `json:"record,omitempty"`
	CommitTimestamp time.Time  `json:"commit_timestamp"`
}

// Filter scopes a change-feed subscription.
// Empty fields match everything.
type Filter struct {
	Schema string
	Table  string
	Event  ChangeType
}

// MessageInserts is the filter used by conversation channels.
var MessageInserts = Filter{Schema: SchemaPublic, Table: TableMessages, Event: ChangeInsert}
