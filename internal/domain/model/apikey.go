package model

import "time"

// APIKey is an opaque bearer credential authorizing ingestion. The secret Key
// value is generated server-side at creation and never client-supplied.
// ProjectID optionally links the key to the project it ingests on behalf of;
// an empty ProjectID means the key resolves to the default context.
type APIKey struct {
	ID        string
	Name      string
	Key       string // unique secret value
	ProjectID string
	CreatedAt time.Time
	LastUsed  *time.Time // nil until first successful ingestion
}
