package model

import "time"

// Project is a named tenant context. Every inspected request is attributed to
// a project through the API key that authenticated it.
type Project struct {
	ID        string
	Name      string
	ProjectID string // external-facing short code, unique
	Policy    string // name of the policy governing this project
	Metadata  string
	CreatedAt time.Time

	// Proxy exposure fields. A project may expose a public demo chat proxy
	// under ProxySlug when IsPublic is set.
	IsPublic      bool
	ProxySlug     string
	SupportedLLMs []string
}
