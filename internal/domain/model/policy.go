package model

import "time"

// Policy is a named guardrail configuration. Guardrails lists the enabled
// detection categories; Sensitivity is the screening level label (L1-L4).
type Policy struct {
	ID          string
	Name        string
	PolicyID    string // external-facing identifier, unique
	Guardrails  []string
	Sensitivity string
	Projects    string // display summary of linked projects, managed by the UI
	IsUserAdded bool
	LastEdited  time.Time
}
