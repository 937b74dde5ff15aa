package model

import "time"

// LogEntry is the immutable audit record of one inspected request. Entries are
// created exactly once per successful ingestion and never mutated afterwards.
type LogEntry struct {
	ID              string
	Timestamp       time.Time
	Project         string // project display name at ingestion time
	ThreatsDetected []string
	Content         string // inspected content, retained verbatim
	Policy          string // resolved policy name at ingestion time
	RequestID       string
	Latency         int // milliseconds, non-negative
	Region          string
	Metadata        string
}
