package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leakguardhq/leakguard/internal/domain/model"
	"github.com/leakguardhq/leakguard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LogStore = (*LogRepo)(nil)

// maxLogPageSize bounds a single log listing regardless of the requested
// limit, so a caller cannot pull the whole table in one response.
const maxLogPageSize = 500

// LogRepo is the SQLite implementation of the LogStore port interface.
// Entries are append-only; no update or delete statement exists here.
type LogRepo struct {
	db *DB
}

// NewLogRepo creates a new LogRepo backed by the given DB.
func NewLogRepo(db *DB) *LogRepo {
	return &LogRepo{db: db}
}

const logColumns = `id, timestamp, project, threats_detected, content, policy, request_id, latency, region, log_entry_metadata`

// Append writes one entry durably, assigning an id and timestamp when unset,
// and returns the stored representation.
func (r *LogRepo) Append(ctx context.Context, entry model.LogEntry) (model.LogEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if entry.Latency < 0 {
		entry.Latency = 0
	}

	threats, err := encodeStringList(entry.ThreatsDetected)
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("append log entry: %w", err)
	}
	if entry.ThreatsDetected == nil {
		entry.ThreatsDetected = []string{}
	}

	const query = `INSERT INTO log_entries (` + logColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Writer.ExecContext(ctx, query,
		entry.ID, formatTime(entry.Timestamp), entry.Project, threats, entry.Content,
		entry.Policy, entry.RequestID, entry.Latency, entry.Region, entry.Metadata,
	)
	if err != nil {
		return model.LogEntry{}, fmt.Errorf("append log entry: %w", err)
	}

	return entry, nil
}

// List returns entries ordered by timestamp descending. The limit is clamped
// to maxLogPageSize.
func (r *LogRepo) List(ctx context.Context, offset, limit int) ([]model.LogEntry, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxLogPageSize {
		limit = maxLogPageSize
	}

	const query = `SELECT ` + logColumns + ` FROM log_entries ORDER BY timestamp DESC, id LIMIT ? OFFSET ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	defer rows.Close()

	return collectLogEntries(rows)
}

// ListSince returns all entries with a timestamp at or after since, ascending.
func (r *LogRepo) ListSince(ctx context.Context, since time.Time) ([]model.LogEntry, error) {
	const query = `SELECT ` + logColumns + ` FROM log_entries WHERE timestamp >= ? ORDER BY timestamp, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("list log entries since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()

	return collectLogEntries(rows)
}

// Count returns the total number of stored entries.
func (r *LogRepo) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM log_entries`

	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count log entries: %w", err)
	}
	return count, nil
}

func collectLogEntries(rows *sql.Rows) ([]model.LogEntry, error) {
	var entries []model.LogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}

	return entries, nil
}

func scanLogEntry(s scanner) (*model.LogEntry, error) {
	var entry model.LogEntry
	var timestamp, threats string

	err := s.Scan(
		&entry.ID, &timestamp, &entry.Project, &threats, &entry.Content,
		&entry.Policy, &entry.RequestID, &entry.Latency, &entry.Region, &entry.Metadata,
	)
	if err != nil {
		return nil, err
	}

	entry.Timestamp, err = parseTime(timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}

	entry.ThreatsDetected, err = decodeStringList(threats)
	if err != nil {
		return nil, fmt.Errorf("parse threats_detected: %w", err)
	}

	return &entry, nil
}
