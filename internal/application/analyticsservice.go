package application

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/leakguardhq/leakguard/internal/domain/port/driven"
)

// TrafficPoint is one hourly bucket of ingestion traffic.
type TrafficPoint struct {
	Time      string `json:"time"` // hour label, e.g. "3PM"
	Flagged   int    `json:"flagged"`
	Unflagged int    `json:"unflagged"`
}

// TrafficSummary aggregates the trailing 24 hours of audit entries.
type TrafficSummary struct {
	TotalRequests int            `json:"total_requests"`
	TotalThreats  int            `json:"total_threats"`
	DetectionRate float64        `json:"detection_rate"`
	Timeseries    []TrafficPoint `json:"timeseries"`
}

// AnalyticsService summarizes stored audit entries into time-bucketed counts.
// It depends only on the LogStore port and never mutates entries.
type AnalyticsService struct {
	logs driven.LogStore
}

// NewAnalyticsService creates an AnalyticsService backed by the given store.
func NewAnalyticsService(logs driven.LogStore) *AnalyticsService {
	return &AnalyticsService{logs: logs}
}

// Summary buckets the trailing 24 hours of entries into hourly flagged and
// unflagged counts, oldest bucket first. An entry is flagged when at least
// one threat category was detected.
func (s *AnalyticsService) Summary(ctx context.Context, now time.Time) (*TrafficSummary, error) {
	end := now.UTC().Truncate(time.Hour)
	start := end.Add(-23 * time.Hour)

	entries, err := s.logs.ListSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("load entries since %s: %w", start.Format(time.RFC3339), err)
	}

	flagged := make([]int, 24)
	unflagged := make([]int, 24)
	for _, e := range entries {
		bucket := int(e.Timestamp.UTC().Truncate(time.Hour).Sub(start) / time.Hour)
		if bucket < 0 || bucket > 23 {
			continue
		}
		if len(e.ThreatsDetected) > 0 {
			flagged[bucket]++
		} else {
			unflagged[bucket]++
		}
	}

	summary := &TrafficSummary{Timeseries: make([]TrafficPoint, 0, 24)}
	for i := 0; i < 24; i++ {
		summary.Timeseries = append(summary.Timeseries, TrafficPoint{
			Time:      hourLabel(start.Add(time.Duration(i) * time.Hour)),
			Flagged:   flagged[i],
			Unflagged: unflagged[i],
		})
		summary.TotalRequests += flagged[i] + unflagged[i]
		summary.TotalThreats += flagged[i]
	}

	if summary.TotalRequests > 0 {
		rate := float64(summary.TotalThreats) / float64(summary.TotalRequests)
		summary.DetectionRate = math.Round(rate*10000) / 10000
	}

	return summary, nil
}

// hourLabel formats an hour like "3PM", matching the dashboard's axis labels.
func hourLabel(t time.Time) string {
	return strings.TrimPrefix(t.Format("3PM"), "0")
}
