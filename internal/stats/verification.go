// Package stats computes read-only rollups over verification and application records.
package stats

import (
	"time"

	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/store/model"
)

const (
	DefaultRecentWindow = 30 * 24 * time.Hour

	AgeUnderWeek    = "lt_7d"
	AgeOneToTwoWeek = "7d_14d"
	AgeOverTwoWeeks = "gte_14d"
	AgeNotRequested = "not_requested"
)

type Options struct {
	// RecentWindow bounds "recently resolved". Zero means DefaultRecentWindow.
	RecentWindow time.Duration
}

func (o Options) recentWindow() time.Duration {
	if o.RecentWindow <= 0 {
		return DefaultRecentWindow
	}
	return o.RecentWindow
}

type VerificationStats struct {
	Total            int                              `json:"total"`
	ByStatus         map[model.VerificationStatus]int `json:"byStatus"`
	ByPriority       map[model.Priority]int           `json:"byPriority"`
	RecentlyResolved int                              `json:"recentlyResolved"`
	// AverageDaysToResolution is only meaningful when HasResolutionData is true.
	AverageDaysToResolution float64        `json:"averageDaysToResolution"`
	HasResolutionData       bool           `json:"hasResolutionData"`
	PendingAge              map[string]int `json:"pendingAge"`
	DocumentsComplete       int            `json:"documentsComplete"`
}

// NewVerificationStats rolls up records as of now. The average resolution time
// covers resolved records only.
func NewVerificationStats(records model.VerificationList, c *catalog.Catalog, now time.Time, opts Options) VerificationStats {
	s := VerificationStats{
		Total:      len(records),
		ByStatus:   make(map[model.VerificationStatus]int, len(model.VerificationStatuses)),
		ByPriority: make(map[model.Priority]int, len(model.AllPriorities)),
		PendingAge: map[string]int{AgeUnderWeek: 0, AgeOneToTwoWeek: 0, AgeOverTwoWeeks: 0, AgeNotRequested: 0},
	}
	for _, st := range model.VerificationStatuses {
		s.ByStatus[st] = 0
	}
	for _, p := range model.AllPriorities {
		s.ByPriority[p] = 0
	}

	recentFrom := now.Add(-opts.recentWindow())
	var total time.Duration
	resolved := 0

	for _, r := range records {
		s.ByStatus[r.Status]++
		s.ByPriority[r.Priority]++

		if ok, err := c.Satisfied(r.AccountKind, r.Documents); err == nil && ok {
			s.DocumentsComplete++
		}

		if r.Status.Resolved() && r.ResolvedAt != nil {
			start := r.CreatedAt
			if r.RequestedAt != nil {
				start = *r.RequestedAt
			}
			if d := r.ResolvedAt.Sub(start); d >= 0 {
				total += d
				resolved++
			}
			if !r.ResolvedAt.Before(recentFrom) {
				s.RecentlyResolved++
			}
			continue
		}

		s.PendingAge[ageBucket(r.RequestedAt, now)]++
	}

	if resolved > 0 {
		s.HasResolutionData = true
		s.AverageDaysToResolution = days(total) / float64(resolved)
	}
	return s
}

func ageBucket(requestedAt *time.Time, now time.Time) string {
	if requestedAt == nil {
		return AgeNotRequested
	}
	age := now.Sub(*requestedAt)
	switch {
	case age >= 14*24*time.Hour:
		return AgeOverTwoWeeks
	case age >= 7*24*time.Hour:
		return AgeOneToTwoWeek
	default:
		return AgeUnderWeek
	}
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}
