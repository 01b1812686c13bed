package stats

import (
	"time"

	"github.com/careerlink/portal-engine/internal/store/model"
)

type ApplicationStats struct {
	Total            int                             `json:"total"`
	ByStatus         map[model.ApplicationStatus]int `json:"byStatus"`
	ByPriority       map[model.Priority]int          `json:"byPriority"`
	Shortlisted      int                             `json:"shortlisted"`
	RecentlyResolved int                             `json:"recentlyResolved"`
	// Rates are fractions in [0, 1]; they are 0 when the denominator is empty.
	ShortlistRate  float64 `json:"shortlistRate"`
	SelectionRate  float64 `json:"selectionRate"`
	AcceptanceRate float64 `json:"acceptanceRate"`
	// AverageDaysToShortlist is only meaningful when HasShortlistData is true.
	AverageDaysToShortlist float64 `json:"averageDaysToShortlist"`
	HasShortlistData       bool    `json:"hasShortlistData"`
}

// NewApplicationStats rolls up applications as of now.
//
//	shortlist rate  = ever shortlisted / total
//	selection rate  = reached selected / ever shortlisted
//	acceptance rate = accepted / reached offered
func NewApplicationStats(records model.ApplicationList, now time.Time, opts Options) ApplicationStats {
	s := ApplicationStats{
		Total:      len(records),
		ByStatus:   make(map[model.ApplicationStatus]int, len(model.ApplicationStatuses)),
		ByPriority: make(map[model.Priority]int, len(model.AllPriorities)),
	}
	for _, st := range model.ApplicationStatuses {
		s.ByStatus[st] = 0
	}
	for _, p := range model.AllPriorities {
		s.ByPriority[p] = 0
	}

	recentFrom := now.Add(-opts.recentWindow())
	everShortlisted, selected, offered, accepted := 0, 0, 0, 0
	var toShortlist time.Duration

	for _, a := range records {
		s.ByStatus[a.Status]++
		s.ByPriority[a.Priority]++
		if a.OnShortlist() {
			s.Shortlisted++
		}
		if a.ResolvedAt != nil && !a.ResolvedAt.Before(recentFrom) {
			s.RecentlyResolved++
		}

		if a.ShortlistedAt != nil {
			everShortlisted++
			if d := a.ShortlistedAt.Sub(a.AppliedAt); d >= 0 {
				toShortlist += d
			}
		}
		// rejected records keep no stage, so only live progress counts here
		stage := a.Status.Stage()
		if stage >= model.ApplicationSelected.Stage() {
			selected++
		}
		if stage >= model.ApplicationOffered.Stage() {
			offered++
		}
		if a.Status == model.ApplicationAccepted {
			accepted++
		}
	}

	s.ShortlistRate = ratio(everShortlisted, s.Total)
	s.SelectionRate = ratio(selected, everShortlisted)
	s.AcceptanceRate = ratio(accepted, offered)
	if everShortlisted > 0 {
		s.HasShortlistData = true
		s.AverageDaysToShortlist = days(toShortlist) / float64(everShortlisted)
	}
	return s
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
