// Package triage suggests review priorities and orders the admin work queues.
// It reads records and never writes them.
package triage

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/store/model"
)

const (
	DefaultMediumAfter = 7 * 24 * time.Hour
	DefaultHighAfter   = 14 * 24 * time.Hour
)

// Thresholds are the waiting times after which a record is suggested at a higher level.
type Thresholds struct {
	MediumAfter time.Duration
	HighAfter   time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{MediumAfter: DefaultMediumAfter, HighAfter: DefaultHighAfter}
}

func (t Thresholds) Validate() error {
	if t.MediumAfter <= 0 || t.HighAfter <= 0 {
		return fmt.Errorf("triage thresholds must be positive")
	}
	if t.HighAfter < t.MediumAfter {
		return fmt.Errorf("high threshold %s is below medium threshold %s", t.HighAfter, t.MediumAfter)
	}
	return nil
}

// Suggestion is the computed priority of a record. Since is the moment the
// suggested level started to apply.
type Suggestion struct {
	Level   model.Priority `json:"level"`
	Since   time.Time      `json:"since"`
	Reasons []string       `json:"reasons"`
}

type Scorer struct {
	catalog    *catalog.Catalog
	thresholds Thresholds
}

func NewScorer(c *catalog.Catalog, t Thresholds) *Scorer {
	return &Scorer{catalog: c, thresholds: t}
}

func (s *Scorer) byAge(start, now time.Time) Suggestion {
	age := now.Sub(start)
	switch {
	case age >= s.thresholds.HighAfter:
		return Suggestion{
			Level:   model.PriorityHigh,
			Since:   start.Add(s.thresholds.HighAfter),
			Reasons: []string{fmt.Sprintf("waiting for %s", roundDays(age))},
		}
	case age >= s.thresholds.MediumAfter:
		return Suggestion{
			Level:   model.PriorityMedium,
			Since:   start.Add(s.thresholds.MediumAfter),
			Reasons: []string{fmt.Sprintf("waiting for %s", roundDays(age))},
		}
	default:
		return Suggestion{Level: model.PriorityLow, Since: start, Reasons: []string{}}
	}
}

// SuggestVerification scores an open verification by how long it has waited
// since it was requested. Requested records missing required documents are
// never suggested below medium.
func (s *Scorer) SuggestVerification(r model.VerificationRecord, now time.Time) Suggestion {
	if r.Status.Resolved() {
		since := r.CreatedAt
		if r.ResolvedAt != nil {
			since = *r.ResolvedAt
		}
		return Suggestion{Level: model.PriorityLow, Since: since, Reasons: []string{"resolved"}}
	}
	if r.RequestedAt == nil {
		return Suggestion{Level: model.PriorityLow, Since: r.CreatedAt, Reasons: []string{"not requested"}}
	}

	sug := s.byAge(*r.RequestedAt, now)
	missing, err := s.catalog.Missing(r.AccountKind, r.Documents)
	if err == nil && len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, string(m))
		}
		sug.Reasons = append(sug.Reasons, "missing "+strings.Join(names, ", "))
		if sug.Level.Rank() < model.PriorityMedium.Rank() {
			sug.Level = model.PriorityMedium
			sug.Since = *r.RequestedAt
		}
	}
	return sug
}

// SuggestApplication scores an open application by the time since it was submitted.
func (s *Scorer) SuggestApplication(a model.ApplicationRecord, now time.Time) Suggestion {
	if a.Status.Terminal() {
		since := a.AppliedAt
		if a.ResolvedAt != nil {
			since = *a.ResolvedAt
		}
		return Suggestion{Level: model.PriorityLow, Since: since, Reasons: []string{"closed"}}
	}
	return s.byAge(a.AppliedAt, now)
}

// Effective combines the stored priority with a suggestion. A manual priority
// set after the suggestion started to apply wins; otherwise the higher one wins.
func Effective(priority model.Priority, setAt *time.Time, sug Suggestion) model.Priority {
	if !priority.Valid() {
		priority = model.DefaultPriority
	}
	if setAt != nil && !setAt.Before(sug.Since) {
		return priority
	}
	return model.MaxPriority(priority, sug.Level)
}

// Entry is one line of a triage queue.
type Entry struct {
	RecordType string         `json:"recordType"`
	ID         uuid.UUID      `json:"id"`
	AccountID  uuid.UUID      `json:"accountId"`
	Status     string         `json:"status"`
	Priority   model.Priority `json:"priority"`
	Suggestion Suggestion     `json:"suggestion"`
	Effective  model.Priority `json:"effectivePriority"`
	// WaitingSince is requestedAt for verifications and appliedAt for applications.
	WaitingSince *time.Time `json:"waitingSince,omitempty"`
}

func (s *Scorer) VerificationEntry(r model.VerificationRecord, now time.Time) Entry {
	sug := s.SuggestVerification(r, now)
	return Entry{
		RecordType:   model.RecordTypeVerification,
		ID:           r.ID,
		AccountID:    r.AccountID,
		Status:       string(r.Status),
		Priority:     r.Priority,
		Suggestion:   sug,
		Effective:    Effective(r.Priority, r.PrioritySetAt, sug),
		WaitingSince: r.RequestedAt,
	}
}

func (s *Scorer) ApplicationEntry(a model.ApplicationRecord, now time.Time) Entry {
	sug := s.SuggestApplication(a, now)
	applied := a.AppliedAt
	return Entry{
		RecordType:   model.RecordTypeApplication,
		ID:           a.ID,
		AccountID:    a.AccountID,
		Status:       string(a.Status),
		Priority:     a.Priority,
		Suggestion:   sug,
		Effective:    Effective(a.Priority, a.PrioritySetAt, sug),
		WaitingSince: &applied,
	}
}

// VerificationQueue scores and orders records for review.
func (s *Scorer) VerificationQueue(records model.VerificationList, now time.Time) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, s.VerificationEntry(r, now))
	}
	Sort(entries)
	return entries
}

func (s *Scorer) ApplicationQueue(records model.ApplicationList, now time.Time) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, a := range records {
		entries = append(entries, s.ApplicationEntry(a, now))
	}
	Sort(entries)
	return entries
}

// SortVerifications orders records in place by triage order.
func (s *Scorer) SortVerifications(records model.VerificationList, now time.Time) {
	keys := make(map[uuid.UUID]Entry, len(records))
	for _, r := range records {
		keys[r.ID] = s.VerificationEntry(r, now)
	}
	slices.SortFunc(records, func(a, b model.VerificationRecord) int {
		return Compare(keys[a.ID], keys[b.ID])
	})
}

func (s *Scorer) SortApplications(records model.ApplicationList, now time.Time) {
	keys := make(map[uuid.UUID]Entry, len(records))
	for _, a := range records {
		keys[a.ID] = s.ApplicationEntry(a, now)
	}
	slices.SortFunc(records, func(a, b model.ApplicationRecord) int {
		return Compare(keys[a.ID], keys[b.ID])
	})
}

func Sort(entries []Entry) {
	slices.SortFunc(entries, Compare)
}

// Compare is the triage order: effective priority descending, then waiting
// since ascending with never-requested records last, then id. It is a total
// order over entries with distinct ids.
func Compare(a, b Entry) int {
	if d := b.Effective.Rank() - a.Effective.Rank(); d != 0 {
		return d
	}
	switch {
	case a.WaitingSince == nil && b.WaitingSince != nil:
		return 1
	case a.WaitingSince != nil && b.WaitingSince == nil:
		return -1
	case a.WaitingSince != nil && b.WaitingSince != nil:
		if c := a.WaitingSince.Compare(*b.WaitingSince); c != 0 {
			return c
		}
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

func roundDays(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
