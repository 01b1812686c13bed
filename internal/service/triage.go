package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/triage"
)

type QueueFilter struct {
	AccountKind  *model.AccountKind
	JobPostingID *uuid.UUID
	// MinPriority drops entries whose effective priority ranks below it.
	MinPriority *model.Priority
}

// TriageService builds the admin work queues over open records.
type TriageService struct {
	store  store.Store
	scorer *triage.Scorer
	clock  func() time.Time
}

func NewTriageService(s store.Store, scorer *triage.Scorer) *TriageService {
	return &TriageService{store: s, scorer: scorer, clock: time.Now}
}

func (s *TriageService) VerificationQueue(ctx context.Context, filter QueueFilter) ([]triage.Entry, error) {
	if err := requireAdmin(ctx, "read triage queue"); err != nil {
		return nil, err
	}
	qf := store.NewVerificationQueryFilter().Open()
	if filter.AccountKind != nil {
		qf = qf.ByAccountKind(*filter.AccountKind)
	}
	records, err := s.store.Verification().List(ctx, qf, nil)
	if err != nil {
		return nil, err
	}
	return minPriority(s.scorer.VerificationQueue(records, s.clock().UTC()), filter.MinPriority), nil
}

func (s *TriageService) ApplicationQueue(ctx context.Context, filter QueueFilter) ([]triage.Entry, error) {
	if err := requireAdmin(ctx, "read triage queue"); err != nil {
		return nil, err
	}
	qf := store.NewApplicationQueryFilter().Open()
	if filter.JobPostingID != nil {
		qf = qf.ByJobPosting(*filter.JobPostingID)
	}
	records, err := s.store.Application().List(ctx, qf, nil)
	if err != nil {
		return nil, err
	}
	return minPriority(s.scorer.ApplicationQueue(records, s.clock().UTC()), filter.MinPriority), nil
}

// Suggest returns the computed priority of one record.
func (s *TriageService) Suggest(ctx context.Context, recordType string, id uuid.UUID) (triage.Entry, error) {
	if err := requireAdmin(ctx, "read triage suggestion"); err != nil {
		return triage.Entry{}, err
	}
	now := s.clock().UTC()
	switch recordType {
	case model.RecordTypeVerification:
		r, err := s.store.Verification().Get(ctx, id)
		if err != nil {
			return triage.Entry{}, notFound(err, NewErrVerificationNotFound(id))
		}
		return s.scorer.VerificationEntry(*r, now), nil
	case model.RecordTypeApplication:
		a, err := s.store.Application().Get(ctx, id)
		if err != nil {
			return triage.Entry{}, notFound(err, NewErrApplicationNotFound(id))
		}
		return s.scorer.ApplicationEntry(*a, now), nil
	default:
		return triage.Entry{}, NewErrUnknownAction(recordType, "suggest")
	}
}

func minPriority(entries []triage.Entry, p *model.Priority) []triage.Entry {
	if p == nil {
		return entries
	}
	return funk.Filter(entries, func(e triage.Entry) bool {
		return e.Effective.Rank() >= p.Rank()
	}).([]triage.Entry)
}
