package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/careerlink/portal-engine/internal/catalog"
	"github.com/careerlink/portal-engine/internal/stats"
	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/internal/store/model"
	"github.com/careerlink/portal-engine/internal/triage"
)

// StatsScope narrows the rollups. Verifications are scoped by account kind,
// applications by job posting or organization.
type StatsScope struct {
	AccountKind    *model.AccountKind
	JobPostingID   *uuid.UUID
	OrganizationID *uuid.UUID
}

// StatisticsService computes read-only rollups. Reads run outside any
// transaction, so results may lag concurrent writes.
type StatisticsService struct {
	store   store.Store
	catalog *catalog.Catalog
	scorer  *triage.Scorer
	opts    stats.Options
	clock   func() time.Time
}

func NewStatisticsService(s store.Store, c *catalog.Catalog, scorer *triage.Scorer, opts stats.Options) *StatisticsService {
	return &StatisticsService{store: s, catalog: c, scorer: scorer, opts: opts, clock: time.Now}
}

func (s *StatisticsService) Verifications(ctx context.Context, scope StatsScope) (stats.VerificationStats, error) {
	if err := requireAdmin(ctx, "read statistics"); err != nil {
		return stats.VerificationStats{}, err
	}
	return s.verificationStats(ctx, scope)
}

func (s *StatisticsService) Applications(ctx context.Context, scope StatsScope) (stats.ApplicationStats, error) {
	user, _, err := actor(ctx)
	if err != nil {
		return stats.ApplicationStats{}, err
	}
	// organizations may read the funnel of their own postings
	if !user.IsAdmin() && (scope.OrganizationID == nil || !user.Owns(*scope.OrganizationID)) {
		return stats.ApplicationStats{}, NewErrForbidden("read statistics", user.Subject)
	}
	return s.applicationStats(ctx, scope)
}

// Export writes both rollups and the open verification queue as an xlsx workbook.
func (s *StatisticsService) Export(ctx context.Context, scope StatsScope, w io.Writer) error {
	if err := requireAdmin(ctx, "export statistics"); err != nil {
		return err
	}
	v, err := s.verificationStats(ctx, scope)
	if err != nil {
		return err
	}
	a, err := s.applicationStats(ctx, scope)
	if err != nil {
		return err
	}
	open, err := s.store.Verification().List(ctx, s.verificationFilter(scope).Open(), nil)
	if err != nil {
		return err
	}
	now := s.clock().UTC()
	return stats.WriteXLSX(w, stats.Report{
		GeneratedAt:   now,
		Verifications: &v,
		Applications:  &a,
		Queue:         s.scorer.VerificationQueue(open, now),
	})
}

// VerificationStats and ApplicationStats feed the metrics collector with unscoped rollups.
func (s *StatisticsService) VerificationStats(ctx context.Context) (stats.VerificationStats, error) {
	return s.verificationStats(ctx, StatsScope{})
}

func (s *StatisticsService) ApplicationStats(ctx context.Context) (stats.ApplicationStats, error) {
	return s.applicationStats(ctx, StatsScope{})
}

func (s *StatisticsService) verificationStats(ctx context.Context, scope StatsScope) (stats.VerificationStats, error) {
	records, err := s.store.Verification().List(ctx, s.verificationFilter(scope), nil)
	if err != nil {
		return stats.VerificationStats{}, err
	}
	return stats.NewVerificationStats(records, s.catalog, s.clock().UTC(), s.opts), nil
}

func (s *StatisticsService) applicationStats(ctx context.Context, scope StatsScope) (stats.ApplicationStats, error) {
	qf := store.NewApplicationQueryFilter()
	if scope.JobPostingID != nil {
		qf = qf.ByJobPosting(*scope.JobPostingID)
	}
	if scope.OrganizationID != nil {
		qf = qf.ByOrganization(*scope.OrganizationID)
	}
	records, err := s.store.Application().List(ctx, qf, nil)
	if err != nil {
		return stats.ApplicationStats{}, err
	}
	return stats.NewApplicationStats(records, s.clock().UTC(), s.opts), nil
}

func (s *StatisticsService) verificationFilter(scope StatsScope) *store.VerificationQueryFilter {
	qf := store.NewVerificationQueryFilter()
	if scope.AccountKind != nil {
		qf = qf.ByAccountKind(*scope.AccountKind)
	}
	return qf
}

func requireAdmin(ctx context.Context, action string) error {
	user, _, err := actor(ctx)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return NewErrForbidden(action, user.Subject)
	}
	return nil
}
