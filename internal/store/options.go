package store

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/careerlink/portal-engine/internal/store/model"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByID
	SortByUpdatedTime
	SortByCreatedTime
)

type VerificationQueryFilter BaseQuerier

func NewVerificationQueryFilter() *VerificationQueryFilter {
	return &VerificationQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *VerificationQueryFilter) ByStatus(statuses ...model.VerificationStatus) *VerificationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("verification_records.status IN ?", statuses)
	})
	return qf
}

// Open keeps records still waiting for a decision.
func (qf *VerificationQueryFilter) Open() *VerificationQueryFilter {
	return qf.ByStatus(model.VerificationPending, model.VerificationUnderReview)
}

func (qf *VerificationQueryFilter) ByAccountKind(kind model.AccountKind) *VerificationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("verification_records.account_kind = ?", kind)
	})
	return qf
}

func (qf *VerificationQueryFilter) ByPriority(p model.Priority) *VerificationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("verification_records.priority = ?", p)
	})
	return qf
}

func (qf *VerificationQueryFilter) Requested() *VerificationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("verification_records.requested_at IS NOT NULL")
	})
	return qf
}

type ApplicationQueryFilter BaseQuerier

func NewApplicationQueryFilter() *ApplicationQueryFilter {
	return &ApplicationQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *ApplicationQueryFilter) ByJobPosting(id uuid.UUID) *ApplicationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("application_records.job_posting_id = ?", id)
	})
	return qf
}

func (qf *ApplicationQueryFilter) ByOrganization(id uuid.UUID) *ApplicationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("application_records.organization_id = ?", id)
	})
	return qf
}

func (qf *ApplicationQueryFilter) ByAccount(id uuid.UUID) *ApplicationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("application_records.account_id = ?", id)
	})
	return qf
}

func (qf *ApplicationQueryFilter) ByStatus(statuses ...model.ApplicationStatus) *ApplicationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("application_records.status IN ?", statuses)
	})
	return qf
}

func (qf *ApplicationQueryFilter) Open() *ApplicationQueryFilter {
	return qf.ByStatus(
		model.ApplicationApplied,
		model.ApplicationReviewed,
		model.ApplicationShortlisted,
		model.ApplicationInterviewCalled,
		model.ApplicationSelected,
		model.ApplicationOffered,
	)
}

// OnShortlist keeps applications that are shortlisted by status or by flag.
func (qf *ApplicationQueryFilter) OnShortlist() *ApplicationQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("(application_records.shortlist_flag = ? OR application_records.status IN ?)", true, []model.ApplicationStatus{
			model.ApplicationShortlisted,
			model.ApplicationInterviewCalled,
			model.ApplicationSelected,
			model.ApplicationOffered,
			model.ApplicationAccepted,
		})
	})
	return qf
}

type ListOptions BaseQuerier

func NewListOptions() *ListOptions {
	return &ListOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *ListOptions) WithSortOrder(sort SortOrder) *ListOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at")
		case SortByCreatedTime:
			return tx.Order("created_at")
		default:
			return tx
		}
	})
	return o
}

func (o *ListOptions) WithPage(limit, offset int) *ListOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		if limit > 0 {
			tx = tx.Limit(limit)
		}
		if offset > 0 {
			tx = tx.Offset(offset)
		}
		return tx
	})
	return o
}

func apply(tx *gorm.DB, fns ...[]func(*gorm.DB) *gorm.DB) *gorm.DB {
	for _, set := range fns {
		for _, fn := range set {
			tx = fn(tx)
		}
	}
	return tx
}
