package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/careerlink/portal-engine/internal/store/model"
)

type Application interface {
	Create(ctx context.Context, record model.ApplicationRecord) (*model.ApplicationRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ApplicationRecord, error)
	List(ctx context.Context, filter *ApplicationQueryFilter, opts *ListOptions) (model.ApplicationList, error)
	Count(ctx context.Context, filter *ApplicationQueryFilter) (int64, error)
	UpdateState(ctx context.Context, record *model.ApplicationRecord) error
	SetPriority(ctx context.Context, id uuid.UUID, priority model.Priority, setAt time.Time) error
}

type ApplicationStore struct {
	db *gorm.DB
}

var _ Application = (*ApplicationStore)(nil)

func NewApplicationStore(db *gorm.DB) Application {
	return &ApplicationStore{db: db}
}

// Create fails with ErrDuplicateKey when the account already applied to the posting.
func (s *ApplicationStore) Create(ctx context.Context, record model.ApplicationRecord) (*model.ApplicationRecord, error) {
	result := s.getDB(ctx).Omit(clause.Associations).Create(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &record, nil
}

func (s *ApplicationStore) Get(ctx context.Context, id uuid.UUID) (*model.ApplicationRecord, error) {
	var record model.ApplicationRecord
	result := withNotes(s.getDB(ctx)).First(&record, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	model.SortNotes(record.Notes)
	return &record, nil
}

func (s *ApplicationStore) List(ctx context.Context, filter *ApplicationQueryFilter, opts *ListOptions) (model.ApplicationList, error) {
	var records model.ApplicationList
	tx := withNotes(s.getDB(ctx).Model(&records))
	if filter != nil {
		tx = apply(tx, filter.QueryFn)
	}
	if opts != nil {
		tx = apply(tx, opts.QueryFn)
	} else {
		tx = tx.Order("applied_at")
	}
	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		model.SortNotes(records[i].Notes)
	}
	return records, nil
}

func (s *ApplicationStore) Count(ctx context.Context, filter *ApplicationQueryFilter) (int64, error) {
	var count int64
	tx := s.getDB(ctx).Model(&model.ApplicationRecord{})
	if filter != nil {
		tx = apply(tx, filter.QueryFn)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *ApplicationStore) UpdateState(ctx context.Context, record *model.ApplicationRecord) error {
	result := s.getDB(ctx).Model(&model.ApplicationRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]any{
			"status":         record.Status,
			"shortlist_flag": record.ShortlistFlag,
			"shortlisted_at": record.ShortlistedAt,
			"resolved_at":    record.ResolvedAt,
			"version":        record.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	record.Version++
	return nil
}

func (s *ApplicationStore) SetPriority(ctx context.Context, id uuid.UUID, priority model.Priority, setAt time.Time) error {
	result := s.getDB(ctx).Model(&model.ApplicationRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"priority": priority, "priority_set_at": setAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *ApplicationStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

func withNotes(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Notes", func(db *gorm.DB) *gorm.DB {
		return db.Order("notes.added_at, notes.id")
	})
}
