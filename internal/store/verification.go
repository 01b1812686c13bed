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

type Verification interface {
	Create(ctx context.Context, record model.VerificationRecord) (*model.VerificationRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*model.VerificationRecord, error)
	GetByAccount(ctx context.Context, accountID uuid.UUID) (*model.VerificationRecord, error)
	List(ctx context.Context, filter *VerificationQueryFilter, opts *ListOptions) (model.VerificationList, error)
	Count(ctx context.Context, filter *VerificationQueryFilter) (int64, error)
	UpdateState(ctx context.Context, record *model.VerificationRecord) error
	SetPriority(ctx context.Context, id uuid.UUID, priority model.Priority, setAt time.Time) error
	AppendDocuments(ctx context.Context, docs model.DocumentList) (model.DocumentList, error)
	MarkDocumentVerified(ctx context.Context, doc model.DocumentSubmission) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type VerificationStore struct {
	db *gorm.DB
}

// Make sure we conform to Verification interface
var _ Verification = (*VerificationStore)(nil)

func NewVerificationStore(db *gorm.DB) Verification {
	return &VerificationStore{db: db}
}

func (s *VerificationStore) Create(ctx context.Context, record model.VerificationRecord) (*model.VerificationRecord, error) {
	result := s.getDB(ctx).Omit(clause.Associations).Create(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &record, nil
}

func (s *VerificationStore) Get(ctx context.Context, id uuid.UUID) (*model.VerificationRecord, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *VerificationStore) GetByAccount(ctx context.Context, accountID uuid.UUID) (*model.VerificationRecord, error) {
	return s.first(ctx, "account_id = ?", accountID)
}

func (s *VerificationStore) first(ctx context.Context, query string, args ...any) (*model.VerificationRecord, error) {
	var record model.VerificationRecord
	result := withChildren(s.getDB(ctx)).First(&record, append([]any{query}, args...)...)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	model.SortNotes(record.Notes)
	return &record, nil
}

func (s *VerificationStore) List(ctx context.Context, filter *VerificationQueryFilter, opts *ListOptions) (model.VerificationList, error) {
	var records model.VerificationList
	tx := withChildren(s.getDB(ctx).Model(&records))
	if filter != nil {
		tx = apply(tx, filter.QueryFn)
	}
	if opts != nil {
		tx = apply(tx, opts.QueryFn)
	} else {
		tx = tx.Order("created_at")
	}

	if err := tx.Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		model.SortNotes(records[i].Notes)
	}
	return records, nil
}

func (s *VerificationStore) Count(ctx context.Context, filter *VerificationQueryFilter) (int64, error) {
	var count int64
	tx := s.getDB(ctx).Model(&model.VerificationRecord{})
	if filter != nil {
		tx = apply(tx, filter.QueryFn)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateState writes the status fields if the stored version still equals
// record.Version, then increments record.Version.
func (s *VerificationStore) UpdateState(ctx context.Context, record *model.VerificationRecord) error {
	result := s.getDB(ctx).Model(&model.VerificationRecord{}).
		Where("id = ? AND version = ?", record.ID, record.Version).
		Updates(map[string]any{
			"status":       record.Status,
			"requested_at": record.RequestedAt,
			"resolved_at":  record.ResolvedAt,
			"version":      record.Version + 1,
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

// SetPriority is not versioned; the last writer wins.
func (s *VerificationStore) SetPriority(ctx context.Context, id uuid.UUID, priority model.Priority, setAt time.Time) error {
	result := s.getDB(ctx).Model(&model.VerificationRecord{}).
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

func (s *VerificationStore) AppendDocuments(ctx context.Context, docs model.DocumentList) (model.DocumentList, error) {
	if len(docs) == 0 {
		return docs, nil
	}
	if err := s.getDB(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *VerificationStore) MarkDocumentVerified(ctx context.Context, doc model.DocumentSubmission) error {
	result := s.getDB(ctx).Model(&model.DocumentSubmission{}).
		Where("id = ? AND verification_id = ?", doc.ID, doc.VerificationID).
		Updates(map[string]any{"verified": true, "verified_at": doc.VerifiedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete removes the record with its documents and notes.
func (s *VerificationStore) Delete(ctx context.Context, id uuid.UUID) error {
	db := s.getDB(ctx)
	if err := db.Where("record_id = ? AND record_type = ?", id, model.RecordTypeVerification).Delete(&model.Note{}).Error; err != nil {
		return err
	}
	if err := db.Where("verification_id = ?", id).Delete(&model.DocumentSubmission{}).Error; err != nil {
		return err
	}
	result := db.Delete(&model.VerificationRecord{}, "id = ?", id)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *VerificationStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

func withChildren(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("document_submissions.id")
		}).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("notes.added_at, notes.id")
		})
}
