package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/careerlink/portal-engine/internal/store/model"
)

type Posting interface {
	Create(ctx context.Context, posting model.JobPosting) (*model.JobPosting, error)
	Get(ctx context.Context, id uuid.UUID) (*model.JobPosting, error)
	List(ctx context.Context, organizationID *uuid.UUID) ([]model.JobPosting, error)
}

type PostingStore struct {
	db *gorm.DB
}

var _ Posting = (*PostingStore)(nil)

func NewPostingStore(db *gorm.DB) Posting {
	return &PostingStore{db: db}
}

func (s *PostingStore) Create(ctx context.Context, posting model.JobPosting) (*model.JobPosting, error) {
	if err := s.getDB(ctx).Create(&posting).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return &posting, nil
}

func (s *PostingStore) Get(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	var posting model.JobPosting
	if err := s.getDB(ctx).First(&posting, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &posting, nil
}

func (s *PostingStore) List(ctx context.Context, organizationID *uuid.UUID) ([]model.JobPosting, error) {
	var postings []model.JobPosting
	tx := s.getDB(ctx).Order("created_at")
	if organizationID != nil {
		tx = tx.Where("organization_id = ?", *organizationID)
	}
	if err := tx.Find(&postings).Error; err != nil {
		return nil, err
	}
	return postings, nil
}

func (s *PostingStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}
