package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/careerlink/portal-engine/internal/store/model"
)

type Account interface {
	Create(ctx context.Context, account model.Account) (*model.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
	List(ctx context.Context, kind *model.AccountKind) (model.AccountList, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AccountStore struct {
	db *gorm.DB
}

var _ Account = (*AccountStore)(nil)

func NewAccountStore(db *gorm.DB) Account {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, account model.Account) (*model.Account, error) {
	result := s.getDB(ctx).Omit(clause.Associations).Create(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &account, nil
}

func (s *AccountStore) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := s.getDB(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *AccountStore) List(ctx context.Context, kind *model.AccountKind) (model.AccountList, error) {
	var accounts model.AccountList
	tx := s.getDB(ctx).Model(&accounts).Order("created_at")
	if kind != nil {
		tx = tx.Where("kind = ?", *kind)
	}
	if err := tx.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Delete removes the account and its verification record. Applications are kept.
func (s *AccountStore) Delete(ctx context.Context, id uuid.UUID) error {
	db := s.getDB(ctx)

	var verificationIDs []uuid.UUID
	if err := db.Model(&model.VerificationRecord{}).Where("account_id = ?", id).Pluck("id", &verificationIDs).Error; err != nil {
		return err
	}
	verifications := NewVerificationStore(db)
	for _, vid := range verificationIDs {
		if err := verifications.Delete(ctx, vid); err != nil {
			return err
		}
	}

	result := db.Delete(&model.Account{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *AccountStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}
