package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/careerlink/portal-engine/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Account() Account
	Verification() Verification
	Application() Application
	Posting() Posting
	Note() Note
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db           *gorm.DB
	account      Account
	verification Verification
	application  Application
	posting      Posting
	note         Note
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:           db,
		account:      NewAccountStore(db),
		verification: NewVerificationStore(db),
		application:  NewApplicationStore(db),
		posting:      NewPostingStore(db),
		note:         NewNoteStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Account() Account {
	return s.account
}

func (s *DataStore) Verification() Verification {
	return s.verification
}

func (s *DataStore) Application() Application {
	return s.application
}

func (s *DataStore) Posting() Posting {
	return s.posting
}

func (s *DataStore) Note() Note {
	return s.note
}

// InitialMigration creates the schema from the models. Production databases
// are migrated with the goose migrations instead.
func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(
		&model.Account{},
		&model.JobPosting{},
		&model.VerificationRecord{},
		&model.DocumentSubmission{},
		&model.ApplicationRecord{},
		&model.Note{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
