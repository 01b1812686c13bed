package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/careerlink/portal-engine/internal/store/model"
)

// Note appends to and reads the communication trail of any record.
// Appends are single inserts and never rewrite existing notes.
type Note interface {
	Append(ctx context.Context, notes model.NoteList) (model.NoteList, error)
	List(ctx context.Context, recordType string, recordID uuid.UUID) (model.NoteList, error)
}

type NoteStore struct {
	db *gorm.DB
}

var _ Note = (*NoteStore)(nil)

func NewNoteStore(db *gorm.DB) Note {
	return &NoteStore{db: db}
}

func (s *NoteStore) Append(ctx context.Context, notes model.NoteList) (model.NoteList, error) {
	db := FromContext(ctx)
	if db == nil {
		db = s.db.WithContext(ctx)
	}
	// one statement per note so ids follow the given order
	for i := range notes {
		notes[i].ID = 0
		if err := db.Create(&notes[i]).Error; err != nil {
			return nil, err
		}
	}
	return notes, nil
}

func (s *NoteStore) List(ctx context.Context, recordType string, recordID uuid.UUID) (model.NoteList, error) {
	db := FromContext(ctx)
	if db == nil {
		db = s.db.WithContext(ctx)
	}
	var notes model.NoteList
	err := db.Where("record_type = ? AND record_id = ?", recordType, recordID).
		Order("added_at, id").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}
