package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type NoteAuthor string

const (
	AuthorAdmin         NoteAuthor = "admin"
	AuthorAccountHolder NoteAuthor = "account_holder"
	// AuthorSystem marks notes written by the engine itself, e.g. status changes.
	AuthorSystem NoteAuthor = "system"
)

func (a NoteAuthor) Valid() bool {
	return a == AuthorAdmin || a == AuthorAccountHolder || a == AuthorSystem
}

const (
	RecordTypeVerification = "verification"
	RecordTypeApplication  = "application"
)

// Note is one entry of a record's append-only communication trail.
// ID is assigned on insert and doubles as the insertion sequence.
type Note struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID   uuid.UUID  `gorm:"not null;type:VARCHAR(255);index:notes_record_idx" json:"recordId"`
	RecordType string     `gorm:"not null;type:VARCHAR(50);index:notes_record_idx" json:"recordType"`
	Text       string     `gorm:"not null" json:"text"`
	Author     NoteAuthor `gorm:"not null;type:VARCHAR(50)" json:"author"`
	AddedAt    time.Time  `gorm:"not null" json:"addedAt"`
}

type NoteList []Note

// SortNotes orders notes by AddedAt; equal timestamps keep insertion order.
func SortNotes(notes NoteList) {
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].AddedAt.Equal(notes[j].AddedAt) {
			return notes[i].AddedAt.Before(notes[j].AddedAt)
		}
		if notes[i].ID != 0 && notes[j].ID != 0 {
			return notes[i].ID < notes[j].ID
		}
		return false
	})
}
