package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	VerificationPending     VerificationStatus = "pending"
	VerificationUnderReview VerificationStatus = "under_review"
	VerificationApproved    VerificationStatus = "approved"
	VerificationRejected    VerificationStatus = "rejected"
)

var VerificationStatuses = []VerificationStatus{
	VerificationPending,
	VerificationUnderReview,
	VerificationApproved,
	VerificationRejected,
}

// Resolved reports whether the status carries a decision.
func (s VerificationStatus) Resolved() bool {
	return s == VerificationApproved || s == VerificationRejected
}

// VerificationRecord is the per-account verification state. Documents and
// notes are ordered sub-collections owned by the record.
type VerificationRecord struct {
	ID            uuid.UUID          `gorm:"primaryKey;column:id;type:VARCHAR(255);" json:"id"`
	CreatedAt     time.Time          `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	AccountID     uuid.UUID          `gorm:"not null;type:VARCHAR(255);uniqueIndex:verification_records_account_idx" json:"accountId"`
	AccountKind   AccountKind        `gorm:"not null;type:VARCHAR(50);index:verification_records_kind_idx" json:"accountKind"`
	Status        VerificationStatus `gorm:"not null;type:VARCHAR(50);index:verification_records_status_idx" json:"status"`
	Priority      Priority           `gorm:"not null;type:VARCHAR(20)" json:"priority"`
	PrioritySetAt *time.Time         `json:"prioritySetAt,omitempty"`
	RequestedAt   *time.Time         `json:"requestedAt,omitempty"`
	ResolvedAt    *time.Time         `json:"resolvedAt,omitempty"`
	Version       int                `gorm:"not null;default:1" json:"version"`
	Documents     DocumentList       `gorm:"foreignKey:VerificationID;references:ID;constraint:OnDelete:CASCADE;" json:"documents,omitempty"`
	Notes         NoteList           `gorm:"polymorphic:Record;polymorphicValue:verification" json:"notes,omitempty"`
}

type VerificationList []VerificationRecord

func NewVerificationRecord(accountID uuid.UUID, kind AccountKind, now time.Time) VerificationRecord {
	return VerificationRecord{
		ID:          uuid.New(),
		CreatedAt:   now,
		AccountID:   accountID,
		AccountKind: kind,
		Status:      VerificationPending,
		Priority:    DefaultPriority,
		Version:     1,
		Documents:   DocumentList{},
		Notes:       NoteList{},
	}
}

func (v VerificationRecord) String() string {
	val, _ := json.Marshal(v)
	return string(val)
}
