package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

// DocumentSubmission records the metadata of one uploaded document. The bytes
// live in an external file store addressed by StorageReference.
type DocumentSubmission struct {
	ID               uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	VerificationID   uuid.UUID    `gorm:"not null;type:VARCHAR(255);index:documents_verification_idx" json:"verificationId"`
	Type             DocumentType `gorm:"not null;type:VARCHAR(100)" json:"type"`
	Name             string       `gorm:"not null" json:"name"`
	StorageReference string       `gorm:"not null" json:"storageReference"`
	Size             int64        `json:"size"`
	UploadedAt       time.Time    `gorm:"not null" json:"uploadedAt"`
	Verified         bool         `gorm:"not null;default:false" json:"verified"`
	VerifiedAt       *time.Time   `json:"verifiedAt,omitempty"`
}

type DocumentList []DocumentSubmission

// LatestByType keeps the most recent submission of every document type.
func (l DocumentList) LatestByType() map[DocumentType]DocumentSubmission {
	latest := make(map[DocumentType]DocumentSubmission, len(l))
	for _, d := range l {
		if prev, ok := latest[d.Type]; ok && prev.UploadedAt.After(d.UploadedAt) {
			continue
		}
		latest[d.Type] = d
	}
	return latest
}
