package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationApplied         ApplicationStatus = "applied"
	ApplicationReviewed        ApplicationStatus = "reviewed"
	ApplicationShortlisted     ApplicationStatus = "shortlisted"
	ApplicationInterviewCalled ApplicationStatus = "interview_called"
	ApplicationSelected        ApplicationStatus = "selected"
	ApplicationOffered         ApplicationStatus = "offered"
	ApplicationAccepted        ApplicationStatus = "accepted"
	ApplicationRejected        ApplicationStatus = "rejected"
)

// ApplicationStatuses lists the pipeline in stage order; rejected is last.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationApplied,
	ApplicationReviewed,
	ApplicationShortlisted,
	ApplicationInterviewCalled,
	ApplicationSelected,
	ApplicationOffered,
	ApplicationAccepted,
	ApplicationRejected,
}

var applicationStages = map[ApplicationStatus]int{
	ApplicationApplied:         0,
	ApplicationReviewed:        1,
	ApplicationShortlisted:     2,
	ApplicationInterviewCalled: 3,
	ApplicationSelected:        4,
	ApplicationOffered:         5,
	ApplicationAccepted:        6,
}

// Stage returns the pipeline position of s. Rejected has no stage and returns -1.
func (s ApplicationStatus) Stage() int {
	if stage, ok := applicationStages[s]; ok {
		return stage
	}
	return -1
}

func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}

func (s ApplicationStatus) Valid() bool {
	return s == ApplicationRejected || s.Stage() >= 0
}

// ApplicationRecord is the permanent record of one candidacy. It is never deleted.
type ApplicationRecord struct {
	ID             uuid.UUID         `gorm:"primaryKey;column:id;type:VARCHAR(255);" json:"id"`
	CreatedAt      time.Time         `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	JobPostingID   uuid.UUID         `gorm:"not null;type:VARCHAR(255);uniqueIndex:applications_posting_account_idx" json:"jobPostingId"`
	AccountID      uuid.UUID         `gorm:"not null;type:VARCHAR(255);uniqueIndex:applications_posting_account_idx;index:applications_account_idx" json:"accountId"`
	OrganizationID uuid.UUID         `gorm:"not null;type:VARCHAR(255);index:applications_organization_idx" json:"organizationId"`
	Status         ApplicationStatus `gorm:"not null;type:VARCHAR(50);index:applications_status_idx" json:"status"`
	ShortlistFlag  bool              `gorm:"not null;default:false" json:"shortlistFlag"`
	Priority       Priority          `gorm:"not null;type:VARCHAR(20)" json:"priority"`
	PrioritySetAt  *time.Time        `json:"prioritySetAt,omitempty"`
	AppliedAt      time.Time         `gorm:"not null" json:"appliedAt"`
	ShortlistedAt  *time.Time        `json:"shortlistedAt,omitempty"`
	ResolvedAt     *time.Time        `json:"resolvedAt,omitempty"`
	Version        int               `gorm:"not null;default:1" json:"version"`
	Notes          NoteList          `gorm:"polymorphic:Record;polymorphicValue:application" json:"notes,omitempty"`
}

type ApplicationList []ApplicationRecord

// OnShortlist is the derived shortlist membership of the application.
func (a ApplicationRecord) OnShortlist() bool {
	switch a.Status {
	case ApplicationShortlisted, ApplicationInterviewCalled, ApplicationSelected, ApplicationOffered, ApplicationAccepted:
		return true
	}
	return a.ShortlistFlag
}

func (a ApplicationRecord) String() string {
	val, _ := json.Marshal(a)
	return string(val)
}
