package model

import (
	"time"

	"github.com/google/uuid"
)

// JobPosting is owned by the posting module; the engine reads id, title and deadline.
type JobPosting struct {
	ID             uuid.UUID  `gorm:"primaryKey;column:id;type:VARCHAR(255);" json:"id"`
	CreatedAt      time.Time  `gorm:"not null" json:"createdAt"`
	OrganizationID uuid.UUID  `gorm:"not null;type:VARCHAR(255);index:job_postings_organization_idx" json:"organizationId"`
	Title          string     `gorm:"not null" json:"title"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

// Open reports whether applications are still accepted at t.
func (p JobPosting) Open(t time.Time) bool {
	return p.Deadline == nil || !t.After(*p.Deadline)
}
