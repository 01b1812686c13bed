package events

import (
	"time"

	"github.com/google/uuid"
)

// StatusChanged is the body of every status notification.
type StatusChanged struct {
	RecordType     string     `json:"record_type"`
	RecordID       uuid.UUID  `json:"record_id"`
	AccountID      uuid.UUID  `json:"account_id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Action         string     `json:"action"`
	OldStatus      string     `json:"old_status"`
	NewStatus      string     `json:"new_status"`
	Reason         string     `json:"reason,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}
