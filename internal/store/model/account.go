package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AccountKind string

const (
	AccountKindOrganization AccountKind = "organization"
	AccountKindIndividual   AccountKind = "individual"
)

func (k AccountKind) Valid() bool {
	return k == AccountKindOrganization || k == AccountKindIndividual
}

// Account is either an organization (employer) or an individual (candidate).
// Kind-specific profile fields live outside the engine.
type Account struct {
	ID           uuid.UUID           `gorm:"primaryKey;column:id;type:VARCHAR(255);" json:"id"`
	CreatedAt    time.Time           `gorm:"not null" json:"createdAt"`
	Kind         AccountKind         `gorm:"not null;type:VARCHAR(50);index:accounts_kind_idx" json:"kind"`
	DisplayName  string              `gorm:"not null" json:"displayName"`
	Email        string              `gorm:"not null;uniqueIndex:accounts_email_idx" json:"email"`
	Verification *VerificationRecord `gorm:"foreignKey:AccountID;references:ID;constraint:OnDelete:CASCADE;" json:"verification,omitempty"`
}

type AccountList []Account

func (a Account) String() string {
	val, _ := json.Marshal(a)
	return string(val)
}
