package models

import (
	"time"

	"github.com/google/uuid"
)

// EarningsEntry is the provider's income ledger. One row is written when
// a job with an agreed price reaches completed.
type EarningsEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProviderID  uuid.UUID `gorm:"type:uuid;index;not null" json:"provider_id"`
	JobID       uuid.UUID `gorm:"type:uuid;index" json:"job_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	Provider *User `gorm:"foreignKey:ProviderID" json:"-"`
}
