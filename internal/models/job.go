package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobStatusOpen      JobStatus = "open"
	JobStatusOffered   JobStatus = "offered" // declared but no transition produces it
	JobStatusAccepted  JobStatus = "accepted"
	JobStatusEnroute   JobStatus = "enroute"
	JobStatusOnsite    JobStatus = "onsite"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyEmergency Urgency = "emergency"
)

// jobTransitions is the single source of truth for status progression:
// strictly forward, one step at a time, with cancellation from any
// non-terminal state.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusOpen:     {JobStatusAccepted, JobStatusCancelled},
	JobStatusOffered:  {JobStatusAccepted, JobStatusCancelled},
	JobStatusAccepted: {JobStatusEnroute, JobStatusCancelled},
	JobStatusEnroute:  {JobStatusOnsite, JobStatusCancelled},
	JobStatusOnsite:   {JobStatusCompleted, JobStatusCancelled},
}

func ValidJobStatus(s JobStatus) bool {
	switch s {
	case JobStatusOpen, JobStatusOffered, JobStatusAccepted, JobStatusEnroute,
		JobStatusOnsite, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// CanTransition reports whether a job may move from its current status to next.
func (s JobStatus) CanTransition(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Job struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RequesterID uuid.UUID  `gorm:"type:uuid;index;not null" json:"requester_id"`
	ProviderID  *uuid.UUID `gorm:"type:uuid;index" json:"provider_id,omitempty"` // null until accepted
	CategoryID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"category_id"`

	Title       string         `gorm:"type:varchar(160);not null" json:"title"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Photos      datatypes.JSON `json:"photos"`

	Lat     string `gorm:"type:varchar(30)" json:"lat"`
	Lng     string `gorm:"type:varchar(30)" json:"lng"`
	Address string `gorm:"type:text" json:"address"`

	Urgency       Urgency    `gorm:"type:varchar(20);default:'normal'" json:"urgency"`
	PreferredTime *time.Time `json:"preferred_time,omitempty"`

	Status      JobStatus `gorm:"type:varchar(20);default:'open';index" json:"status"`
	AgreedPrice *int64    `json:"agreed_price,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Requester *User     `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Provider  *User     `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	Category  *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
