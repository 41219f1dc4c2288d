package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Message is an append-only chat record tied to a job. Rows are never
// updated or deleted.
type Message struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID    uuid.UUID `gorm:"type:uuid;index;not null" json:"job_id"`
	SenderID uuid.UUID `gorm:"type:uuid;index;not null" json:"sender_id"`

	Text         string         `gorm:"type:text" json:"text"`
	Attachments  datatypes.JSON `json:"attachments"`
	VoiceNoteURL string         `gorm:"type:text" json:"voice_note_url"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
