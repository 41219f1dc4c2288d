package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating is a 1-5 score left by the requester for the provider of a
// completed job. (job_id, from_user_id) is deliberately not unique.
type Rating struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID      uuid.UUID `gorm:"type:uuid;index" json:"job_id"`
	FromUserID uuid.UUID `gorm:"type:uuid;index" json:"from_user_id"`
	ToUserID   uuid.UUID `gorm:"type:uuid;index" json:"to_user_id"`

	Score   int    `gorm:"not null;check:score >= 1 AND score <= 5" json:"score"`
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`

	FromUser *User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   *User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
