package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(120);uniqueIndex;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Icon        string     `gorm:"type:varchar(80)" json:"icon"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Parent *Category `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
}
