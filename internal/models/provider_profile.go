package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ProviderProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	// Category ids served, stored as a JSON array of uuids
	Categories datatypes.JSON `json:"categories"`

	ServiceRadiusKm float64 `gorm:"default:10" json:"service_radius_km"`
	Online          bool    `gorm:"default:false" json:"online"`

	// Decimal strings, same shape the jobs table uses
	Lat string `gorm:"type:varchar(30)" json:"lat"`
	Lng string `gorm:"type:varchar(30)" json:"lng"`

	RatingAvg     float64 `gorm:"default:0" json:"rating_avg"`
	RatingCount   int     `gorm:"default:0" json:"rating_count"`
	CompletedJobs int     `gorm:"default:0" json:"completed_jobs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
