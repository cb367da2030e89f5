package models

import (
	"time"

	"github.com/lib/pq"
)

// User is a durable identity record keyed by email. It is created or
// refreshed at sign-in time and never deleted by this service.
type User struct {
	Email              string         `gorm:"primaryKey;size:255" json:"email"`
	Name               string         `gorm:"size:255" json:"name"`
	DietaryPreferences pq.StringArray `gorm:"type:text[]" json:"dietary_preferences"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Event is a free food listing tied to a campus location. ID, CreatedBy and
// CreatedAt are fixed at creation; everything else is mutable by the owner.
type Event struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Description   string    `json:"description"`
	Location      string    `gorm:"size:255;not null" json:"location"`
	BuildingIndex string    `gorm:"size:64;not null" json:"building_index"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Status        string    `gorm:"size:32" json:"status"`
	CreatedBy     string    `gorm:"size:255;index;not null" json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsOwner reports whether identity may mutate a record created by createdBy.
// An empty identity never owns anything.
func IsOwner(createdBy, identity string) bool {
	return identity != "" && createdBy == identity
}
