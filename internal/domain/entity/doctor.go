package entity

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a bookable practitioner shown in the public catalog
type Doctor struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FirstName         string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName          string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Email             string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone             string    `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Specialty         string    `gorm:"type:varchar(100);index" json:"specialty,omitempty"`
	Description       string    `gorm:"type:text" json:"description,omitempty"`
	ProfilePictureURL string    `gorm:"type:text" json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	TimeSlots []TimeSlot `gorm:"foreignKey:DoctorID" json:"time_slots,omitempty"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// DisplayName renders the doctor the way patients and admins see it, e.g. "Dr. Ada Lovelace"
func (d *Doctor) DisplayName() string {
	return "Dr. " + d.FirstName + " " + d.LastName
}
