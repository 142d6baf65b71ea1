package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateDoctorRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"omitempty,max=30"`
	Specialty   string `json:"specialty" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"omitempty"`
}

type UpdateDoctorRequest struct {
	FirstName   string  `json:"first_name" validate:"omitempty,max=100"`
	LastName    string  `json:"last_name" validate:"omitempty,max=100"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	Specialty   *string `json:"specialty" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty"`
}

// Response DTOs

type DoctorResponse struct {
	ID                uuid.UUID `json:"id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	DisplayName       string    `json:"display_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	Specialty         string    `json:"specialty,omitempty"`
	Description       string    `json:"description,omitempty"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
