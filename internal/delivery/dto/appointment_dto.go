package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	TimeSlotID       uuid.UUID `json:"time_slot_id" validate:"required"`
	PatientFirstName string    `json:"patient_first_name" validate:"required,max=100"`
	PatientLastName  string    `json:"patient_last_name" validate:"required,max=100"`
	PatientEmail     string    `json:"patient_email" validate:"required,email,max=255"`
	PatientPhone     string    `json:"patient_phone" validate:"required,max=30"`
	EducationLevel   string    `json:"education_level" validate:"omitempty,max=100"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// Response DTOs

// AppointmentConfirmationResponse is returned to the patient after booking.
// Confirmed is false when the appointment was written but could not be read
// back, in which case AppointmentID is nil.
type AppointmentConfirmationResponse struct {
	AppointmentID *uuid.UUID        `json:"appointment_id"`
	Confirmed     bool              `json:"confirmed"`
	Status        string            `json:"status"`
	Doctor        *DoctorResponse   `json:"doctor,omitempty"`
	TimeSlot      *TimeSlotResponse `json:"time_slot"`
	PatientName   string            `json:"patient_name"`
	PatientEmail  string            `json:"patient_email"`
}

type AppointmentResponse struct {
	ID               uuid.UUID         `json:"id"`
	DoctorID         uuid.UUID         `json:"doctor_id"`
	TimeSlotID       uuid.UUID         `json:"time_slot_id"`
	PatientFirstName string            `json:"patient_first_name"`
	PatientLastName  string            `json:"patient_last_name"`
	PatientEmail     string            `json:"patient_email"`
	PatientPhone     string            `json:"patient_phone"`
	EducationLevel   string            `json:"education_level,omitempty"`
	Status           string            `json:"status"`
	Doctor           *DoctorResponse   `json:"doctor,omitempty"`
	TimeSlot         *TimeSlotResponse `json:"time_slot,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
