package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// IsValid reports whether s is one of the known statuses
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes pending -> confirmed -> cancelled, with
// pending -> cancelled allowed and cancelled terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusPending:
		return next == AppointmentStatusConfirmed || next == AppointmentStatusCancelled
	case AppointmentStatusConfirmed:
		return next == AppointmentStatusCancelled
	}
	return false
}

// Appointment is a patient's booking of one time slot
type Appointment struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	TimeSlotID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"time_slot_id"`
	PatientFirstName string            `gorm:"type:varchar(100);not null" json:"patient_first_name"`
	PatientLastName  string            `gorm:"type:varchar(100);not null" json:"patient_last_name"`
	PatientEmail     string            `gorm:"type:varchar(255);not null" json:"patient_email"`
	PatientPhone     string            `gorm:"type:varchar(30);not null" json:"patient_phone"`
	EducationLevel   string            `gorm:"type:varchar(100)" json:"education_level,omitempty"`
	Status           AppointmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt        time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor   *Doctor   `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	TimeSlot *TimeSlot `gorm:"foreignKey:TimeSlotID" json:"time_slot,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsPending checks if appointment is in pending status
func (a *Appointment) IsPending() bool {
	return a.Status == AppointmentStatusPending
}

// IsActive reports whether the appointment still holds its slot
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentStatusCancelled
}

// PatientName returns "first last"
func (a *Appointment) PatientName() string {
	return a.PatientFirstName + " " + a.PatientLastName
}

// AppointmentFilter narrows admin appointment listings.
// Used by repository layer to avoid coupling with delivery DTOs.
type AppointmentFilter struct {
	Status   AppointmentStatus // empty means all
	DoctorID *uuid.UUID
}

// SlotOccupancy reports a slot referenced by more than one active appointment
type SlotOccupancy struct {
	TimeSlotID         uuid.UUID `json:"time_slot_id"`
	ActiveAppointments int64     `json:"active_appointments"`
}
