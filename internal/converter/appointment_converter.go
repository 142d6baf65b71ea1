package converter

import (
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID:               appointment.ID,
		DoctorID:         appointment.DoctorID,
		TimeSlotID:       appointment.TimeSlotID,
		PatientFirstName: appointment.PatientFirstName,
		PatientLastName:  appointment.PatientLastName,
		PatientEmail:     appointment.PatientEmail,
		PatientPhone:     appointment.PatientPhone,
		EducationLevel:   appointment.EducationLevel,
		Status:           string(appointment.Status),
		Doctor:           DoctorToResponse(appointment.Doctor),
		TimeSlot:         TimeSlotToResponse(appointment.TimeSlot),
		CreatedAt:        appointment.CreatedAt,
		UpdatedAt:        appointment.UpdatedAt,
	}
}

// AppointmentsToResponses converts a slice of Appointment entities to slice of AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
