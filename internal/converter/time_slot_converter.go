package converter

import (
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
)

// TimeSlotToResponse converts a TimeSlot entity to TimeSlotResponse DTO
func TimeSlotToResponse(slot *entity.TimeSlot) *dto.TimeSlotResponse {
	if slot == nil {
		return nil
	}

	return &dto.TimeSlotResponse{
		ID:          slot.ID,
		DoctorID:    slot.DoctorID,
		Date:        slot.DateString(),
		StartTime:   ClockTime(slot.StartTime),
		EndTime:     ClockTime(slot.EndTime),
		IsAvailable: slot.IsAvailable,
	}
}

// TimeSlotsToResponses converts a slice of TimeSlot entities to slice of TimeSlotResponse DTOs
func TimeSlotsToResponses(slots []entity.TimeSlot) []dto.TimeSlotResponse {
	responses := make([]dto.TimeSlotResponse, len(slots))
	for i := range slots {
		responses[i] = *TimeSlotToResponse(&slots[i])
	}
	return responses
}

// ClockTime trims a postgres time value ("09:30:00") to HH:MM.
func ClockTime(value string) string {
	if len(value) > 5 {
		return value[:5]
	}
	return value
}
