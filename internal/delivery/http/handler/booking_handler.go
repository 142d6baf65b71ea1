package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
	}
}

// BookAppointment handles a patient booking a time slot
// @Summary Book an appointment
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.BookAppointmentRequest true "Booking Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /appointments [post]
func (h *BookingHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var req dto.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	// Validation happens in the usecase so no store call is made for bad input.
	confirmation, err := h.bookingUsecase.BookAppointment(r.Context(), &req)
	if err != nil {
		var infoErr *usecase.PatientInfoError
		switch {
		case errors.As(err, &infoErr):
			response.ValidationError(w, infoErr.Fields)
		case errors.Is(err, usecase.ErrSlotNoLongerAvailable):
			response.Conflict(w, err.Error())
		case errors.Is(err, usecase.ErrDuplicateAppointment):
			response.Conflict(w, err.Error())
		case errors.Is(err, usecase.ErrInvalidReference):
			response.Error(w, http.StatusUnprocessableEntity, err.Error(), nil)
		case errors.Is(err, usecase.ErrTransientStore):
			response.ServiceUnavailable(w, err.Error())
		default:
			response.InternalServerError(w, "Failed to book appointment")
		}
		return
	}

	message := "Appointment booked successfully"
	if !confirmation.Confirmed {
		message = "Appointment submitted, confirmation will follow by email"
	}
	response.Success(w, http.StatusCreated, message, confirmation)
}
