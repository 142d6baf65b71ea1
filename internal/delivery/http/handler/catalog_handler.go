package handler

import (
	"errors"
	"net/http"

	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// CatalogHandler serves the public doctor and slot listings.
type CatalogHandler struct {
	catalogUsecase usecase.CatalogUsecase
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{
		catalogUsecase: catalogUsecase,
	}
}

func (h *CatalogHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, info, err := h.catalogUsecase.ListDoctors(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrTransientStore) {
			response.ServiceUnavailable(w, "Failed to load doctors, please try again")
			return
		}
		response.InternalServerError(w, "Failed to get doctors")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Doctors retrieved successfully", doctors, cacheMeta(doctors.Total, info))
}

func (h *CatalogHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	doctor, info, err := h.catalogUsecase.GetDoctor(r.Context(), doctorID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		case errors.Is(err, usecase.ErrTransientStore):
			response.ServiceUnavailable(w, "Failed to load doctor, please try again")
		default:
			response.InternalServerError(w, "Failed to get doctor")
		}
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Doctor retrieved successfully", doctor, cacheMeta(1, info))
}

// ListAvailableSlots expects ?date=YYYY-MM-DD.
func (h *CatalogHandler) ListAvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	slots, info, err := h.catalogUsecase.ListAvailableSlots(r.Context(), doctorID, r.URL.Query().Get("date"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidDate):
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, usecase.ErrTransientStore):
			response.ServiceUnavailable(w, "Failed to load time slots, please try again")
		default:
			response.InternalServerError(w, "Failed to get time slots")
		}
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Time slots retrieved successfully", slots, cacheMeta(slots.Total, info))
}

func cacheMeta(total int, info usecase.CacheInfo) *response.Meta {
	return &response.Meta{
		Total:     total,
		FromCache: info.FromCache,
		Stale:     info.Stale,
	}
}
