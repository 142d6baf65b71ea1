package handler

import (
	"net/http"

	"clinic-booking/internal/delivery/http/middleware"
	"clinic-booking/internal/usecase"
	"clinic-booking/pkg/response"
)

type DashboardHandler struct {
	dashboardUsecase usecase.DashboardUsecase
	reconcileUsecase usecase.ReconcileUsecase
}

func NewDashboardHandler(dashboardUsecase usecase.DashboardUsecase, reconcileUsecase usecase.ReconcileUsecase) *DashboardHandler {
	return &DashboardHandler{
		dashboardUsecase: dashboardUsecase,
		reconcileUsecase: reconcileUsecase,
	}
}

func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboardUsecase.GetDashboard(r.Context())
	if err != nil {
		writeStoreError(w, err, "Failed to get dashboard")
		return
	}

	response.Success(w, http.StatusOK, "Dashboard retrieved successfully", dashboard)
}

func (h *DashboardHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardUsecase.GetCacheStats(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get cache stats")
		return
	}

	response.Success(w, http.StatusOK, "Cache stats retrieved successfully", stats)
}

func (h *DashboardHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.dashboardUsecase.ClearCache(r.Context())
	response.Success(w, http.StatusOK, "Cache cleared successfully", nil)
}

// Reconcile runs the orphan sweep on demand.
func (h *DashboardHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcileUsecase.Sweep(r.Context(), middleware.AdminIDPtr(r.Context()))
	if err != nil {
		writeStoreError(w, err, "Failed to reconcile appointments")
		return
	}

	response.Success(w, http.StatusOK, "Reconciliation finished", report)
}
