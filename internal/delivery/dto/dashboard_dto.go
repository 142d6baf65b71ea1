package dto

import "github.com/google/uuid"

// Response DTOs

type DashboardResponse struct {
	TotalDoctors          int64 `json:"total_doctors"`
	TotalAppointments     int64 `json:"total_appointments"`
	PendingAppointments   int64 `json:"pending_appointments"`
	ConfirmedAppointments int64 `json:"confirmed_appointments"`
	CancelledAppointments int64 `json:"cancelled_appointments"`
	AvailableSlots        int64 `json:"available_slots"`
}

type CacheStatsResponse struct {
	TotalEntries   int     `json:"total_entries"`
	ValidEntries   int     `json:"valid_entries"`
	ExpiredEntries int     `json:"expired_entries"`
	TotalSize      int     `json:"total_size"`
	TotalSizeKB    float64 `json:"total_size_kb"`
}

type OverbookedSlotResponse struct {
	TimeSlotID         uuid.UUID `json:"time_slot_id"`
	ActiveAppointments int64     `json:"active_appointments"`
}

type ReconcileReportResponse struct {
	OrphansFound     int                      `json:"orphans_found"`
	OrphansCancelled int                      `json:"orphans_cancelled"`
	OverbookedSlots  []OverbookedSlotResponse `json:"overbooked_slots"`
}
