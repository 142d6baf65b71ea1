package repository

import (
	"context"
	"time"

	"clinic-booking/internal/domain/entity"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error)
	FindAll(ctx context.Context, filter entity.AppointmentFilter) ([]entity.Appointment, error)
	// TransitionStatus moves the appointment to next only while its status is
	// one of from, and reports rows affected.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.AppointmentStatus, next entity.AppointmentStatus) (int64, error)
	// CancelAndRelease cancels an active appointment and, in the same
	// transaction, reopens its slot unless another active appointment still
	// holds it. Zero rows means it was already cancelled or missing.
	CancelAndRelease(ctx context.Context, id uuid.UUID) (int64, error)
	// DeleteAndRelease deletes the appointment and, if it was active, reopens
	// its slot under the same rule as CancelAndRelease.
	DeleteAndRelease(ctx context.Context, id uuid.UUID) (int64, error)
	CountActiveBySlot(ctx context.Context, slotID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) (map[entity.AppointmentStatus]int64, error)
	// FindOrphanedPending lists pending appointments created before cutoff
	// whose slot is still marked available.
	FindOrphanedPending(ctx context.Context, cutoff time.Time) ([]entity.Appointment, error)
	FindOverbookedSlots(ctx context.Context) ([]entity.SlotOccupancy, error)
}
