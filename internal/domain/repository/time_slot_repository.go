package repository

import (
	"context"

	"clinic-booking/internal/domain/entity"

	"github.com/google/uuid"
)

type TimeSlotRepository interface {
	Create(ctx context.Context, slot *entity.TimeSlot) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.TimeSlot, error)
	// FindAvailableByID returns nil, nil when the slot is missing or taken.
	FindAvailableByID(ctx context.Context, id uuid.UUID) (*entity.TimeSlot, error)
	FindAvailableByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date, today string) ([]entity.TimeSlot, error)
	FindByDoctorID(ctx context.Context, doctorID uuid.UUID) ([]entity.TimeSlot, error)
	// Claim flips is_available from true to false and reports rows affected.
	// Zero rows means another booking got there first.
	Claim(ctx context.Context, id uuid.UUID) (int64, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	CountAvailable(ctx context.Context, today string) (int64, error)
}
