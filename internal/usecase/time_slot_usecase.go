package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-booking/internal/converter"
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/internal/service"
	"clinic-booking/pkg/cache"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrTimeSlotNotFound  = errors.New("time slot not found")
	ErrInvalidTimeRange  = errors.New("end time must be after start time")
	ErrSlotInPast        = errors.New("cannot create a time slot in the past")
	ErrSlotInUse         = errors.New("time slot has an active appointment")
	ErrDuplicateTimeSlot = errors.New("time slot already exists for this doctor")
	ErrInvalidTimeOfDay  = errors.New("invalid time format, use HH:MM")
)

type TimeSlotUsecase interface {
	CreateTimeSlot(ctx context.Context, adminID *uuid.UUID, req *dto.CreateTimeSlotRequest) (*dto.TimeSlotResponse, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.TimeSlotListResponse, error)
	SetAvailability(ctx context.Context, adminID *uuid.UUID, id uuid.UUID, available bool) (*dto.TimeSlotResponse, error)
	DeleteTimeSlot(ctx context.Context, adminID *uuid.UUID, id uuid.UUID) error
}

type timeSlotUsecase struct {
	log             *logrus.Logger
	slotRepo        repository.TimeSlotRepository
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
	cache           *cache.Cache
	now             func() time.Time
}

func NewTimeSlotUsecase(
	log *logrus.Logger,
	slotRepo repository.TimeSlotRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	cache *cache.Cache,
) TimeSlotUsecase {
	return &timeSlotUsecase{
		log:             log,
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
		cache:           cache,
		now:             time.Now,
	}
}

func (u *timeSlotUsecase) CreateTimeSlot(ctx context.Context, adminID *uuid.UUID, req *dto.CreateTimeSlotRequest) (*dto.TimeSlotResponse, error) {
	date, err := time.Parse(entity.DateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	start, err := time.Parse(entity.TimeLayout, req.StartTime)
	if err != nil {
		return nil, ErrInvalidTimeOfDay
	}
	end, err := time.Parse(entity.TimeLayout, req.EndTime)
	if err != nil {
		return nil, ErrInvalidTimeOfDay
	}
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}
	if req.Date < u.now().Format(entity.DateLayout) {
		return nil, ErrSlotInPast
	}

	slot := &entity.TimeSlot{
		DoctorID:    req.DoctorID,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: true,
	}

	if err := u.slotRepo.Create(ctx, slot); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			return nil, ErrDoctorNotFound
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, ErrDuplicateTimeSlot
		}
		u.log.Warnf("Failed to create time slot: %+v", err)
		return nil, transient(err)
	}

	u.cache.Clear(ctx, slotsKey(slot.DoctorID, req.Date))
	if err := u.auditService.LogCreate(ctx, adminID, entity.AuditActionSlotCreate, "time_slot", slot.ID.String(), converter.TimeSlotToResponse(slot)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.TimeSlotToResponse(slot), nil
}

func (u *timeSlotUsecase) ListByDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.TimeSlotListResponse, error) {
	slots, err := u.slotRepo.FindByDoctorID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find time slots: %+v", err)
		return nil, transient(err)
	}

	return &dto.TimeSlotListResponse{
		TimeSlots: converter.TimeSlotsToResponses(slots),
		Total:     len(slots),
	}, nil
}

// SetAvailability toggles a slot. Re-opening is refused while an active
// appointment still holds the slot.
func (u *timeSlotUsecase) SetAvailability(ctx context.Context, adminID *uuid.UUID, id uuid.UUID, available bool) (*dto.TimeSlotResponse, error) {
	slot, err := u.findSlot(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot.IsAvailable == available {
		return converter.TimeSlotToResponse(slot), nil
	}

	if available {
		active, err := u.appointmentRepo.CountActiveBySlot(ctx, id)
		if err != nil {
			u.log.Warnf("Failed to count active appointments: %+v", err)
			return nil, transient(err)
		}
		if active > 0 {
			return nil, ErrSlotInUse
		}
	}

	affected, err := u.slotRepo.SetAvailability(ctx, id, available)
	if err != nil {
		u.log.Warnf("Failed to set slot availability: %+v", err)
		return nil, transient(err)
	}
	if affected == 0 {
		return nil, ErrTimeSlotNotFound
	}
	slot.IsAvailable = available

	u.cache.Clear(ctx, slotsKey(slot.DoctorID, slot.DateString()))
	if err := u.auditService.LogUpdate(ctx, adminID, entity.AuditActionSlotToggle, "time_slot", id.String(),
		map[string]bool{"is_available": !available}, map[string]bool{"is_available": available}); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.TimeSlotToResponse(slot), nil
}

func (u *timeSlotUsecase) DeleteTimeSlot(ctx context.Context, adminID *uuid.UUID, id uuid.UUID) error {
	slot, err := u.findSlot(ctx, id)
	if err != nil {
		return err
	}

	active, err := u.appointmentRepo.CountActiveBySlot(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to count active appointments: %+v", err)
		return transient(err)
	}
	if active > 0 {
		return ErrSlotInUse
	}

	affected, err := u.slotRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return ErrSlotInUse
		}
		u.log.Warnf("Failed to delete time slot: %+v", err)
		return transient(err)
	}
	if affected == 0 {
		return ErrTimeSlotNotFound
	}

	u.cache.Clear(ctx, slotsKey(slot.DoctorID, slot.DateString()))
	if err := u.auditService.LogDelete(ctx, adminID, entity.AuditActionSlotDelete, "time_slot", id.String(), converter.TimeSlotToResponse(slot)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return nil
}

func (u *timeSlotUsecase) findSlot(ctx context.Context, id uuid.UUID) (*entity.TimeSlot, error) {
	slot, err := u.slotRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find time slot: %+v", err)
		return nil, transient(err)
	}
	if slot == nil {
		return nil, ErrTimeSlotNotFound
	}
	return slot, nil
}
