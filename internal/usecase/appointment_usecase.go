package usecase

import (
	"context"
	"errors"

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
	ErrAppointmentNotFound      = errors.New("appointment not found")
	ErrInvalidStatus            = errors.New("invalid appointment status")
	ErrInvalidStatusTransition  = errors.New("appointment status cannot change this way")
	ErrAppointmentStatusChanged = errors.New("appointment status was changed by someone else, reload and try again")
)

type AppointmentUsecase interface {
	ListAppointments(ctx context.Context, status string, doctorID *uuid.UUID) (*dto.AppointmentListResponse, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, adminID *uuid.UUID, id uuid.UUID, status string) (*dto.AppointmentResponse, error)
	DeleteAppointment(ctx context.Context, adminID *uuid.UUID, id uuid.UUID) error
}

type appointmentUsecase struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
	cache           *cache.Cache
}

func NewAppointmentUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	cache *cache.Cache,
) AppointmentUsecase {
	return &appointmentUsecase{
		log:             log,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
		cache:           cache,
	}
}

func (u *appointmentUsecase) ListAppointments(ctx context.Context, status string, doctorID *uuid.UUID) (*dto.AppointmentListResponse, error) {
	filter := entity.AppointmentFilter{DoctorID: doctorID}
	if status != "" {
		filter.Status = entity.AppointmentStatus(status)
		if !filter.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
	}

	appointments, err := u.appointmentRepo.FindAll(ctx, filter)
	if err != nil {
		u.log.Warnf("Failed to find appointments: %+v", err)
		return nil, transient(err)
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment), nil
}

// UpdateStatus moves an appointment along pending -> confirmed -> cancelled.
// Cancelling releases the slot in the same transaction. The write only
// applies if the status is still the one that was read.
func (u *appointmentUsecase) UpdateStatus(ctx context.Context, adminID *uuid.UUID, id uuid.UUID, status string) (*dto.AppointmentResponse, error) {
	next := entity.AppointmentStatus(status)
	if !next.IsValid() {
		return nil, ErrInvalidStatus
	}

	appointment, err := u.findAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	current := appointment.Status
	if current == next {
		return converter.AppointmentToResponse(appointment), nil
	}
	if !current.CanTransitionTo(next) {
		return nil, ErrInvalidStatusTransition
	}

	var affected int64
	if next == entity.AppointmentStatusCancelled {
		affected, err = u.appointmentRepo.CancelAndRelease(ctx, id)
	} else {
		affected, err = u.appointmentRepo.TransitionStatus(ctx, id, []entity.AppointmentStatus{current}, next)
	}
	if err != nil {
		u.log.Warnf("Failed to update appointment status: %+v", err)
		return nil, transient(err)
	}
	if affected == 0 {
		return nil, ErrAppointmentStatusChanged
	}
	appointment.Status = next

	if next == entity.AppointmentStatusCancelled {
		u.invalidateSlot(ctx, appointment)
	}
	if err := u.auditService.LogUpdate(ctx, adminID, entity.AuditActionAppointmentStatus, "appointment", id.String(),
		map[string]string{"status": string(current)}, map[string]string{"status": string(next)}); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.AppointmentToResponse(appointment), nil
}

// DeleteAppointment removes an appointment and, if it was still active,
// reopens its slot.
func (u *appointmentUsecase) DeleteAppointment(ctx context.Context, adminID *uuid.UUID, id uuid.UUID) error {
	appointment, err := u.findAppointment(ctx, id)
	if err != nil {
		return err
	}

	affected, err := u.appointmentRepo.DeleteAndRelease(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to delete appointment: %+v", err)
		return transient(err)
	}
	if affected == 0 {
		return ErrAppointmentNotFound
	}

	u.invalidateSlot(ctx, appointment)
	if err := u.auditService.LogDelete(ctx, adminID, entity.AuditActionAppointmentDelete, "appointment", id.String(),
		converter.AppointmentToResponse(appointment)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return nil
}

func (u *appointmentUsecase) findAppointment(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment: %+v", err)
		return nil, transient(err)
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}

func (u *appointmentUsecase) invalidateSlot(ctx context.Context, appointment *entity.Appointment) {
	if appointment.TimeSlot != nil {
		u.cache.Clear(ctx, slotsKey(appointment.DoctorID, appointment.TimeSlot.DateString()))
		return
	}
	u.cache.ClearPrefix(ctx, slotsPrefix(appointment.DoctorID))
}
