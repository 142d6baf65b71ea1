package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinic-booking/internal/converter"
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/internal/service"
	"clinic-booking/pkg/cache"
	"clinic-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidPatientInfo    = errors.New("invalid patient information")
	ErrSlotNoLongerAvailable = errors.New("this time slot is no longer available, please select another one")
	ErrDuplicateAppointment  = errors.New("an appointment for this time slot already exists")
	ErrInvalidReference      = errors.New("the selected doctor or time slot no longer exists")
	ErrTransientStore        = errors.New("service temporarily unavailable, please try again")
)

// Booking outcomes reported to BookingObserver.
const (
	BookingOutcomeConfirmed        = "confirmed"
	BookingOutcomeUnconfirmed      = "unconfirmed"
	BookingOutcomeInvalidInput     = "invalid_input"
	BookingOutcomeSlotUnavailable  = "slot_unavailable"
	BookingOutcomeDuplicate        = "duplicate"
	BookingOutcomeInvalidReference = "invalid_reference"
	BookingOutcomeStoreUnavailable = "store_unavailable"
	BookingOutcomeError            = "error"
)

const compensationTimeout = 5 * time.Second

// PatientInfoError lists the offending fields of a rejected booking request.
type PatientInfoError struct {
	Fields map[string]string
}

func (e *PatientInfoError) Error() string {
	return ErrInvalidPatientInfo.Error()
}

func (e *PatientInfoError) Unwrap() error {
	return ErrInvalidPatientInfo
}

type BookingObserver interface {
	ObserveBooking(outcome string)
}

type BookingUsecase interface {
	BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentConfirmationResponse, error)
}

type bookingUsecase struct {
	log             *logrus.Logger
	validator       *validator.CustomValidator
	slotRepo        repository.TimeSlotRepository
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	dispatcher      service.NotificationDispatcher
	cache           *cache.Cache
	observer        BookingObserver
}

func NewBookingUsecase(
	log *logrus.Logger,
	validator *validator.CustomValidator,
	slotRepo repository.TimeSlotRepository,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	dispatcher service.NotificationDispatcher,
	cache *cache.Cache,
	observer BookingObserver,
) BookingUsecase {
	return &bookingUsecase{
		log:             log,
		validator:       validator,
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		dispatcher:      dispatcher,
		cache:           cache,
		observer:        observer,
	}
}

// BookAppointment turns a patient's slot selection into a pending appointment
// and a claimed slot.
//
// Flow:
// 1. Validate patient info (no store call on failure)
// 2. Re-check the slot is still available
// 3. Insert the appointment as pending
// 4. Claim the slot with a conditional update (the only double-booking guard)
// 5. Hand the notification off without waiting for it
//
// If the claim fails after the insert, the pending appointment is cancelled
// so it does not point at a slot it never got.
func (u *bookingUsecase) BookAppointment(ctx context.Context, req *dto.BookAppointmentRequest) (*dto.AppointmentConfirmationResponse, error) {
	// Step 1: Validate patient info
	normalizeBookingRequest(req)
	if err := u.validator.Validate(req); err != nil {
		u.observe(BookingOutcomeInvalidInput)
		return nil, &PatientInfoError{Fields: u.validator.FormatValidationErrors(err)}
	}

	logger := u.log.WithField("time_slot_id", req.TimeSlotID)

	// Step 2: Re-check availability
	slot, err := u.slotRepo.FindAvailableByID(ctx, req.TimeSlotID)
	if err != nil {
		logger.Warnf("Failed to re-check slot availability: %+v", err)
		return nil, u.storeFailure(err)
	}
	if slot == nil {
		u.observe(BookingOutcomeSlotUnavailable)
		return nil, ErrSlotNoLongerAvailable
	}

	// Step 3: Insert pending appointment
	appointment := &entity.Appointment{
		DoctorID:         slot.DoctorID,
		TimeSlotID:       slot.ID,
		PatientFirstName: req.PatientFirstName,
		PatientLastName:  req.PatientLastName,
		PatientEmail:     req.PatientEmail,
		PatientPhone:     req.PatientPhone,
		EducationLevel:   req.EducationLevel,
		Status:           entity.AppointmentStatusPending,
	}

	idKnown := true
	if err := u.appointmentRepo.Create(ctx, appointment); err != nil {
		switch {
		case errors.Is(err, repository.ErrPermissionDenied):
			// The row may exist but cannot be read back under row-level security.
			logger.Warnf("Appointment could not be read back, continuing without id: %+v", err)
			idKnown = false
			appointment.ID = uuid.Nil
		case errors.Is(err, repository.ErrDuplicateKey):
			u.observe(BookingOutcomeDuplicate)
			return nil, ErrDuplicateAppointment
		case errors.Is(err, repository.ErrForeignKey):
			u.observe(BookingOutcomeInvalidReference)
			return nil, ErrInvalidReference
		default:
			logger.Warnf("Failed to create appointment: %+v", err)
			return nil, u.storeFailure(err)
		}
	}
	logger = logger.WithField("appointment_id", appointment.ID)

	// Step 4: Claim the slot
	affected, err := u.slotRepo.Claim(ctx, slot.ID)
	if err != nil || affected == 0 {
		if idKnown {
			u.compensate(ctx, appointment.ID, logger)
		}
		if err != nil {
			logger.Warnf("Failed to claim slot: %+v", err)
			return nil, u.storeFailure(err)
		}
		logger.Info("Slot claimed by a concurrent booking")
		u.observe(BookingOutcomeSlotUnavailable)
		return nil, ErrSlotNoLongerAvailable
	}
	slot.IsAvailable = false

	u.cache.Clear(ctx, slotsKey(slot.DoctorID, slot.DateString()))

	// Step 5: Notify admins (fire-and-forget)
	doctor, err := u.doctorRepo.FindByID(ctx, slot.DoctorID)
	if err != nil {
		logger.Warnf("Failed to load doctor for notification: %+v", err)
	}
	if err := u.dispatcher.Dispatch(ctx, buildNotificationPayload(appointment, idKnown, doctor, slot)); err != nil {
		logger.Warnf("Failed to dispatch admin notification: %+v", err)
	}

	confirmation := &dto.AppointmentConfirmationResponse{
		Confirmed:    idKnown,
		Status:       string(entity.AppointmentStatusPending),
		Doctor:       converter.DoctorToResponse(doctor),
		TimeSlot:     converter.TimeSlotToResponse(slot),
		PatientName:  appointment.PatientName(),
		PatientEmail: appointment.PatientEmail,
	}
	if idKnown {
		id := appointment.ID
		confirmation.AppointmentID = &id
		u.observe(BookingOutcomeConfirmed)
	} else {
		u.observe(BookingOutcomeUnconfirmed)
	}

	logger.Info("Appointment booked")
	return confirmation, nil
}

// compensate cancels a pending appointment whose slot claim failed. It runs
// on its own deadline so a cancelled request still cleans up.
func (u *bookingUsecase) compensate(ctx context.Context, appointmentID uuid.UUID, logger *logrus.Entry) {
	compCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	affected, err := u.appointmentRepo.TransitionStatus(compCtx, appointmentID,
		[]entity.AppointmentStatus{entity.AppointmentStatusPending}, entity.AppointmentStatusCancelled)
	if err != nil {
		logger.Errorf("CRITICAL: Failed to cancel pending appointment after lost claim: %+v", err)
		return
	}
	if affected == 0 {
		logger.Warn("Pending appointment was not cancelled after lost claim, status already changed")
	}
}

func (u *bookingUsecase) storeFailure(err error) error {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		u.observe(BookingOutcomeStoreUnavailable)
		return ErrTransientStore
	}
	u.observe(BookingOutcomeError)
	return err
}

func (u *bookingUsecase) observe(outcome string) {
	if u.observer != nil {
		u.observer.ObserveBooking(outcome)
	}
}

func normalizeBookingRequest(req *dto.BookAppointmentRequest) {
	req.PatientFirstName = strings.TrimSpace(req.PatientFirstName)
	req.PatientLastName = strings.TrimSpace(req.PatientLastName)
	req.PatientEmail = strings.TrimSpace(req.PatientEmail)
	req.PatientPhone = strings.TrimSpace(req.PatientPhone)
	req.EducationLevel = strings.TrimSpace(req.EducationLevel)
}

func buildNotificationPayload(appointment *entity.Appointment, idKnown bool, doctor *entity.Doctor, slot *entity.TimeSlot) service.NotificationPayload {
	payload := service.NotificationPayload{
		AppointmentID:    service.PlaceholderAppointmentID,
		PatientFirstName: appointment.PatientFirstName,
		PatientLastName:  appointment.PatientLastName,
		PatientEmail:     appointment.PatientEmail,
		PatientPhone:     appointment.PatientPhone,
		EducationLevel:   appointment.EducationLevel,
		DoctorID:         slot.DoctorID.String(),
		Date:             slot.DateString(),
		StartTime:        converter.ClockTime(slot.StartTime),
		EndTime:          converter.ClockTime(slot.EndTime),
	}
	if idKnown {
		payload.AppointmentID = appointment.ID.String()
	}
	if doctor != nil {
		payload.DoctorFirstName = doctor.FirstName
		payload.DoctorLastName = doctor.LastName
		payload.DoctorSpecialty = doctor.Specialty
	}
	return payload
}
