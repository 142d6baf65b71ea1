package usecase

import (
	"context"
	"time"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultGracePeriod = 15 * time.Minute

type ReconcileObserver interface {
	ObserveReconcile(orphansCancelled, overbookedSlots int)
}

// ReconcileUsecase repairs what an interrupted booking can leave behind.
type ReconcileUsecase interface {
	Sweep(ctx context.Context, adminID *uuid.UUID) (*dto.ReconcileReportResponse, error)
}

type reconcileUsecase struct {
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
	observer        ReconcileObserver
	gracePeriod     time.Duration
	now             func() time.Time
}

func NewReconcileUsecase(
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
	observer ReconcileObserver,
	gracePeriod time.Duration,
) ReconcileUsecase {
	if gracePeriod <= 0 {
		gracePeriod = defaultGracePeriod
	}
	return &reconcileUsecase{
		log:             log,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
		observer:        observer,
		gracePeriod:     gracePeriod,
		now:             time.Now,
	}
}

// Sweep cancels pending appointments older than the grace period whose slot
// was never claimed, and reports slots held by more than one active
// appointment. Overbooked slots are only reported, an admin decides which
// appointment keeps the slot.
func (u *reconcileUsecase) Sweep(ctx context.Context, adminID *uuid.UUID) (*dto.ReconcileReportResponse, error) {
	cutoff := u.now().Add(-u.gracePeriod)

	orphans, err := u.appointmentRepo.FindOrphanedPending(ctx, cutoff)
	if err != nil {
		u.log.Warnf("Failed to find orphaned appointments: %+v", err)
		return nil, transient(err)
	}

	report := &dto.ReconcileReportResponse{
		OrphansFound:    len(orphans),
		OverbookedSlots: []dto.OverbookedSlotResponse{},
	}

	for _, orphan := range orphans {
		affected, err := u.appointmentRepo.TransitionStatus(ctx, orphan.ID,
			[]entity.AppointmentStatus{entity.AppointmentStatusPending}, entity.AppointmentStatusCancelled)
		if err != nil {
			u.log.Warnf("Failed to cancel orphaned appointment %s: %+v", orphan.ID, err)
			continue
		}
		if affected == 1 {
			report.OrphansCancelled++
		}
	}

	overbooked, err := u.appointmentRepo.FindOverbookedSlots(ctx)
	if err != nil {
		u.log.Warnf("Failed to find overbooked slots: %+v", err)
		return nil, transient(err)
	}
	for _, slot := range overbooked {
		u.log.WithFields(logrus.Fields{
			"time_slot_id":        slot.TimeSlotID,
			"active_appointments": slot.ActiveAppointments,
		}).Error("Time slot is held by more than one active appointment")
		report.OverbookedSlots = append(report.OverbookedSlots, dto.OverbookedSlotResponse{
			TimeSlotID:         slot.TimeSlotID,
			ActiveAppointments: slot.ActiveAppointments,
		})
	}

	if u.observer != nil {
		u.observer.ObserveReconcile(report.OrphansCancelled, len(report.OverbookedSlots))
	}

	if report.OrphansCancelled > 0 || len(report.OverbookedSlots) > 0 {
		if err := u.auditService.LogEvent(ctx, adminID, entity.AuditActionReconcile, entity.JSON{
			"orphans_found":     report.OrphansFound,
			"orphans_cancelled": report.OrphansCancelled,
			"overbooked_slots":  len(report.OverbookedSlots),
		}); err != nil {
			u.log.Warnf("Failed to create audit log: %+v", err)
		}
	}

	u.log.WithFields(logrus.Fields{
		"orphans_found":     report.OrphansFound,
		"orphans_cancelled": report.OrphansCancelled,
		"overbooked_slots":  len(report.OverbookedSlots),
	}).Info("Reconcile sweep finished")

	return report, nil
}
