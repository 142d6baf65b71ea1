package repository

import (
	"context"
	"errors"
	"time"

	"clinic-booking/internal/domain/entity"
	domainRepo "clinic-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) domainRepo.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *entity.Appointment) error {
	return classifyError(r.db.WithContext(ctx).Omit("Doctor", "TimeSlot").Create(appointment).Error)
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := r.db.WithContext(ctx).
		Preload("Doctor").Preload("TimeSlot").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classifyError(err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindAll(ctx context.Context, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := r.db.WithContext(ctx).Preload("Doctor").Preload("TimeSlot")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DoctorID != nil {
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	}

	if err := query.Order("created_at DESC").Find(&appointments).Error; err != nil {
		return nil, classifyError(err)
	}
	return appointments, nil
}

func (r *appointmentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.AppointmentStatus, next entity.AppointmentStatus) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", next)
	return result.RowsAffected, classifyError(result.Error)
}

// CancelAndRelease cancels the appointment ONLY if it is not already
// cancelled and reopens its slot in the same transaction.
// Returns affected rows: 1 = cancelled, 0 = already cancelled or missing.
func (r *appointmentRepository) CancelAndRelease(ctx context.Context, id uuid.UUID) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var appointment entity.Appointment
		if err := tx.Select("id", "time_slot_id").Where("id = ?", id).First(&appointment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		result := tx.Model(&entity.Appointment{}).
			Where("id = ? AND status != ?", id, entity.AppointmentStatusCancelled).
			Update("status", entity.AppointmentStatusCancelled)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 {
			return nil
		}

		return releaseSlot(tx, appointment.TimeSlotID)
	})
	return affected, classifyError(err)
}

func (r *appointmentRepository) DeleteAndRelease(ctx context.Context, id uuid.UUID) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var appointment entity.Appointment
		if err := tx.Select("id", "time_slot_id", "status").Where("id = ?", id).First(&appointment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		result := tx.Where("id = ?", id).Delete(&entity.Appointment{})
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		if affected == 0 || !appointment.IsActive() {
			return nil
		}

		return releaseSlot(tx, appointment.TimeSlotID)
	})
	return affected, classifyError(err)
}

// releaseSlot reopens a slot only when no active appointment still claims it.
func releaseSlot(tx *gorm.DB, slotID uuid.UUID) error {
	return tx.Model(&entity.TimeSlot{}).
		Where("id = ? AND NOT EXISTS (SELECT 1 FROM appointments WHERE time_slot_id = ? AND status <> ?)",
			slotID, slotID, entity.AppointmentStatusCancelled).
		Update("is_available", true).Error
}

func (r *appointmentRepository) CountActiveBySlot(ctx context.Context, slotID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("time_slot_id = ? AND status != ?", slotID, entity.AppointmentStatusCancelled).
		Count(&total).Error
	return total, classifyError(err)
}

func (r *appointmentRepository) CountByStatus(ctx context.Context) (map[entity.AppointmentStatus]int64, error) {
	var rows []struct {
		Status entity.AppointmentStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Appointment{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, classifyError(err)
	}

	counts := make(map[entity.AppointmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *appointmentRepository) FindOrphanedPending(ctx context.Context, cutoff time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := r.db.WithContext(ctx).
		Joins("JOIN time_slots ON time_slots.id = appointments.time_slot_id").
		Where("appointments.status = ? AND appointments.created_at < ? AND time_slots.is_available = ?",
			entity.AppointmentStatusPending, cutoff, true).
		Order("appointments.created_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return appointments, nil
}

func (r *appointmentRepository) FindOverbookedSlots(ctx context.Context) ([]entity.SlotOccupancy, error) {
	var rows []entity.SlotOccupancy
	err := r.db.WithContext(ctx).Model(&entity.Appointment{}).
		Select("time_slot_id, COUNT(*) AS active_appointments").
		Where("status != ?", entity.AppointmentStatusCancelled).
		Group("time_slot_id").
		Having("COUNT(*) > ?", 1).
		Scan(&rows).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return rows, nil
}
