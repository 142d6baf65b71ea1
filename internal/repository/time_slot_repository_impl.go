package repository

import (
	"context"
	"errors"

	"clinic-booking/internal/domain/entity"
	domainRepo "clinic-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type timeSlotRepository struct {
	db *gorm.DB
}

func NewTimeSlotRepository(db *gorm.DB) domainRepo.TimeSlotRepository {
	return &timeSlotRepository{db: db}
}

func (r *timeSlotRepository) Create(ctx context.Context, slot *entity.TimeSlot) error {
	return classifyError(r.db.WithContext(ctx).Omit("Doctor").Create(slot).Error)
}

func (r *timeSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.TimeSlot, error) {
	var slot entity.TimeSlot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classifyError(err)
	}
	return &slot, nil
}

func (r *timeSlotRepository) FindAvailableByID(ctx context.Context, id uuid.UUID) (*entity.TimeSlot, error) {
	var slot entity.TimeSlot
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_available = ?", id, true).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classifyError(err)
	}
	return &slot, nil
}

func (r *timeSlotRepository) FindAvailableByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date, today string) ([]entity.TimeSlot, error) {
	var slots []entity.TimeSlot
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND is_available = ? AND date >= ?", doctorID, date, true, today).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return slots, nil
}

func (r *timeSlotRepository) FindByDoctorID(ctx context.Context, doctorID uuid.UUID) ([]entity.TimeSlot, error) {
	var slots []entity.TimeSlot
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("date ASC, start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return slots, nil
}

// Claim atomically takes the slot ONLY if it is still available.
// Returns affected rows: 1 = claimed, 0 = someone else holds it.
func (r *timeSlotRepository) Claim(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.TimeSlot{}).
		Where("id = ? AND is_available = ?", id, true).
		Update("is_available", false)
	return result.RowsAffected, classifyError(result.Error)
}

func (r *timeSlotRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.TimeSlot{}).
		Where("id = ?", id).
		Update("is_available", available)
	return result.RowsAffected, classifyError(result.Error)
}

func (r *timeSlotRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.TimeSlot{})
	return result.RowsAffected, classifyError(result.Error)
}

func (r *timeSlotRepository) CountAvailable(ctx context.Context, today string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.TimeSlot{}).
		Where("is_available = ? AND date >= ?", true, today).
		Count(&total).Error
	return total, classifyError(err)
}
