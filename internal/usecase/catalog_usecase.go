package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-booking/internal/converter"
	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/pkg/cache"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrInvalidDate    = errors.New("invalid date format, use YYYY-MM-DD")
)

// CacheInfo tells the handler where a public read was served from.
type CacheInfo struct {
	FromCache bool
	Stale     bool
}

// CatalogUsecase serves the public doctor and slot listings through the
// read-through cache.
type CatalogUsecase interface {
	ListDoctors(ctx context.Context) (*dto.DoctorListResponse, CacheInfo, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, CacheInfo, error)
	ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.TimeSlotListResponse, CacheInfo, error)
	WarmDoctors(ctx context.Context) error
}

type CatalogExpiration struct {
	Doctors time.Duration
	Slots   time.Duration
}

type catalogUsecase struct {
	log        *logrus.Logger
	reader     *cache.Reader
	doctorRepo repository.DoctorRepository
	slotRepo   repository.TimeSlotRepository
	expiration CatalogExpiration
	now        func() time.Time
}

func NewCatalogUsecase(
	log *logrus.Logger,
	reader *cache.Reader,
	doctorRepo repository.DoctorRepository,
	slotRepo repository.TimeSlotRepository,
	expiration CatalogExpiration,
) CatalogUsecase {
	return &catalogUsecase{
		log:        log,
		reader:     reader,
		doctorRepo: doctorRepo,
		slotRepo:   slotRepo,
		expiration: expiration,
		now:        time.Now,
	}
}

func (u *catalogUsecase) ListDoctors(ctx context.Context) (*dto.DoctorListResponse, CacheInfo, error) {
	res, err := cache.Load(ctx, u.reader, doctorsListKey, u.expiration.Doctors, u.loadDoctors)
	if err != nil {
		u.log.Warnf("Failed to list doctors: %+v", err)
		return nil, CacheInfo{}, transient(err)
	}

	return &dto.DoctorListResponse{
		Doctors: res.Data,
		Total:   len(res.Data),
	}, CacheInfo{FromCache: res.FromCache, Stale: res.Stale}, nil
}

func (u *catalogUsecase) GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, CacheInfo, error) {
	// A missing doctor loads as nil rather than an error so it is not retried.
	res, err := cache.Load(ctx, u.reader, doctorKey(id), u.expiration.Doctors, func(ctx context.Context) (*dto.DoctorResponse, error) {
		doctor, err := u.doctorRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return converter.DoctorToResponse(doctor), nil
	})
	if err != nil {
		u.log.Warnf("Failed to get doctor: %+v", err)
		return nil, CacheInfo{}, transient(err)
	}
	if res.Data == nil {
		return nil, CacheInfo{}, ErrDoctorNotFound
	}

	return res.Data, CacheInfo{FromCache: res.FromCache, Stale: res.Stale}, nil
}

// ListAvailableSlots returns the open slots of a doctor on date, ordered by
// start time. Dates before today yield an empty list.
func (u *catalogUsecase) ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string) (*dto.TimeSlotListResponse, CacheInfo, error) {
	if _, err := time.Parse(entity.DateLayout, date); err != nil {
		return nil, CacheInfo{}, ErrInvalidDate
	}
	today := u.now().Format(entity.DateLayout)

	res, err := cache.Load(ctx, u.reader, slotsKey(doctorID, date), u.expiration.Slots, func(ctx context.Context) ([]dto.TimeSlotResponse, error) {
		slots, err := u.slotRepo.FindAvailableByDoctorAndDate(ctx, doctorID, date, today)
		if err != nil {
			return nil, err
		}
		return converter.TimeSlotsToResponses(slots), nil
	})
	if err != nil {
		u.log.Warnf("Failed to list available slots: %+v", err)
		return nil, CacheInfo{}, transient(err)
	}

	return &dto.TimeSlotListResponse{
		TimeSlots: res.Data,
		Total:     len(res.Data),
	}, CacheInfo{FromCache: res.FromCache, Stale: res.Stale}, nil
}

// WarmDoctors reloads the doctor list into the cache.
func (u *catalogUsecase) WarmDoctors(ctx context.Context) error {
	doctors, err := u.loadDoctors(ctx)
	if err != nil {
		u.log.Warnf("Failed to warm doctors cache: %+v", err)
		return err
	}
	u.reader.Cache().Set(ctx, doctorsListKey, doctors, u.expiration.Doctors)
	return nil
}

func (u *catalogUsecase) loadDoctors(ctx context.Context) ([]dto.DoctorResponse, error) {
	doctors, err := u.doctorRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return converter.DoctorsToResponses(doctors), nil
}

func transient(err error) error {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return ErrTransientStore
	}
	return err
}
