package usecase

import (
	"context"
	"time"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/pkg/cache"

	"github.com/sirupsen/logrus"
)

type DashboardUsecase interface {
	GetDashboard(ctx context.Context) (*dto.DashboardResponse, error)
	GetCacheStats(ctx context.Context) (*dto.CacheStatsResponse, error)
	ClearCache(ctx context.Context)
	SweepCache(ctx context.Context) int
}

type dashboardUsecase struct {
	log             *logrus.Logger
	doctorRepo      repository.DoctorRepository
	slotRepo        repository.TimeSlotRepository
	appointmentRepo repository.AppointmentRepository
	cache           *cache.Cache
	now             func() time.Time
}

func NewDashboardUsecase(
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	slotRepo repository.TimeSlotRepository,
	appointmentRepo repository.AppointmentRepository,
	cache *cache.Cache,
) DashboardUsecase {
	return &dashboardUsecase{
		log:             log,
		doctorRepo:      doctorRepo,
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		cache:           cache,
		now:             time.Now,
	}
}

func (u *dashboardUsecase) GetDashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	doctors, err := u.doctorRepo.Count(ctx)
	if err != nil {
		u.log.Warnf("Failed to count doctors: %+v", err)
		return nil, transient(err)
	}

	byStatus, err := u.appointmentRepo.CountByStatus(ctx)
	if err != nil {
		u.log.Warnf("Failed to count appointments: %+v", err)
		return nil, transient(err)
	}

	available, err := u.slotRepo.CountAvailable(ctx, u.now().Format(entity.DateLayout))
	if err != nil {
		u.log.Warnf("Failed to count available slots: %+v", err)
		return nil, transient(err)
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}

	return &dto.DashboardResponse{
		TotalDoctors:          doctors,
		TotalAppointments:     total,
		PendingAppointments:   byStatus[entity.AppointmentStatusPending],
		ConfirmedAppointments: byStatus[entity.AppointmentStatusConfirmed],
		CancelledAppointments: byStatus[entity.AppointmentStatusCancelled],
		AvailableSlots:        available,
	}, nil
}

func (u *dashboardUsecase) GetCacheStats(ctx context.Context) (*dto.CacheStatsResponse, error) {
	stats, err := u.cache.Stats(ctx)
	if err != nil {
		u.log.Warnf("Failed to read cache stats: %+v", err)
		return nil, err
	}

	return &dto.CacheStatsResponse{
		TotalEntries:   stats.TotalEntries,
		ValidEntries:   stats.ValidEntries,
		ExpiredEntries: stats.ExpiredEntries,
		TotalSize:      stats.TotalSize,
		TotalSizeKB:    stats.TotalSizeKB,
	}, nil
}

func (u *dashboardUsecase) ClearCache(ctx context.Context) {
	u.cache.ClearAll(ctx)
	u.log.Info("Cache cleared")
}

// SweepCache drops expired and unreadable entries and returns how many went.
func (u *dashboardUsecase) SweepCache(ctx context.Context) int {
	removed := u.cache.SweepExpired(ctx)
	if removed > 0 {
		u.log.Infof("Removed %d expired cache entries", removed)
	}
	return removed
}
