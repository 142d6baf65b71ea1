package usecase

import (
	"context"
	"testing"
	"time"

	"clinic-booking/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_Counts(t *testing.T) {
	store := newMemStore()
	doctor := store.addDoctor("Ada", "Lovelace")
	store.addDoctor("Grace", "Hopper")
	store.addSlot(doctor.ID, "2026-11-02", true)
	store.addSlot(doctor.ID, "2026-10-01", true)
	booked := store.addSlot(doctor.ID, "2026-11-02", false)
	store.addAppointment(booked, entity.AppointmentStatusPending, time.Now())
	store.addAppointment(booked, entity.AppointmentStatusCancelled, time.Now())

	uc := NewDashboardUsecase(newTestLogger(), fakeDoctorRepo{memStore: store}, fakeSlotRepo{store}, fakeAppointmentRepo{store}, newTestCache()).(*dashboardUsecase)
	uc.now = func() time.Time { return time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC) }

	res, err := uc.GetDashboard(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalDoctors)
	assert.EqualValues(t, 2, res.TotalAppointments)
	assert.EqualValues(t, 1, res.PendingAppointments)
	assert.EqualValues(t, 1, res.CancelledAppointments)
	assert.EqualValues(t, 1, res.AvailableSlots)
}

func TestDashboard_CacheStatsAndClear(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()
	c.Set(ctx, doctorsListKey, []int{1, 2}, time.Hour)

	store := newMemStore()
	uc := NewDashboardUsecase(newTestLogger(), fakeDoctorRepo{memStore: store}, fakeSlotRepo{store}, fakeAppointmentRepo{store}, c)

	stats, err := uc.GetCacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ValidEntries)

	uc.ClearCache(ctx)
	stats, err = uc.GetCacheStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEntries)
}
