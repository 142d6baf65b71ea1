package usecase

import (
	"context"
	"testing"
	"time"

	"clinic-booking/internal/delivery/dto"
	"clinic-booking/pkg/cache"
	"clinic-booking/pkg/retry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	store   *memStore
	doctors *fakeDoctorRepo
	reader  *cache.Reader
	now     time.Time
	usecase *catalogUsecase
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	f := &catalogFixture{
		store: newMemStore(),
		now:   time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC),
	}
	f.doctors = &fakeDoctorRepo{memStore: f.store}
	c := cache.New(cache.NewMemoryStorage(0), newTestLogger(), cache.WithClock(func() time.Time { return f.now }))
	opts := retry.Options{MaxAttempts: 2, Timeout: 100 * time.Millisecond, BaseDelay: time.Millisecond}
	f.reader = cache.NewReader(c, opts, time.Second, nil, newTestLogger())
	f.usecase = NewCatalogUsecase(newTestLogger(), f.reader, f.doctors, fakeSlotRepo{f.store},
		CatalogExpiration{Doctors: time.Hour, Slots: time.Minute}).(*catalogUsecase)
	f.usecase.now = func() time.Time { return f.now }
	return f
}

func TestCatalog_ListDoctorsCachesResult(t *testing.T) {
	f := newCatalogFixture(t)
	f.store.addDoctor("Ada", "Lovelace")

	res, info, err := f.usecase.ListDoctors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.False(t, info.FromCache)

	var cached []dto.DoctorResponse
	require.True(t, f.reader.Cache().Get(context.Background(), doctorsListKey, &cached))
	assert.Equal(t, "Dr. Ada Lovelace", cached[0].DisplayName)

	res, info, err = f.usecase.ListDoctors(context.Background())
	require.NoError(t, err)
	assert.True(t, info.FromCache)
	assert.Equal(t, 1, res.Total)
	f.reader.Wait()
}

func TestCatalog_ListDoctorsServesStaleWhenStoreDown(t *testing.T) {
	f := newCatalogFixture(t)
	f.store.addDoctor("Ada", "Lovelace")

	_, _, err := f.usecase.ListDoctors(context.Background())
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	f.doctors.findErr = errUnavailable

	res, info, err := f.usecase.ListDoctors(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Stale)
	assert.True(t, info.FromCache)
	assert.Equal(t, 1, res.Total)
}

func TestCatalog_ListDoctorsWithoutCacheReportsTransient(t *testing.T) {
	f := newCatalogFixture(t)
	f.doctors.findErr = errUnavailable

	_, _, err := f.usecase.ListDoctors(context.Background())
	assert.ErrorIs(t, err, ErrTransientStore)
	assert.Len(t, f.store.Calls(), 2, "loader retried up to MaxAttempts")
}

func TestCatalog_GetDoctorNotFound(t *testing.T) {
	f := newCatalogFixture(t)

	_, _, err := f.usecase.GetDoctor(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.Len(t, f.store.Calls(), 1, "missing doctor is not retried")
}

func TestCatalog_ListAvailableSlots(t *testing.T) {
	f := newCatalogFixture(t)
	doctor := f.store.addDoctor("Ada", "Lovelace")
	late := f.store.addSlot(doctor.ID, "2026-11-02", true)
	late.StartTime = "14:00:00"
	f.store.addSlot(doctor.ID, "2026-11-02", true)
	f.store.addSlot(doctor.ID, "2026-11-02", false)
	f.store.addSlot(doctor.ID, "2026-11-03", true)

	res, _, err := f.usecase.ListAvailableSlots(context.Background(), doctor.ID, "2026-11-02")
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, "09:00", res.TimeSlots[0].StartTime)
	assert.Equal(t, "14:00", res.TimeSlots[1].StartTime)

	past, _, err := f.usecase.ListAvailableSlots(context.Background(), doctor.ID, "2026-10-30")
	require.NoError(t, err)
	assert.Zero(t, past.Total)
}

func TestCatalog_ListAvailableSlotsRejectsBadDate(t *testing.T) {
	f := newCatalogFixture(t)

	_, _, err := f.usecase.ListAvailableSlots(context.Background(), uuid.New(), "02/11/2026")
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Empty(t, f.store.Calls())
}

func TestCatalog_WarmDoctors(t *testing.T) {
	f := newCatalogFixture(t)
	f.store.addDoctor("Ada", "Lovelace")

	require.NoError(t, f.usecase.WarmDoctors(context.Background()))

	var cached []dto.DoctorResponse
	assert.True(t, f.reader.Cache().Get(context.Background(), doctorsListKey, &cached))
}
