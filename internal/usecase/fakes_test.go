package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"clinic-booking/internal/domain/entity"
	"clinic-booking/internal/domain/repository"
	"clinic-booking/internal/service"
	"clinic-booking/pkg/cache"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	errDuplicateKey     = fmt.Errorf("%w: duplicate key value violates unique constraint", repository.ErrDuplicateKey)
	errForeignKey       = fmt.Errorf("%w: insert or update violates foreign key constraint", repository.ErrForeignKey)
	errPermissionDenied = fmt.Errorf("%w: new row violates row-level security policy", repository.ErrPermissionDenied)
	errUnavailable      = fmt.Errorf("%w: connection reset by peer", repository.ErrStoreUnavailable)
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestCache() *cache.Cache {
	return cache.New(cache.NewMemoryStorage(0), newTestLogger())
}

// memStore backs the fake repositories with maps guarded by one mutex, so
// conditional updates behave like single-row compare-and-swap.
type memStore struct {
	mu           sync.Mutex
	doctors      map[uuid.UUID]*entity.Doctor
	slots        map[uuid.UUID]*entity.TimeSlot
	appointments map[uuid.UUID]*entity.Appointment
	calls        []string

	findSlotErr        error
	createAppointErr   error
	storeOnCreateErr   bool
	claimErr           error
	transitionErr      error
	findOrphansErr     error
	beforeClaim        func()
	createdAppointment time.Time
}

func newMemStore() *memStore {
	return &memStore{
		doctors:      map[uuid.UUID]*entity.Doctor{},
		slots:        map[uuid.UUID]*entity.TimeSlot{},
		appointments: map[uuid.UUID]*entity.Appointment{},
	}
}

func (s *memStore) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *memStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *memStore) addDoctor(first, last string) *entity.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &entity.Doctor{ID: uuid.New(), FirstName: first, LastName: last, Email: first + "@clinic.test", Specialty: "Cardiology"}
	s.doctors[d.ID] = d
	return d
}

func (s *memStore) addSlot(doctorID uuid.UUID, date string, available bool) *entity.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	day, _ := time.Parse(entity.DateLayout, date)
	slot := &entity.TimeSlot{ID: uuid.New(), DoctorID: doctorID, Date: day, StartTime: "09:00:00", EndTime: "09:30:00", IsAvailable: available}
	s.slots[slot.ID] = slot
	return slot
}

func (s *memStore) addAppointment(slot *entity.TimeSlot, status entity.AppointmentStatus, createdAt time.Time) *entity.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &entity.Appointment{
		ID:               uuid.New(),
		DoctorID:         slot.DoctorID,
		TimeSlotID:       slot.ID,
		PatientFirstName: "Jane",
		PatientLastName:  "Doe",
		PatientEmail:     "jane@example.com",
		PatientPhone:     "555-0100",
		Status:           status,
		CreatedAt:        createdAt,
	}
	s.appointments[a.ID] = a
	return a
}

// releaseSlot mirrors the guarded UPDATE: the slot reopens only when no
// active appointment references it. Callers hold mu.
func (s *memStore) releaseSlot(slotID uuid.UUID) {
	for _, a := range s.appointments {
		if a.TimeSlotID == slotID && a.IsActive() {
			return
		}
	}
	if slot, ok := s.slots[slotID]; ok {
		slot.IsAvailable = true
	}
}

func (s *memStore) slot(id uuid.UUID) entity.TimeSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.slots[id]
}

func (s *memStore) appointment(id uuid.UUID) entity.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.appointments[id]
}

func (s *memStore) appointmentList() []entity.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		out = append(out, *a)
	}
	return out
}

type fakeSlotRepo struct{ *memStore }

func (r fakeSlotRepo) Create(_ context.Context, slot *entity.TimeSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("slot.create")
	if _, ok := r.doctors[slot.DoctorID]; !ok {
		return errForeignKey
	}
	slot.ID = uuid.New()
	copied := *slot
	r.slots[slot.ID] = &copied
	return nil
}

func (r fakeSlotRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("slot.find")
	slot, ok := r.slots[id]
	if !ok {
		return nil, nil
	}
	copied := *slot
	return &copied, nil
}

func (r fakeSlotRepo) FindAvailableByID(_ context.Context, id uuid.UUID) (*entity.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("slot.find_available")
	if r.findSlotErr != nil {
		return nil, r.findSlotErr
	}
	slot, ok := r.slots[id]
	if !ok || !slot.IsAvailable {
		return nil, nil
	}
	copied := *slot
	return &copied, nil
}

func (r fakeSlotRepo) FindAvailableByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date, today string) ([]entity.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("slot.find_by_date")
	if r.findSlotErr != nil {
		return nil, r.findSlotErr
	}
	var out []entity.TimeSlot
	if date < today {
		return out, nil
	}
	for _, slot := range r.slots {
		if slot.DoctorID == doctorID && slot.IsAvailable && slot.DateString() == date {
			out = append(out, *slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r fakeSlotRepo) FindByDoctorID(_ context.Context, doctorID uuid.UUID) ([]entity.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.TimeSlot
	for _, slot := range r.slots {
		if slot.DoctorID == doctorID {
			out = append(out, *slot)
		}
	}
	return out, nil
}

func (r fakeSlotRepo) Claim(_ context.Context, id uuid.UUID) (int64, error) {
	if r.beforeClaim != nil {
		r.beforeClaim()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("slot.claim")
	if r.claimErr != nil {
		return 0, r.claimErr
	}
	slot, ok := r.slots[id]
	if !ok || !slot.IsAvailable {
		return 0, nil
	}
	slot.IsAvailable = false
	return 1, nil
}

func (r fakeSlotRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("slot.set_availability")
	slot, ok := r.slots[id]
	if !ok {
		return 0, nil
	}
	slot.IsAvailable = available
	return 1, nil
}

func (r fakeSlotRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("slot.delete")
	if _, ok := r.slots[id]; !ok {
		return 0, nil
	}
	delete(r.slots, id)
	return 1, nil
}

func (r fakeSlotRepo) CountAvailable(_ context.Context, today string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, slot := range r.slots {
		if slot.IsAvailable && slot.DateString() >= today {
			n++
		}
	}
	return n, nil
}

type fakeAppointmentRepo struct{ *memStore }

func (r fakeAppointmentRepo) Create(_ context.Context, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("appointment.create")
	if r.createAppointErr != nil && !r.storeOnCreateErr {
		return r.createAppointErr
	}
	stored := *appointment
	stored.ID = uuid.New()
	stored.CreatedAt = r.createdAppointment
	r.appointments[stored.ID] = &stored
	if r.createAppointErr != nil {
		return r.createAppointErr
	}
	appointment.ID = stored.ID
	return nil
}

func (r fakeAppointmentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	if slot, ok := r.slots[a.TimeSlotID]; ok {
		s := *slot
		copied.TimeSlot = &s
	}
	return &copied, nil
}

func (r fakeAppointmentRepo) FindAll(_ context.Context, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r fakeAppointmentRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.AppointmentStatus, next entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("appointment.transition")
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if r.transitionErr != nil {
		return 0, r.transitionErr
	}
	a, ok := r.appointments[id]
	if !ok {
		return 0, nil
	}
	for _, status := range from {
		if a.Status == status {
			a.Status = next
			return 1, nil
		}
	}
	return 0, nil
}

func (r fakeAppointmentRepo) CancelAndRelease(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("appointment.cancel_release")
	a, ok := r.appointments[id]
	if !ok || a.Status == entity.AppointmentStatusCancelled {
		return 0, nil
	}
	a.Status = entity.AppointmentStatusCancelled
	r.releaseSlot(a.TimeSlotID)
	return 1, nil
}

func (r fakeAppointmentRepo) DeleteAndRelease(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("appointment.delete_release")
	a, ok := r.appointments[id]
	if !ok {
		return 0, nil
	}
	delete(r.appointments, id)
	if a.IsActive() {
		r.releaseSlot(a.TimeSlotID)
	}
	return 1, nil
}

func (r fakeAppointmentRepo) CountActiveBySlot(_ context.Context, slotID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.appointments {
		if a.TimeSlotID == slotID && a.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r fakeAppointmentRepo) CountByStatus(context.Context) (map[entity.AppointmentStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[entity.AppointmentStatus]int64{}
	for _, a := range r.appointments {
		counts[a.Status]++
	}
	return counts, nil
}

func (r fakeAppointmentRepo) FindOrphanedPending(_ context.Context, cutoff time.Time) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findOrphansErr != nil {
		return nil, r.findOrphansErr
	}
	var out []entity.Appointment
	for _, a := range r.appointments {
		slot, ok := r.slots[a.TimeSlotID]
		if a.IsPending() && a.CreatedAt.Before(cutoff) && ok && slot.IsAvailable {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r fakeAppointmentRepo) FindOverbookedSlots(context.Context) ([]entity.SlotOccupancy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[uuid.UUID]int64{}
	for _, a := range r.appointments {
		if a.IsActive() {
			counts[a.TimeSlotID]++
		}
	}
	var out []entity.SlotOccupancy
	for id, n := range counts {
		if n > 1 {
			out = append(out, entity.SlotOccupancy{TimeSlotID: id, ActiveAppointments: n})
		}
	}
	return out, nil
}

type fakeDoctorRepo struct {
	*memStore
	findErr   error
	deleteErr error
}

func (r fakeDoctorRepo) Create(_ context.Context, doctor *entity.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if d.Email == doctor.Email {
			return errDuplicateKey
		}
	}
	doctor.ID = uuid.New()
	copied := *doctor
	r.doctors[doctor.ID] = &copied
	return nil
}

func (r fakeDoctorRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("doctor.find")
	if r.findErr != nil {
		return nil, r.findErr
	}
	d, ok := r.doctors[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (r fakeDoctorRepo) FindAll(context.Context) ([]entity.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("doctor.find_all")
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]entity.Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstName < out[j].FirstName })
	return out, nil
}

func (r fakeDoctorRepo) Update(_ context.Context, doctor *entity.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doctor
	r.doctors[doctor.ID] = &copied
	return nil
}

func (r fakeDoctorRepo) UpdateProfilePicture(_ context.Context, id uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.doctors[id]; ok {
		d.ProfilePictureURL = url
	}
	return nil
}

func (r fakeDoctorRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if _, ok := r.doctors[id]; !ok {
		return 0, nil
	}
	delete(r.doctors, id)
	return 1, nil
}

func (r fakeDoctorRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.doctors)), nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []entity.AuditLog
	err  error
}

func (r *fakeAuditRepo) Create(_ context.Context, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) FindRecent(_ context.Context, limit int) ([]entity.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > len(r.logs) {
		limit = len(r.logs)
	}
	return append([]entity.AuditLog(nil), r.logs[:limit]...), nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.logs))
	for i, l := range r.logs {
		out[i] = l.Action
	}
	return out
}

func newTestAuditService(repo *fakeAuditRepo) service.AuditService {
	return service.NewAuditService(newTestLogger(), repo)
}

type fakeDispatcher struct {
	mu       sync.Mutex
	payloads []service.NotificationPayload
	err      error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, payload service.NotificationPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload)
	return d.err
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *outcomeRecorder) ObserveBooking(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}
