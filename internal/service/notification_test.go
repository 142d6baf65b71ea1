package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"clinic-booking/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []EmailMessage
	failFor map[string]bool
}

func (s *fakeSender) Send(_ context.Context, msg EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[msg.To] {
		return errors.New("provider rejected message")
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakeAdminRepo struct {
	emails []string
	err    error
}

func (r *fakeAdminRepo) FindByEmail(context.Context, string) (*entity.AdminUser, error) {
	return nil, nil
}

func (r *fakeAdminRepo) FindByID(context.Context, uuid.UUID) (*entity.AdminUser, error) {
	return nil, nil
}

func (r *fakeAdminRepo) FindAllEmails(context.Context) ([]string, error) {
	return r.emails, r.err
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) ObserveNotification(status string, count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[status] += count
}

func samplePayload() NotificationPayload {
	return NotificationPayload{
		AppointmentID:    "7f1c2d1e-0000-4000-8000-000000000001",
		PatientFirstName: "Grace",
		PatientLastName:  "Hopper",
		PatientEmail:     "grace@example.com",
		PatientPhone:     "555-0100",
		DoctorFirstName:  "Ada",
		DoctorLastName:   "Lovelace",
		Date:             "2026-03-02",
		StartTime:        "09:00",
		EndTime:          "09:30",
	}
}

func TestNotifyAdmins_PrefersConfiguredEmails(t *testing.T) {
	sender := &fakeSender{}
	repo := &fakeAdminRepo{emails: []string{"db-admin@clinic.test"}}
	n := NewAdminNotifier(sender, []string{"a@clinic.test", "b@clinic.test"}, repo, nil, newTestLogger())

	result := n.NotifyAdmins(context.Background(), samplePayload())

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, result.Total)

	var to []string
	for _, msg := range sender.sent {
		to = append(to, msg.To)
		assert.Contains(t, msg.Subject, "Dr. Ada Lovelace")
		assert.Contains(t, msg.Body, "Time: 09:00 - 09:30")
		assert.Contains(t, msg.Body, "Specialty: N/A")
		assert.Contains(t, msg.Body, "Education level: Not specified")
	}
	assert.ElementsMatch(t, []string{"a@clinic.test", "b@clinic.test"}, to)
}

func TestNotifyAdmins_FallsBackToAdminTable(t *testing.T) {
	sender := &fakeSender{}
	repo := &fakeAdminRepo{emails: []string{"db-admin@clinic.test"}}
	n := NewAdminNotifier(sender, nil, repo, nil, newTestLogger())

	result := n.NotifyAdmins(context.Background(), samplePayload())

	require.True(t, result.Success)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "db-admin@clinic.test", sender.sent[0].To)
}

func TestNotifyAdmins_PartialFailure(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"b@clinic.test": true}}
	obs := &countingObserver{}
	n := NewAdminNotifier(sender, []string{"a@clinic.test", "b@clinic.test", "c@clinic.test"}, nil, obs, newTestLogger())

	result := n.NotifyAdmins(context.Background(), samplePayload())

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, obs.counts[NotificationSent])
	assert.Equal(t, 1, obs.counts[NotificationFailed])
}

func TestNotifyAdmins_AllFail(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"a@clinic.test": true}}
	n := NewAdminNotifier(sender, []string{"a@clinic.test"}, nil, nil, newTestLogger())

	result := n.NotifyAdmins(context.Background(), samplePayload())

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Failed)
}

func TestNotifyAdmins_Unconfigured(t *testing.T) {
	n := NewAdminNotifier(nil, []string{"a@clinic.test"}, nil, nil, newTestLogger())

	result := n.NotifyAdmins(context.Background(), samplePayload())

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.Total)
}

func TestNotifyAdmins_NoRecipients(t *testing.T) {
	repo := &fakeAdminRepo{err: errors.New("permission denied")}
	n := NewAdminNotifier(&fakeSender{}, nil, repo, nil, newTestLogger())

	result := n.NotifyAdmins(context.Background(), samplePayload())

	assert.False(t, result.Success)
	assert.Equal(t, "no admin emails found", result.Error)
}

func TestNotifyAdmins_PlaceholderAppointmentID(t *testing.T) {
	sender := &fakeSender{}
	n := NewAdminNotifier(sender, []string{"a@clinic.test"}, nil, nil, newTestLogger())

	payload := samplePayload()
	payload.AppointmentID = ""
	result := n.NotifyAdmins(context.Background(), payload)

	require.True(t, result.Success)
	assert.Contains(t, sender.sent[0].Body, "Appointment ID: N/A")
}

type blockingNotifier struct {
	started chan struct{}
	release chan struct{}
	ctxErr  error
}

func (n *blockingNotifier) NotifyAdmins(ctx context.Context, _ NotificationPayload) NotifyResult {
	close(n.started)
	<-n.release
	n.ctxErr = ctx.Err()
	return NotifyResult{Success: true, Sent: 1, Total: 1}
}

func TestAsyncDispatcher_DetachedFromCaller(t *testing.T) {
	notifier := &blockingNotifier{started: make(chan struct{}), release: make(chan struct{})}
	d := NewAsyncDispatcher(notifier, time.Second, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(ctx, samplePayload()))

	<-notifier.started
	cancel()
	close(notifier.release)
	d.Wait()

	assert.NoError(t, notifier.ctxErr)
}
