package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clinic-booking/internal/service"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

const (
	TypeAdminNotification = "notification:admin"
	QueueNotifications    = "notifications"
)

// NewAdminNotificationTask wraps payload in an asynq task. Tasks for a known
// appointment carry its id so a repeated dispatch is dropped by the queue.
func NewAdminNotificationTask(payload service.NotificationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	var opts []asynq.Option
	if payload.AppointmentID != "" && payload.AppointmentID != service.PlaceholderAppointmentID {
		opts = append(opts, asynq.TaskID(TypeAdminNotification+":"+payload.AppointmentID))
	}
	return asynq.NewTask(TypeAdminNotification, b), opts, nil
}

// Dispatcher hands notifications to the asynq queue. Delivery happens in a
// Worker, possibly in another process.
type Dispatcher struct {
	client  *asynq.Client
	timeout time.Duration
	log     *logrus.Logger
}

func NewDispatcher(client *asynq.Client, timeout time.Duration, log *logrus.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		client:  client,
		timeout: timeout,
		log:     log,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, payload service.NotificationPayload) error {
	task, opts, err := NewAdminNotificationTask(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification task: %w", err)
	}

	// Notifications are delivered at most once.
	opts = append(opts,
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(0),
		asynq.Timeout(d.timeout),
	)

	info, err := d.client.EnqueueContext(context.WithoutCancel(ctx), task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			d.log.WithField("appointment_id", payload.AppointmentID).Info("Admin notification already queued")
			return nil
		}
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	d.log.WithFields(logrus.Fields{
		"task_id":        info.ID,
		"appointment_id": payload.AppointmentID,
	}).Debug("Admin notification queued")
	return nil
}
