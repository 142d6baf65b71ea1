package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// NotificationDispatcher hands a payload off for delivery without waiting
// for it. The returned error only covers the hand-off itself.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, payload NotificationPayload) error
}

// AsyncDispatcher delivers notifications on background goroutines,
// detached from the request that triggered them.
type AsyncDispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *logrus.Logger
	wg       sync.WaitGroup
}

func NewAsyncDispatcher(notifier Notifier, timeout time.Duration, log *logrus.Logger) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncDispatcher{
		notifier: notifier,
		timeout:  timeout,
		log:      log,
	}
}

func (d *AsyncDispatcher) Dispatch(ctx context.Context, payload NotificationPayload) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		result := d.notifier.NotifyAdmins(sendCtx, payload)
		if !result.Success {
			d.log.WithField("appointment_id", payload.AppointmentID).
				Warnf("Admin notification not delivered: %s (sent=%d failed=%d)", result.Error, result.Sent, result.Failed)
		}
	}()
	return nil
}

// Wait blocks until every dispatched notification has finished.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}
