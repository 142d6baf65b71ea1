package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinic-booking/internal/service"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Worker consumes queued admin notifications and delivers them through a
// Notifier.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	notifier service.Notifier
	log      *logrus.Logger
}

func NewWorker(redisClient redis.UniversalClient, concurrency int, notifier service.Notifier, log *logrus.Logger) *Worker {
	w := &Worker{
		notifier: notifier,
		log:      log,
	}

	w.server = asynq.NewServerFromRedisClient(redisClient, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueNotifications: 1,
		},
		Logger:          log,
		LogLevel:        asynq.WarnLevel,
		ShutdownTimeout: 10 * time.Second,
		ErrorHandler:    asynq.ErrorHandlerFunc(w.reportError),
	})

	w.mux = asynq.NewServeMux()
	w.mux.HandleFunc(TypeAdminNotification, w.handleAdminNotification)

	return w
}

// Start begins processing in the background.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start notification worker: %w", err)
	}
	w.log.Info("Notification worker started")
	return nil
}

// Shutdown waits for in-flight tasks and stops the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleAdminNotification(ctx context.Context, task *asynq.Task) error {
	var payload service.NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid notification payload: %v: %w", err, asynq.SkipRetry)
	}

	result := w.notifier.NotifyAdmins(ctx, payload)
	if !result.Success {
		return fmt.Errorf("admin notification not delivered: %s (sent=%d failed=%d): %w",
			result.Error, result.Sent, result.Failed, asynq.SkipRetry)
	}

	w.log.WithFields(logrus.Fields{
		"appointment_id": payload.AppointmentID,
		"sent":           result.Sent,
	}).Info("Admin notification delivered")
	return nil
}

func (w *Worker) reportError(_ context.Context, task *asynq.Task, err error) {
	w.log.WithField("task_type", task.Type()).Warnf("Queued task failed: %+v", err)
}
