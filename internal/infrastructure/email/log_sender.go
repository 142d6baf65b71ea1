package email

import (
	"context"

	"clinic-booking/internal/service"

	"github.com/sirupsen/logrus"
)

// LogSender writes emails to the log instead of sending them. Used in
// development when no provider is configured.
type LogSender struct {
	log *logrus.Logger
}

func NewLogSender(log *logrus.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg service.EmailMessage) error {
	s.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email not sent, log provider configured")
	return nil
}

var _ service.EmailSender = (*LogSender)(nil)
