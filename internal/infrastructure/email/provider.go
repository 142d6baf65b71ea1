package email

import (
	"context"
	"fmt"

	"clinic-booking/config"
	"clinic-booking/internal/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sirupsen/logrus"
)

const (
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderLog      = "log"
	ProviderNone     = "none"
)

// NewSender builds the configured provider. A nil sender with a nil error
// means email is switched off; the notifier then reports "not configured".
func NewSender(ctx context.Context, emailCfg config.EmailConfig, awsCfg config.AWSConfig, log *logrus.Logger) (service.EmailSender, error) {
	switch emailCfg.Provider {
	case ProviderSendGrid:
		sender := NewSendGridSender(SendGridConfig{
			APIKey:    emailCfg.SendGridAPIKey,
			FromEmail: emailCfg.FromEmail,
			FromName:  emailCfg.FromName,
		}, log)
		if sender == nil {
			log.Warn("SENDGRID_API_KEY is empty, admin notifications are disabled")
			return nil, nil
		}
		return sender, nil
	case ProviderSES:
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsCfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return NewSESSender(sesv2.NewFromConfig(cfg), SESConfig{
			FromEmail: emailCfg.FromEmail,
			FromName:  emailCfg.FromName,
		}, log), nil
	case ProviderLog, "":
		return NewLogSender(log), nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", emailCfg.Provider)
	}
}
