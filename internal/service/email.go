package service

import "context"

// EmailMessage is a single outbound email.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// EmailSender delivers one email through a provider.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
