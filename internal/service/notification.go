package service

import (
	"context"
	"fmt"
	"strings"

	"clinic-booking/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
)

// PlaceholderAppointmentID stands in for an appointment whose id could not
// be read back after insert.
const PlaceholderAppointmentID = "N/A"

const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// NotificationPayload is the booking context handed to admins. It is
// self-contained so it can travel through a queue.
type NotificationPayload struct {
	AppointmentID    string `json:"appointment_id"`
	PatientFirstName string `json:"patient_first_name"`
	PatientLastName  string `json:"patient_last_name"`
	PatientEmail     string `json:"patient_email"`
	PatientPhone     string `json:"patient_phone"`
	EducationLevel   string `json:"education_level"`
	DoctorID         string `json:"doctor_id"`
	DoctorFirstName  string `json:"doctor_first_name"`
	DoctorLastName   string `json:"doctor_last_name"`
	DoctorSpecialty  string `json:"doctor_specialty"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
}

// NotifyResult summarizes one fan-out. Success means at least one admin
// received the email.
type NotifyResult struct {
	Success bool   `json:"success"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
	Error   string `json:"error,omitempty"`
}

// Notifier tells admins about a new booking.
type Notifier interface {
	NotifyAdmins(ctx context.Context, payload NotificationPayload) NotifyResult
}

// NotificationObserver receives delivery counts per status.
type NotificationObserver interface {
	ObserveNotification(status string, count int)
}

type adminNotifier struct {
	sender      EmailSender
	adminEmails []string
	adminRepo   repository.AdminUserRepository
	observer    NotificationObserver
	log         *logrus.Logger
}

// NewAdminNotifier builds a Notifier that emails every admin. A nil sender
// means email is not configured and every call reports failure. Recipients
// come from adminEmails when set, otherwise from the admin_users table.
func NewAdminNotifier(sender EmailSender, adminEmails []string, adminRepo repository.AdminUserRepository, observer NotificationObserver, log *logrus.Logger) Notifier {
	return &adminNotifier{
		sender:      sender,
		adminEmails: adminEmails,
		adminRepo:   adminRepo,
		observer:    observer,
		log:         log,
	}
}

func (n *adminNotifier) NotifyAdmins(ctx context.Context, payload NotificationPayload) NotifyResult {
	if n.sender == nil {
		n.log.Warn("Email service not configured, skipping admin notification")
		n.observe(NotificationSkipped, 1)
		return NotifyResult{Error: "email service not configured"}
	}

	recipients := n.recipients(ctx)
	if len(recipients) == 0 {
		n.log.Warn("No admin emails found, skipping admin notification")
		n.observe(NotificationSkipped, 1)
		return NotifyResult{Error: "no admin emails found"}
	}

	subject := fmt.Sprintf("New appointment: %s %s with %s",
		payload.PatientFirstName, payload.PatientLastName, doctorName(payload))
	body := renderNotification(payload)

	errs := iter.Map(recipients, func(to *string) error {
		return n.sender.Send(ctx, EmailMessage{
			To:      *to,
			ToName:  "Admin",
			Subject: subject,
			Body:    body,
		})
	})

	result := NotifyResult{Total: len(recipients)}
	for i, err := range errs {
		if err != nil {
			result.Failed++
			n.log.WithField("recipient", recipients[i]).Warnf("Failed to send admin notification: %+v", err)
			continue
		}
		result.Sent++
	}
	result.Success = result.Sent > 0

	n.observe(NotificationSent, result.Sent)
	n.observe(NotificationFailed, result.Failed)
	n.log.WithFields(logrus.Fields{
		"appointment_id": payload.AppointmentID,
		"sent":           result.Sent,
		"failed":         result.Failed,
	}).Info("Admin notification finished")

	return result
}

func (n *adminNotifier) recipients(ctx context.Context) []string {
	if len(n.adminEmails) > 0 {
		return n.adminEmails
	}
	if n.adminRepo == nil {
		return nil
	}

	emails, err := n.adminRepo.FindAllEmails(ctx)
	if err != nil {
		n.log.Warnf("Failed to load admin emails: %+v", err)
		return nil
	}
	return emails
}

func (n *adminNotifier) observe(status string, count int) {
	if n.observer != nil && count > 0 {
		n.observer.ObserveNotification(status, count)
	}
}

func doctorName(p NotificationPayload) string {
	name := strings.TrimSpace(p.DoctorFirstName + " " + p.DoctorLastName)
	if name == "" {
		return "your doctor"
	}
	return "Dr. " + name
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func renderNotification(p NotificationPayload) string {
	var b strings.Builder
	b.WriteString("A new appointment has been booked.\n\n")
	fmt.Fprintf(&b, "Patient: %s %s\n", p.PatientFirstName, p.PatientLastName)
	fmt.Fprintf(&b, "Email: %s\n", p.PatientEmail)
	fmt.Fprintf(&b, "Phone: %s\n", p.PatientPhone)
	fmt.Fprintf(&b, "Education level: %s\n\n", orDefault(p.EducationLevel, "Not specified"))
	fmt.Fprintf(&b, "Doctor: %s\n", doctorName(p))
	fmt.Fprintf(&b, "Specialty: %s\n", orDefault(p.DoctorSpecialty, "N/A"))
	fmt.Fprintf(&b, "Date: %s\n", p.Date)
	fmt.Fprintf(&b, "Time: %s - %s\n\n", p.StartTime, p.EndTime)
	fmt.Fprintf(&b, "Appointment ID: %s\n", orDefault(p.AppointmentID, PlaceholderAppointmentID))
	return b.String()
}
