// Package notify composes and dispatches status notification emails.
package notify

import (
	"context"
	"fmt"
	"strings"

	"visa-status-service/internal/common/logger"
	"visa-status-service/internal/common/metrics"
	"visa-status-service/internal/models"
)

// Message is one outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer submits a message to a mail transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Provider() string
}

// Dispatcher converts every transport failure into a NotificationOutcome
// so a failed send can never abort status resolution. It has no other
// error path toward its callers.
type Dispatcher struct {
	mailer Mailer
	from   string
	logger logger.Logger
}

func NewDispatcher(mailer Mailer, from string, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		from:   from,
		logger: log.WithFields(map[string]interface{}{"component": "dispatcher"}),
	}
}

// Dispatch submits one email and reports the outcome. Authentication,
// network and recipient failures all come back as delivered=false with
// a human-readable reason.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient, subject, body string) models.NotificationOutcome {
	if !isValidEmail(recipient) {
		return models.NotificationOutcome{
			Delivered:     false,
			FailureReason: fmt.Sprintf("invalid recipient address: %s", recipient),
		}
	}

	msg := Message{
		From:    d.from,
		To:      strings.TrimSpace(recipient),
		Subject: subject,
		Body:    body,
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		metrics.NotificationsFailed.WithLabelValues(d.mailer.Provider()).Inc()
		d.logger.WithError(err).Warn("notification delivery failed", map[string]interface{}{
			"recipient": msg.To,
			"provider":  d.mailer.Provider(),
		})
		return models.NotificationOutcome{
			Delivered:     false,
			FailureReason: err.Error(),
		}
	}

	metrics.NotificationsSent.WithLabelValues(d.mailer.Provider()).Inc()
	d.logger.Info("notification sent", map[string]interface{}{
		"recipient": msg.To,
		"provider":  d.mailer.Provider(),
	})
	return models.NotificationOutcome{Delivered: true}
}

// ComposeStatusMessage selects subject and body for a resolved status.
// Pending messages include the elapsed working-day count.
func ComposeStatusMessage(status models.Status, workingDays int) (subject, body string) {
	switch status {
	case models.StatusApproved:
		return "Congratulations! Your Visa Has Been Approved",
			"We are pleased to inform you that your visa application has been approved."
	case models.StatusRejected:
		return "Update on Your Visa Application",
			"We regret to inform you that your visa application has been rejected. " +
				"Please contact our office for more information and next steps."
	default:
		return "Your Visa Application Status",
			fmt.Sprintf("Your visa application is still pending. It has been %d working days since your application date.", workingDays)
	}
}

func isValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	if len(parts[0]) == 0 || len(parts[1]) == 0 {
		return false
	}
	return strings.Contains(parts[1], ".")
}
