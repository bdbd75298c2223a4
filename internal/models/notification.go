package models

// StatusRequest carries one status-check request. ApplicationDate is
// the caller-supplied date and is authoritative for the elapsed-days
// computation, whether or not a record exists for the number.
type StatusRequest struct {
	ApplicationNumber string `json:"application_number" form:"application_number"`
	ApplicationDate   string `json:"application_date" form:"application_date"` // YYYY-MM-DD
	Email             string `json:"email" form:"email"`
}

// StatusResponse is the structured result of one status check. Email
// delivery is reported separately so a failed send never masks a
// successful resolution.
type StatusResponse struct {
	Status      string `json:"status"`
	WorkingDays int    `json:"working_days"`
	Message     string `json:"message"`
	EmailSent   bool   `json:"email_sent"`
	EmailError  string `json:"email_error,omitempty"`
}

// NotificationOutcome reports whether a dispatch reached the mail
// transport. It is returned inline, never persisted.
type NotificationOutcome struct {
	Delivered     bool   `json:"delivered"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// SendEmailRequest is the raw dispatch request body.
type SendEmailRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// SendEmailResponse is the raw dispatch result.
type SendEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
