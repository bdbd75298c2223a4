package models

import "time"

// Status is the resolved processing status of an application.
type Status string

const (
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
	StatusPending  Status = "Pending"
)

// Valid reports whether s is one of the canonical status values.
func (s Status) Valid() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusPending:
		return true
	}
	return false
}

// VisaRecord is one application record in an index snapshot. Records
// are constructed only during ingestion and never mutated afterwards.
type VisaRecord struct {
	ApplicationNumber string    `json:"application_number"`
	Status            Status    `json:"status"`
	ApplicationDate   time.Time `json:"application_date,omitempty"`
}
