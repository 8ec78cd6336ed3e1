package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is read-only here; the booking flow belongs to the portal. The
// stats engine only counts today's appointments and their upcoming subset.
type Appointment struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	PatientID   string            `db:"patient_id" json:"patient_id"`
	PatientName string            `db:"patient_name" json:"patient_name"`
	Date        string            `db:"date" json:"date"` // YYYY-MM-DD
	Time        string            `db:"time" json:"time"`
	Department  string            `db:"department" json:"department"`
	Doctor      string            `db:"doctor" json:"doctor"`
	Reason      string            `db:"reason" json:"reason"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Notes       string            `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}
