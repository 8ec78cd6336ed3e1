package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

const (
	NotificationTypeVitalAlert        = "vital_alert"
	NotificationTypePatientVitalAlert = "patient_vital_alert"

	// BroadcastRecipientDoctors routes high-priority vital alerts to every
	// doctor dashboard.
	BroadcastRecipientDoctors = "doctors"
)

// Notification is the sink-side record of one {recipient, alert} delivery.
type Notification struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	RecipientID   string             `db:"recipient_id" json:"recipient_id"`
	Type          string             `db:"type" json:"type"`
	Priority      string             `db:"priority" json:"priority"`
	Title         string             `db:"title" json:"title"`
	Message       string             `db:"message" json:"message"`
	PatientID     string             `db:"patient_id" json:"patient_id,omitempty"`
	VitalRecordID string             `db:"vital_record_id" json:"vital_record_id,omitempty"`
	AlertID       *uuid.UUID         `db:"alert_id" json:"alert_id,omitempty"`
	Read          bool               `db:"read" json:"read"`
	Status        NotificationStatus `db:"status" json:"status"`
	RetryCount    int                `db:"retry_count" json:"retry_count"`
	LastError     string             `db:"last_error" json:"last_error,omitempty"`
	SentAt        *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}
