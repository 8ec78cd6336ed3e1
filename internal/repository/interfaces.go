package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medwatch/triage-api/internal/model"
)

// AlertRepository owns the canonical RiskAlert records. Alerts are never
// hard-deleted; Deactivate flips is_active and every read honors it.
type AlertRepository interface {
	CreateBatch(ctx context.Context, alerts []*model.RiskAlert) error
	Get(ctx context.Context, id uuid.UUID) (*model.RiskAlert, error)
	// ListActive is the single equality-filtered read every view and roll-up
	// derives from; compound filtering happens in the caller.
	ListActive(ctx context.Context) ([]*model.RiskAlert, error)
	// TransitionStatus applies a guarded status update: it only succeeds if
	// the row is still active and still in the expected current status.
	// Returns the number of rows changed so retries are detectable.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AlertStatus, staffID *string, notes string, now time.Time) (int64, error)
	Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
	// WindowCounts returns total and resolved alert counts created within
	// [from, to), for the rolling recovery-rate roll-up.
	WindowCounts(ctx context.Context, from, to time.Time) (total, resolved int, err error)
}

type PatientRepository interface {
	Count(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	UpdateLatestVitals(ctx context.Context, patientID string, vitalsJSON string, checkedAt time.Time) error
}

type AppointmentRepository interface {
	ListByDate(ctx context.Context, date string) ([]*model.Appointment, error)
}

type VitalsRepository interface {
	Create(ctx context.Context, obs *model.VitalObservation) error
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*model.VitalObservation, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListPending(ctx context.Context, limit int) ([]*model.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}
