package model

import (
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

// Patient is the minimal patient reference the engine reads for roll-ups and
// latest-vitals snapshots. The full registry lives in the surrounding portal.
type Patient struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	Name             string        `db:"name" json:"name"`
	Email            string        `db:"email" json:"email"`
	Status           PatientStatus `db:"status" json:"status"`
	LatestVitalsJSON string        `db:"latest_vitals" json:"-"`
	LatestVitals     *VitalSet     `db:"-" json:"latest_vitals,omitempty"`
	LastVitalCheck   *time.Time    `db:"last_vital_check" json:"last_vital_check,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}
