package model

import (
	"time"

	"github.com/google/uuid"
)

type VitalStatus string

const (
	VitalStatusLow      VitalStatus = "low"
	VitalStatusNormal   VitalStatus = "normal"
	VitalStatusElevated VitalStatus = "elevated"
	VitalStatusHigh     VitalStatus = "high"
)

type OverallStatus string

const (
	OverallStatusNormal   OverallStatus = "normal"
	OverallStatusElevated OverallStatus = "elevated"
	OverallStatusAbnormal OverallStatus = "abnormal"
)

// VitalChannel is one named measurement with its evaluated status. Channels
// that carry no clinical range (respiratory rate, glucose, cholesterol,
// raw weight/height) have an empty status.
type VitalChannel struct {
	Value  float64     `json:"value"`
	Unit   string      `json:"unit,omitempty"`
	Status VitalStatus `json:"status,omitempty"`
}

// BloodPressureChannel keeps systolic and diastolic together; the status is
// evaluated over the pair.
type BloodPressureChannel struct {
	Systolic  float64     `json:"systolic"`
	Diastolic float64     `json:"diastolic"`
	Combined  string      `json:"combined,omitempty"`
	Status    VitalStatus `json:"status,omitempty"`
}

// VitalSet is the evaluated measurement session. Absent channels are nil.
type VitalSet struct {
	BloodPressure    *BloodPressureChannel `json:"blood_pressure,omitempty"`
	HeartRate        *VitalChannel         `json:"heart_rate,omitempty"`
	Temperature      *VitalChannel         `json:"temperature,omitempty"`
	RespiratoryRate  *VitalChannel         `json:"respiratory_rate,omitempty"`
	OxygenSaturation *VitalChannel         `json:"oxygen_saturation,omitempty"`
	Weight           *VitalChannel         `json:"weight,omitempty"`
	Height           *VitalChannel         `json:"height,omitempty"`
	BMI              *VitalChannel         `json:"bmi,omitempty"`
	BloodGlucose     *VitalChannel         `json:"blood_glucose,omitempty"`
	Cholesterol      *VitalChannel         `json:"cholesterol,omitempty"`
}

// VitalAlert is the transient notification artifact generated at evaluation
// time. It is not a RiskAlert and has no lifecycle.
type VitalAlert struct {
	Priority string `json:"priority"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// Vital alert priorities. Kept distinct from AlertPriority: the two write
// paths are separate entity types.
const (
	VitalAlertPriorityLow    = "low"
	VitalAlertPriorityMedium = "medium"
	VitalAlertPriorityHigh   = "high"
)

// VitalObservation is one recorded measurement session. Immutable once
// created; corrections are new observations.
type VitalObservation struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	VitalRecordID   string        `db:"vital_record_id" json:"vital_record_id"`
	PatientID       string        `db:"patient_id" json:"patient_id"`
	PatientName     string        `db:"patient_name" json:"patient_name"`
	RecordedBy      string        `db:"recorded_by" json:"recorded_by"`
	RecordedByName  string        `db:"recorded_by_name" json:"recorded_by_name"`
	VitalsJSON      string        `db:"vitals" json:"-"`
	AlertsJSON      string        `db:"alerts" json:"-"`
	Vitals          *VitalSet     `db:"-" json:"vitals"`
	GeneratedAlerts []VitalAlert  `db:"-" json:"generated_alerts"`
	Symptoms        string        `db:"symptoms" json:"symptoms,omitempty"`
	PainScale       *int          `db:"pain_scale" json:"pain_scale,omitempty"`
	Conditions      string        `db:"conditions" json:"conditions,omitempty"`
	Notes           string        `db:"notes" json:"notes,omitempty"`
	Location        string        `db:"location" json:"location,omitempty"`
	OverallStatus   OverallStatus `db:"overall_status" json:"overall_status"`
	MeasurementTime time.Time     `db:"measurement_time" json:"measurement_time"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

// RecordVitalsRequest is the vitals-entry form payload. Every measurement is
// optional, but at least one must be present.
type RecordVitalsRequest struct {
	PatientID        string   `json:"patient_id" binding:"required"`
	PatientName      string   `json:"patient_name" binding:"required"`
	RecordedBy       string   `json:"recorded_by"`
	RecordedByName   string   `json:"recorded_by_name"`
	Systolic         *float64 `json:"systolic"`
	Diastolic        *float64 `json:"diastolic"`
	HeartRate        *float64 `json:"heart_rate"`
	Temperature      *float64 `json:"temperature"`
	RespiratoryRate  *float64 `json:"respiratory_rate"`
	OxygenSaturation *float64 `json:"oxygen_saturation"`
	Weight           *float64 `json:"weight"`
	Height           *float64 `json:"height"`
	BloodGlucose     *float64 `json:"blood_glucose"`
	Cholesterol      *float64 `json:"cholesterol"`
	Symptoms         string   `json:"symptoms"`
	PainScale        *int     `json:"pain_scale"`
	Conditions       string   `json:"conditions"`
	Notes            string   `json:"notes"`
	Location         string   `json:"location"`
	MeasurementTime  string   `json:"measurement_time"`
}
