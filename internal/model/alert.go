package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type RiskTier string

const (
	RiskTierHigh   RiskTier = "High"
	RiskTierMedium RiskTier = "Medium"
	RiskTierLow    RiskTier = "Low"
)

type AlertPriority string

const (
	AlertPriorityCritical AlertPriority = "Critical"
	AlertPriorityHigh     AlertPriority = "High"
	AlertPriorityMedium   AlertPriority = "Medium"
	AlertPriorityLow      AlertPriority = "Low"
)

type AlertStatus string

const (
	AlertStatusNew          AlertStatus = "New"
	AlertStatusAcknowledged AlertStatus = "Acknowledged"
	AlertStatusInProgress   AlertStatus = "InProgress"
	AlertStatusResolved     AlertStatus = "Resolved"
)

// DiagnosisInfo carries the diagnosis codes supplied with an upload batch.
type DiagnosisInfo struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
	Tertiary  string `json:"tertiary,omitempty"`
}

// MedicalInfo carries supplementary encounter fields from the upload batch.
type MedicalInfo struct {
	TimeInHospital int    `json:"time_in_hospital,omitempty"`
	Medications    int    `json:"medications,omitempty"`
	LabProcedures  int    `json:"lab_procedures,omitempty"`
	Specialty      string `json:"specialty,omitempty"`
}

// RiskAlert is one persisted alert per (patient, risk-bearing event). Only
// High and Medium tier classifications are ever stored; Low risk inputs are
// classified but generate no alert.
type RiskAlert struct {
	ID                     uuid.UUID      `db:"id" json:"id"`
	PatientID              string         `db:"patient_id" json:"patient_id"`
	PatientName            string         `db:"patient_name" json:"patient_name"`
	RiskTier               RiskTier       `db:"risk_tier" json:"risk_tier"`
	ReadmissionProbability float64        `db:"readmission_probability" json:"readmission_probability"`
	RiskFactors            pq.StringArray `db:"risk_factors" json:"risk_factors"`
	Confidence             string         `db:"confidence" json:"confidence"`
	MLPrediction           string         `db:"ml_prediction" json:"ml_prediction"`
	Priority               AlertPriority  `db:"priority" json:"priority"`
	AlertStatus            AlertStatus    `db:"alert_status" json:"alert_status"`
	AssignedStaffID        *string        `db:"assigned_staff_id" json:"assigned_staff_id,omitempty"`
	Notes                  string         `db:"notes" json:"notes,omitempty"`
	FollowUpRequired       bool           `db:"follow_up_required" json:"follow_up_required"`
	UploadedBy             string         `db:"uploaded_by" json:"uploaded_by"`
	IsActive               bool           `db:"is_active" json:"is_active"`
	DiagnosisInfoJSON      string         `db:"diagnosis_info" json:"-"`
	MedicalInfoJSON        string         `db:"medical_info" json:"-"`
	DiagnosisInfo          *DiagnosisInfo `db:"-" json:"diagnosis_info,omitempty"`
	MedicalInfo            *MedicalInfo   `db:"-" json:"medical_info,omitempty"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
	LastUpdated            time.Time      `db:"last_updated" json:"last_updated"`
}

// PriorityForTier derives alert priority from risk tier. Low tier alerts are
// never persisted, so they carry no priority.
func PriorityForTier(tier RiskTier) AlertPriority {
	switch tier {
	case RiskTierHigh:
		return AlertPriorityCritical
	case RiskTierMedium:
		return AlertPriorityHigh
	default:
		return ""
	}
}

// AlertFilter narrows the live view to a tier and/or lifecycle status.
type AlertFilter struct {
	RiskTier    RiskTier    `json:"risk_tier,omitempty" form:"risk_tier"`
	AlertStatus AlertStatus `json:"alert_status,omitempty" form:"alert_status"`
}

type TransitionAlertRequest struct {
	NewStatus AlertStatus `json:"new_status" binding:"required,alert_status"`
	StaffID   string      `json:"staff_id"`
	Notes     string      `json:"notes"`
}

// AlertStats is the tally block for the alerts dashboard, computed from a
// single full read of active alerts.
type AlertStats struct {
	Total        int `json:"total"`
	Critical     int `json:"critical"`
	High         int `json:"high"`
	NewAlerts    int `json:"new_alerts"`
	Acknowledged int `json:"acknowledged"`
	Resolved     int `json:"resolved"`
}
