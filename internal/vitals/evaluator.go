package vitals

import (
	"fmt"

	"github.com/medwatch/triage-api/internal/model"
)

// Clinical reference ranges. The status table is separate from the
// escalation thresholds below: statuses describe the reading, escalations
// decide whether an alert is raised.
const (
	systolicLow   = 90
	systolicHigh  = 140
	diastolicLow  = 60
	diastolicHigh = 90
	heartRateLow  = 60
	heartRateHigh = 100
	tempLowF      = 97.0
	tempHighF     = 99.5
	spo2Low       = 95
	bmiLow        = 18.5
	bmiElevated   = 25
	bmiHigh       = 30

	crisisSystolic  = 180
	crisisDiastolic = 120
	tachycardiaHR   = 120
	bradycardiaHR   = 50
	criticalSpO2    = 90
	highFeverF      = 103
)

// Input is one measurement session. Every channel is optional; absent
// channels are skipped, never errors.
type Input struct {
	Systolic         *float64
	Diastolic        *float64
	HeartRate        *float64
	Temperature      *float64
	RespiratoryRate  *float64
	OxygenSaturation *float64
	Weight           *float64
	Height           *float64
	BloodGlucose     *float64
	Cholesterol      *float64
	PatientName      string
}

// Result carries the evaluated channels, the derived overall status and any
// escalation alerts.
type Result struct {
	Vitals        model.VitalSet
	OverallStatus model.OverallStatus
	Alerts        []model.VitalAlert
}

// ComputeBMI derives BMI from imperial units: lbs to kg, inches to meters.
func ComputeBMI(weightLbs, heightIn float64) float64 {
	heightM := heightIn * 0.0254
	return (weightLbs * 0.453592) / (heightM * heightM)
}

func bpStatus(systolic, diastolic float64) model.VitalStatus {
	if systolic > systolicHigh || diastolic > diastolicHigh {
		return model.VitalStatusHigh
	}
	if systolic < systolicLow || diastolic < diastolicLow {
		return model.VitalStatusLow
	}
	return model.VitalStatusNormal
}

func heartRateStatus(hr float64) model.VitalStatus {
	if hr > heartRateHigh {
		return model.VitalStatusHigh
	}
	if hr < heartRateLow {
		return model.VitalStatusLow
	}
	return model.VitalStatusNormal
}

func temperatureStatus(temp float64) model.VitalStatus {
	if temp > tempHighF {
		return model.VitalStatusHigh
	}
	if temp < tempLowF {
		return model.VitalStatusLow
	}
	return model.VitalStatusNormal
}

func oxygenStatus(spo2 float64) model.VitalStatus {
	if spo2 < spo2Low {
		return model.VitalStatusLow
	}
	return model.VitalStatusNormal
}

func bmiStatus(bmi float64) model.VitalStatus {
	if bmi < bmiLow {
		return model.VitalStatusLow
	}
	if bmi > bmiHigh {
		return model.VitalStatusHigh
	}
	if bmi > bmiElevated {
		return model.VitalStatusElevated
	}
	return model.VitalStatusNormal
}

// Evaluate maps raw measurements to per-channel statuses, an overall status
// and prioritized escalation alerts. Pure: same input, same output.
func Evaluate(in Input) Result {
	var set model.VitalSet

	if in.Systolic != nil && in.Diastolic != nil {
		set.BloodPressure = &model.BloodPressureChannel{
			Systolic:  *in.Systolic,
			Diastolic: *in.Diastolic,
			Combined:  fmt.Sprintf("%g/%g", *in.Systolic, *in.Diastolic),
			Status:    bpStatus(*in.Systolic, *in.Diastolic),
		}
	}
	if in.HeartRate != nil {
		set.HeartRate = &model.VitalChannel{Value: *in.HeartRate, Unit: "bpm", Status: heartRateStatus(*in.HeartRate)}
	}
	if in.Temperature != nil {
		set.Temperature = &model.VitalChannel{Value: *in.Temperature, Unit: "°F", Status: temperatureStatus(*in.Temperature)}
	}
	if in.RespiratoryRate != nil {
		set.RespiratoryRate = &model.VitalChannel{Value: *in.RespiratoryRate, Unit: "breaths/min"}
	}
	if in.OxygenSaturation != nil {
		set.OxygenSaturation = &model.VitalChannel{Value: *in.OxygenSaturation, Unit: "%", Status: oxygenStatus(*in.OxygenSaturation)}
	}
	if in.Weight != nil {
		set.Weight = &model.VitalChannel{Value: *in.Weight, Unit: "lbs"}
	}
	if in.Height != nil {
		set.Height = &model.VitalChannel{Value: *in.Height, Unit: "inches"}
	}
	// BMI is derived, never entered directly.
	if in.Weight != nil && in.Height != nil && *in.Height > 0 {
		bmi := ComputeBMI(*in.Weight, *in.Height)
		set.BMI = &model.VitalChannel{Value: bmi, Status: bmiStatus(bmi)}
	}
	if in.BloodGlucose != nil {
		set.BloodGlucose = &model.VitalChannel{Value: *in.BloodGlucose, Unit: "mg/dL"}
	}
	if in.Cholesterol != nil {
		set.Cholesterol = &model.VitalChannel{Value: *in.Cholesterol, Unit: "mg/dL"}
	}

	return Result{
		Vitals:        set,
		OverallStatus: overallStatus(set),
		Alerts:        generateAlerts(set, in.PatientName),
	}
}

func overallStatus(set model.VitalSet) model.OverallStatus {
	statuses := collectStatuses(set)

	for _, s := range statuses {
		if s == model.VitalStatusHigh || s == model.VitalStatusLow {
			return model.OverallStatusAbnormal
		}
	}
	for _, s := range statuses {
		if s == model.VitalStatusElevated {
			return model.OverallStatusElevated
		}
	}
	return model.OverallStatusNormal
}

func collectStatuses(set model.VitalSet) []model.VitalStatus {
	var statuses []model.VitalStatus
	if set.BloodPressure != nil {
		statuses = append(statuses, set.BloodPressure.Status)
	}
	for _, ch := range []*model.VitalChannel{set.HeartRate, set.Temperature, set.OxygenSaturation, set.BMI} {
		if ch != nil && ch.Status != "" {
			statuses = append(statuses, ch.Status)
		}
	}
	return statuses
}

// generateAlerts applies the escalation rules. These are independent of the
// status table: a crisis reading yields exactly one high alert, not a
// doubled-up medium one.
func generateAlerts(set model.VitalSet, patientName string) []model.VitalAlert {
	var alerts []model.VitalAlert

	if bp := set.BloodPressure; bp != nil {
		if bp.Systolic > crisisSystolic || bp.Diastolic > crisisDiastolic {
			alerts = append(alerts, model.VitalAlert{
				Priority: model.VitalAlertPriorityHigh,
				Title:    "Hypertensive Crisis",
				Message:  fmt.Sprintf("%s has critically high blood pressure: %s", patientName, bp.Combined),
			})
		} else if bp.Status == model.VitalStatusHigh {
			alerts = append(alerts, model.VitalAlert{
				Priority: model.VitalAlertPriorityMedium,
				Title:    "High Blood Pressure",
				Message:  fmt.Sprintf("%s has elevated blood pressure: %s", patientName, bp.Combined),
			})
		}
	}

	if hr := set.HeartRate; hr != nil && (hr.Value > tachycardiaHR || hr.Value < bradycardiaHR) {
		kind := "tachycardia"
		if hr.Value < bradycardiaHR {
			kind = "bradycardia"
		}
		alerts = append(alerts, model.VitalAlert{
			Priority: model.VitalAlertPriorityHigh,
			Title:    "Abnormal Heart Rate",
			Message:  fmt.Sprintf("%s has %s: %g bpm", patientName, kind, hr.Value),
		})
	}

	if spo2 := set.OxygenSaturation; spo2 != nil && spo2.Value < criticalSpO2 {
		alerts = append(alerts, model.VitalAlert{
			Priority: model.VitalAlertPriorityHigh,
			Title:    "Low Oxygen Saturation",
			Message:  fmt.Sprintf("%s has critically low oxygen saturation: %g%%", patientName, spo2.Value),
		})
	}

	if temp := set.Temperature; temp != nil && temp.Value > highFeverF {
		alerts = append(alerts, model.VitalAlert{
			Priority: model.VitalAlertPriorityHigh,
			Title:    "High Fever",
			Message:  fmt.Sprintf("%s has high fever: %g°F", patientName, temp.Value),
		})
	}

	return alerts
}
