package model

// DashboardStats feeds the four stat tiles on the staff dashboard. Each tile
// is computed independently; a failed roll-up renders its sentinel change
// text while siblings keep their real values.
type DashboardStats struct {
	TotalPatients       int    `json:"total_patients"`
	TotalPatientsChange string `json:"total_patients_change"`
	TodayAppointments   int    `json:"today_appointments"`
	AppointmentsChange  string `json:"appointments_change"`
	HighRiskPatients    int    `json:"high_risk_patients"`
	HighRiskChange      string `json:"high_risk_change"`
	AverageRecovery     int    `json:"average_recovery"`
	RecoveryChange      string `json:"recovery_change"`
}
