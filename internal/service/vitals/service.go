package vitals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/internal/notifier"
	"github.com/medwatch/triage-api/internal/repository"
	vitalseval "github.com/medwatch/triage-api/internal/vitals"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
)

const defaultHistoryLimit = 10

type Service struct {
	repo     repository.VitalsRepository
	patients repository.PatientRepository
	sink     notifier.Sink
	logger   *zerolog.Logger
}

func NewService(repo repository.VitalsRepository, patients repository.PatientRepository, sink notifier.Sink, logger *zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		sink:     sink,
		logger:   logger,
	}
}

// Record evaluates one measurement session, persists it immutably, refreshes
// the patient's latest-vitals snapshot and fans out generated alerts to the
// notification sink. Corrections are recorded as new observations, never
// edits.
func (s *Service) Record(ctx context.Context, req *model.RecordVitalsRequest) (*model.VitalObservation, error) {
	if !hasAnyMeasurement(req) {
		return nil, apperrors.NewBadRequest("at least one vital sign measurement is required", nil)
	}

	result := vitalseval.Evaluate(vitalseval.Input{
		Systolic:         req.Systolic,
		Diastolic:        req.Diastolic,
		HeartRate:        req.HeartRate,
		Temperature:      req.Temperature,
		RespiratoryRate:  req.RespiratoryRate,
		OxygenSaturation: req.OxygenSaturation,
		Weight:           req.Weight,
		Height:           req.Height,
		BloodGlucose:     req.BloodGlucose,
		Cholesterol:      req.Cholesterol,
		PatientName:      req.PatientName,
	})

	now := time.Now()
	measurementTime := now
	if req.MeasurementTime != "" {
		if t, err := time.Parse(time.RFC3339, req.MeasurementTime); err == nil {
			measurementTime = t
		}
	}

	obs := &model.VitalObservation{
		ID:              uuid.New(),
		VitalRecordID:   fmt.Sprintf("VIT-%d", now.UnixMilli()),
		PatientID:       req.PatientID,
		PatientName:     req.PatientName,
		RecordedBy:      req.RecordedBy,
		RecordedByName:  req.RecordedByName,
		Vitals:          &result.Vitals,
		GeneratedAlerts: result.Alerts,
		Symptoms:        req.Symptoms,
		PainScale:       req.PainScale,
		Conditions:      req.Conditions,
		Notes:           req.Notes,
		Location:        req.Location,
		OverallStatus:   result.OverallStatus,
		MeasurementTime: measurementTime,
		CreatedAt:       now,
	}
	if err := s.marshalJSONFields(obs); err != nil {
		return nil, fmt.Errorf("failed to marshal vital fields: %w", err)
	}

	if err := s.repo.Create(ctx, obs); err != nil {
		return nil, fmt.Errorf("failed to record vitals: %w", err)
	}

	if err := s.patients.UpdateLatestVitals(ctx, req.PatientID, obs.VitalsJSON, now); err != nil {
		// The observation is already committed; a stale snapshot heals on
		// the next recording.
		s.logger.Error().Err(err).Str("patient_id", req.PatientID).Msg("failed to update latest vitals snapshot")
	}

	s.notify(ctx, obs)
	return obs, nil
}

// History returns a patient's observations, newest first.
func (s *Service) History(ctx context.Context, patientID string, limit int) ([]*model.VitalObservation, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	observations, err := s.repo.ListByPatient(ctx, patientID, limit)
	if err != nil {
		return nil, err
	}
	for _, obs := range observations {
		if err := s.unmarshalJSONFields(obs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal observation %s: %w", obs.ID, err)
		}
	}
	return observations, nil
}

// notify sends one notification per generated alert to the patient recipient
// and, for high priority, a broadcast to the doctors dashboard. Sink errors
// are logged, not propagated: the observation is already recorded.
func (s *Service) notify(ctx context.Context, obs *model.VitalObservation) {
	for _, alert := range obs.GeneratedAlerts {
		n := &model.Notification{
			RecipientID:   obs.PatientID,
			Type:          model.NotificationTypeVitalAlert,
			Priority:      alert.Priority,
			Title:         alert.Title,
			Message:       alert.Message,
			PatientID:     obs.PatientID,
			VitalRecordID: obs.VitalRecordID,
		}
		if err := s.sink.Notify(ctx, n); err != nil {
			s.logger.Error().Err(err).Str("title", alert.Title).Msg("failed to queue vital alert notification")
		}

		if alert.Priority != model.VitalAlertPriorityHigh {
			continue
		}
		broadcast := &model.Notification{
			RecipientID:   model.BroadcastRecipientDoctors,
			Type:          model.NotificationTypePatientVitalAlert,
			Priority:      model.VitalAlertPriorityHigh,
			Title:         fmt.Sprintf("Critical Vitals: %s", obs.PatientName),
			Message:       alert.Message,
			PatientID:     obs.PatientID,
			VitalRecordID: obs.VitalRecordID,
		}
		if err := s.sink.Notify(ctx, broadcast); err != nil {
			s.logger.Error().Err(err).Msg("failed to queue doctors broadcast")
		}
	}
}

func hasAnyMeasurement(req *model.RecordVitalsRequest) bool {
	return req.Systolic != nil || req.Diastolic != nil || req.HeartRate != nil ||
		req.Temperature != nil || req.RespiratoryRate != nil ||
		req.OxygenSaturation != nil || req.Weight != nil || req.Height != nil ||
		req.BloodGlucose != nil || req.Cholesterol != nil
}

func (s *Service) marshalJSONFields(obs *model.VitalObservation) error {
	if obs.Vitals != nil {
		data, err := json.Marshal(obs.Vitals)
		if err != nil {
			return err
		}
		obs.VitalsJSON = string(data)
	}
	data, err := json.Marshal(obs.GeneratedAlerts)
	if err != nil {
		return err
	}
	obs.AlertsJSON = string(data)
	return nil
}

func (s *Service) unmarshalJSONFields(obs *model.VitalObservation) error {
	if obs.VitalsJSON != "" {
		var set model.VitalSet
		if err := json.Unmarshal([]byte(obs.VitalsJSON), &set); err != nil {
			return err
		}
		obs.Vitals = &set
	}
	if obs.AlertsJSON != "" {
		if err := json.Unmarshal([]byte(obs.AlertsJSON), &obs.GeneratedAlerts); err != nil {
			return err
		}
	}
	return nil
}
