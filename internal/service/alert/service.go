package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/internal/repository"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
	"github.com/medwatch/triage-api/pkg/messaging"
	"github.com/medwatch/triage-api/pkg/metrics"
)

// ChangeChannel is the single unfiltered change feed every mutation publishes
// to and every live view consumes from.
const ChangeChannel = "alerts.changed"

// ChangeEvent is the feed payload. Consumers re-read the store rather than
// trusting the event body, so the payload stays small.
type ChangeEvent struct {
	Type    string    `json:"type"` // created | transitioned | deactivated
	AlertID uuid.UUID `json:"alert_id,omitempty"`
	At      time.Time `json:"at"`
}

// validNext encodes the lifecycle state machine. Resolved is terminal;
// anything not listed is an invalid transition.
var validNext = map[model.AlertStatus][]model.AlertStatus{
	model.AlertStatusNew:          {model.AlertStatusAcknowledged},
	model.AlertStatusAcknowledged: {model.AlertStatusInProgress, model.AlertStatusResolved},
	model.AlertStatusInProgress:   {model.AlertStatusResolved},
	model.AlertStatusResolved:     {},
}

type Service struct {
	repo    repository.AlertRepository
	broker  messaging.Broker
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

func NewService(repo repository.AlertRepository, broker messaging.Broker, logger *zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		broker:  broker,
		logger:  logger,
		metrics: m,
	}
}

// CreateFromBatch persists one alert per High/Medium classified record and
// returns the created IDs in input order. Low-risk records are classified
// but intentionally not stored. Failed records are skipped: their error
// markers already live in the batch summary.
func (s *Service) CreateFromBatch(ctx context.Context, items []model.BatchItem, uploadedBy string) ([]uuid.UUID, error) {
	now := time.Now()
	alerts := make([]*model.RiskAlert, 0, len(items))

	for _, item := range items {
		if item.Result == nil {
			continue
		}
		res := item.Result
		if res.RiskTier != model.RiskTierHigh && res.RiskTier != model.RiskTierMedium {
			continue
		}

		alert := &model.RiskAlert{
			ID:                     uuid.New(),
			PatientID:              item.Input.PatientID,
			PatientName:            item.Input.Name,
			RiskTier:               res.RiskTier,
			ReadmissionProbability: res.Probability,
			RiskFactors:            res.RiskFactors,
			Confidence:             res.Confidence,
			MLPrediction:           res.Prediction,
			Priority:               res.Priority,
			AlertStatus:            model.AlertStatusNew,
			FollowUpRequired:       true,
			UploadedBy:             uploadedBy,
			IsActive:               true,
			DiagnosisInfo:          diagnosisFromAttributes(item.Input.Attributes),
			MedicalInfo:            medicalFromAttributes(item.Input.Attributes),
			CreatedAt:              now,
			LastUpdated:            now,
		}
		if err := s.marshalJSONFields(alert); err != nil {
			return nil, fmt.Errorf("failed to marshal alert fields: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := s.repo.CreateBatch(ctx, alerts); err != nil {
		return nil, fmt.Errorf("failed to create alerts: %w", err)
	}

	ids := make([]uuid.UUID, len(alerts))
	for i, alert := range alerts {
		ids[i] = alert.ID
		if s.metrics != nil {
			s.metrics.AlertsCreated.WithLabelValues(string(alert.RiskTier)).Inc()
		}
	}

	if len(alerts) > 0 {
		s.publishChange(ctx, ChangeEvent{Type: "created", At: now})
	}

	s.logger.Info().
		Int("created", len(alerts)).
		Int("classified", len(items)).
		Str("uploaded_by", uploadedBy).
		Msg("persisted high-risk alerts from batch")

	return ids, nil
}

// Transition applies one lifecycle step. Acknowledging requires a staff ID,
// which becomes the assignment. The repository guard makes a retried
// transition fail with InvalidTransition instead of silently reapplying.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, newStatus model.AlertStatus, staffID, notes string) (*model.RiskAlert, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !current.IsActive {
		return nil, apperrors.NewInvalidTransition(
			fmt.Sprintf("alert %s is deactivated; its status is frozen", id))
	}
	if err := validateTransition(current.AlertStatus, newStatus); err != nil {
		if s.metrics != nil {
			s.metrics.InvalidTransitions.Inc()
		}
		return nil, err
	}

	var assigned *string
	if newStatus == model.AlertStatusAcknowledged {
		if staffID == "" {
			return nil, apperrors.NewBadRequest("staff ID is required to acknowledge an alert", nil)
		}
		assigned = &staffID
	}

	now := time.Now()
	affected, err := s.repo.TransitionStatus(ctx, id, current.AlertStatus, newStatus, assigned, notes, now)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if affected == 0 {
		// Lost a race or a retry of an already-applied transition.
		if s.metrics != nil {
			s.metrics.InvalidTransitions.Inc()
		}
		return nil, apperrors.NewInvalidTransition(
			fmt.Sprintf("alert %s is no longer in status %s", id, current.AlertStatus))
	}

	if s.metrics != nil {
		s.metrics.AlertTransitions.WithLabelValues(string(newStatus)).Inc()
	}
	s.publishChange(ctx, ChangeEvent{Type: "transitioned", AlertID: id, At: now})

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.unmarshalJSONFields(updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert fields: %w", err)
	}
	return updated, nil
}

// Deactivate soft-deletes an alert: excluded from every view and tally,
// retained for audit, status frozen. Orthogonal to the lifecycle.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	now := time.Now()
	affected, err := s.repo.Deactivate(ctx, id, now)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if affected == 0 {
		return apperrors.NewInvalidTransition(fmt.Sprintf("alert %s is already deactivated", id))
	}

	if s.metrics != nil {
		s.metrics.AlertsDeactivated.Inc()
	}
	s.publishChange(ctx, ChangeEvent{Type: "deactivated", AlertID: id, At: now})
	return nil
}

// ListActive returns all active alerts with JSON fields decoded.
func (s *Service) ListActive(ctx context.Context) ([]*model.RiskAlert, error) {
	alerts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, alert := range alerts {
		if err := s.unmarshalJSONFields(alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert %s: %w", alert.ID, err)
		}
	}
	return alerts, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.RiskAlert, error) {
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.unmarshalJSONFields(alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert fields: %w", err)
	}
	return alert, nil
}

func validateTransition(from, to model.AlertStatus) error {
	if from == model.AlertStatusResolved {
		return apperrors.NewInvalidTransition("alert is already resolved")
	}
	for _, allowed := range validNext[from] {
		if to == allowed {
			return nil
		}
	}
	return apperrors.NewInvalidTransition(
		fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// publishChange feeds the live view. A publish failure must not fail the
// mutation that already committed; it is logged and the next successful
// publish resynchronizes observers.
func (s *Service) publishChange(ctx context.Context, event ChangeEvent) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, ChangeChannel, event); err != nil {
		s.logger.Error().Err(err).Str("type", event.Type).Msg("failed to publish alert change event")
	}
}

func (s *Service) marshalJSONFields(alert *model.RiskAlert) error {
	if alert.DiagnosisInfo != nil {
		data, err := json.Marshal(alert.DiagnosisInfo)
		if err != nil {
			return err
		}
		alert.DiagnosisInfoJSON = string(data)
	}
	if alert.MedicalInfo != nil {
		data, err := json.Marshal(alert.MedicalInfo)
		if err != nil {
			return err
		}
		alert.MedicalInfoJSON = string(data)
	}
	return nil
}

func (s *Service) unmarshalJSONFields(alert *model.RiskAlert) error {
	if alert.DiagnosisInfoJSON != "" {
		var info model.DiagnosisInfo
		if err := json.Unmarshal([]byte(alert.DiagnosisInfoJSON), &info); err != nil {
			return err
		}
		alert.DiagnosisInfo = &info
	}
	if alert.MedicalInfoJSON != "" {
		var info model.MedicalInfo
		if err := json.Unmarshal([]byte(alert.MedicalInfoJSON), &info); err != nil {
			return err
		}
		alert.MedicalInfo = &info
	}
	return nil
}

func diagnosisFromAttributes(attrs model.JSONMap) *model.DiagnosisInfo {
	if attrs == nil {
		return nil
	}
	info := &model.DiagnosisInfo{
		Primary:   stringAttr(attrs, "diag_1"),
		Secondary: stringAttr(attrs, "diag_2"),
		Tertiary:  stringAttr(attrs, "diag_3"),
	}
	if info.Primary == "" && info.Secondary == "" && info.Tertiary == "" {
		return nil
	}
	return info
}

func medicalFromAttributes(attrs model.JSONMap) *model.MedicalInfo {
	if attrs == nil {
		return nil
	}
	info := &model.MedicalInfo{
		TimeInHospital: intAttr(attrs, "time_in_hospital"),
		Medications:    intAttr(attrs, "num_medications"),
		LabProcedures:  intAttr(attrs, "num_lab_procedures"),
		Specialty:      stringAttr(attrs, "medical_specialty"),
	}
	if info.TimeInHospital == 0 && info.Medications == 0 && info.LabProcedures == 0 && info.Specialty == "" {
		return nil
	}
	return info
}

func stringAttr(attrs model.JSONMap, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

func intAttr(attrs model.JSONMap, key string) int {
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
