package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/internal/repository"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
)

type alertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) repository.AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) CreateBatch(ctx context.Context, alerts []*model.RiskAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO risk_alerts (
			id, patient_id, patient_name, risk_tier, readmission_probability,
			risk_factors, confidence, ml_prediction, priority, alert_status,
			assigned_staff_id, notes, follow_up_required, uploaded_by, is_active,
			diagnosis_info, medical_info, created_at, last_updated
		) VALUES (
			:id, :patient_id, :patient_name, :risk_tier, :readmission_probability,
			:risk_factors, :confidence, :ml_prediction, :priority, :alert_status,
			:assigned_staff_id, :notes, :follow_up_required, :uploaded_by, :is_active,
			:diagnosis_info, :medical_info, :created_at, :last_updated
		)
	`
	for _, alert := range alerts {
		if _, err := tx.NamedExecContext(ctx, query, alert); err != nil {
			return fmt.Errorf("failed to insert alert for patient %s: %w", alert.PatientID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func (r *alertRepository) Get(ctx context.Context, id uuid.UUID) (*model.RiskAlert, error) {
	query := `SELECT * FROM risk_alerts WHERE id = $1`
	var alert model.RiskAlert
	err := r.db.GetContext(ctx, &alert, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("alert", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &alert, nil
}

func (r *alertRepository) ListActive(ctx context.Context) ([]*model.RiskAlert, error) {
	query := `SELECT * FROM risk_alerts WHERE is_active = true`
	var alerts []*model.RiskAlert
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	return alerts, nil
}

// TransitionStatus is a compare-and-set on alert_status: the guard on the
// current status and is_active makes retried transitions apply zero rows
// instead of silently reapplying.
func (r *alertRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.AlertStatus, staffID *string, notes string, now time.Time) (int64, error) {
	query := `
		UPDATE risk_alerts
		SET alert_status = $1,
		    assigned_staff_id = COALESCE($2, assigned_staff_id),
		    notes = CASE WHEN $3 <> '' THEN $3 ELSE notes END,
		    last_updated = $4
		WHERE id = $5 AND alert_status = $6 AND is_active = true
	`
	res, err := r.db.ExecContext(ctx, query, to, staffID, notes, now, id, from)
	if err != nil {
		return 0, fmt.Errorf("failed to transition alert: %w", err)
	}
	return res.RowsAffected()
}

func (r *alertRepository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	query := `UPDATE risk_alerts SET is_active = false, last_updated = $1 WHERE id = $2 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, now, id)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate alert: %w", err)
	}
	return res.RowsAffected()
}

func (r *alertRepository) WindowCounts(ctx context.Context, from, to time.Time) (int, int, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE alert_status = 'Resolved') AS resolved
		FROM risk_alerts
		WHERE created_at >= $1 AND created_at < $2
	`
	var counts struct {
		Total    int `db:"total"`
		Resolved int `db:"resolved"`
	}
	if err := r.db.GetContext(ctx, &counts, query, from, to); err != nil {
		return 0, 0, fmt.Errorf("failed to count alerts in window: %w", err)
	}
	return counts.Total, counts.Resolved, nil
}
