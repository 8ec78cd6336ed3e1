package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/internal/repository"
)

type vitalsRepository struct {
	db *sqlx.DB
}

func NewVitalsRepository(db *sqlx.DB) repository.VitalsRepository {
	return &vitalsRepository{db: db}
}

func (r *vitalsRepository) Create(ctx context.Context, obs *model.VitalObservation) error {
	query := `
		INSERT INTO vital_observations (
			id, vital_record_id, patient_id, patient_name, recorded_by,
			recorded_by_name, vitals, alerts, symptoms, pain_scale, conditions,
			notes, location, overall_status, measurement_time, created_at
		) VALUES (
			:id, :vital_record_id, :patient_id, :patient_name, :recorded_by,
			:recorded_by_name, :vitals, :alerts, :symptoms, :pain_scale, :conditions,
			:notes, :location, :overall_status, :measurement_time, :created_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, obs); err != nil {
		return fmt.Errorf("failed to create vital observation: %w", err)
	}
	return nil
}

func (r *vitalsRepository) ListByPatient(ctx context.Context, patientID string, limit int) ([]*model.VitalObservation, error) {
	query := `
		SELECT * FROM vital_observations
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var observations []*model.VitalObservation
	if err := r.db.SelectContext(ctx, &observations, query, patientID, limit); err != nil {
		return nil, fmt.Errorf("failed to list vitals for patient %s: %w", patientID, err)
	}
	return observations, nil
}
