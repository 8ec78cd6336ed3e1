package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medwatch/triage-api/internal/repository"
)

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM patients`); err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

func (r *patientRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM patients WHERE created_at >= $1`
	if err := r.db.GetContext(ctx, &count, query, since); err != nil {
		return 0, fmt.Errorf("failed to count recent patients: %w", err)
	}
	return count, nil
}

func (r *patientRepository) UpdateLatestVitals(ctx context.Context, patientID string, vitalsJSON string, checkedAt time.Time) error {
	query := `UPDATE patients SET latest_vitals = $1, last_vital_check = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, vitalsJSON, checkedAt, time.Now(), patientID)
	if err != nil {
		return fmt.Errorf("failed to update latest vitals: %w", err)
	}
	return nil
}
