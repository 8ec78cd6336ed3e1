package postgres

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/internal/repository"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, repository.AlertRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "postgres")
	return mock, NewAlertRepository(sqlxDB)
}

func alertColumns() []string {
	return []string{
		"id", "patient_id", "patient_name", "risk_tier", "readmission_probability",
		"risk_factors", "confidence", "ml_prediction", "priority", "alert_status",
		"assigned_staff_id", "notes", "follow_up_required", "uploaded_by", "is_active",
		"diagnosis_info", "medical_info", "created_at", "last_updated",
	}
}

func alertRow(id uuid.UUID, tier model.RiskTier, status model.AlertStatus, active bool) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id.String(), "P-1", "Jordan Reyes", string(tier), 0.85,
		"{}", "85.0%", "readmitted", string(model.PriorityForTier(tier)), string(status),
		nil, "", true, "staff-1", active,
		"", "", now, now,
	}
}

func TestGetAlert(t *testing.T) {
	mock, repo := setupMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM risk_alerts WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(alertColumns()).AddRow(alertRow(id, model.RiskTierHigh, model.AlertStatusNew, true)...))

	alert, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, alert.ID)
	assert.Equal(t, model.RiskTierHigh, alert.RiskTier)
	assert.Equal(t, model.AlertStatusNew, alert.AlertStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAlertNotFound(t *testing.T) {
	mock, repo := setupMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM risk_alerts WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(alertColumns()))

	_, err := repo.Get(context.Background(), id)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveFiltersDeactivated(t *testing.T) {
	mock, repo := setupMockDB(t)

	rows := sqlmock.NewRows(alertColumns()).
		AddRow(alertRow(uuid.New(), model.RiskTierHigh, model.AlertStatusNew, true)...).
		AddRow(alertRow(uuid.New(), model.RiskTierMedium, model.AlertStatusAcknowledged, true)...)

	mock.ExpectQuery(`SELECT \* FROM risk_alerts WHERE is_active = true`).
		WillReturnRows(rows)

	alerts, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchRunsInTransaction(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO risk_alerts`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO risk_alerts`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	alerts := []*model.RiskAlert{
		{ID: uuid.New(), PatientID: "P-1", RiskTier: model.RiskTierHigh, AlertStatus: model.AlertStatusNew},
		{ID: uuid.New(), PatientID: "P-2", RiskTier: model.RiskTierMedium, AlertStatus: model.AlertStatusNew},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), alerts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchRollsBackOnFailure(t *testing.T) {
	mock, repo := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO risk_alerts`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO risk_alerts`).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	alerts := []*model.RiskAlert{
		{ID: uuid.New(), PatientID: "P-1"},
		{ID: uuid.New(), PatientID: "P-2"},
	}
	assert.Error(t, repo.CreateBatch(context.Background(), alerts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBatchEmptyIsNoop(t *testing.T) {
	mock, repo := setupMockDB(t)

	require.NoError(t, repo.CreateBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusGuard(t *testing.T) {
	mock, repo := setupMockDB(t)
	id := uuid.New()
	now := time.Now()
	staffID := "staff-7"

	mock.ExpectExec(`UPDATE risk_alerts`).
		WithArgs(string(model.AlertStatusAcknowledged), &staffID, "", now, id, string(model.AlertStatusNew)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.TransitionStatus(context.Background(), id, model.AlertStatusNew, model.AlertStatusAcknowledged, &staffID, "", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusStaleGuardAppliesNothing(t *testing.T) {
	mock, repo := setupMockDB(t)
	id := uuid.New()
	now := time.Now()

	// The row moved on since the caller's read; the guard matches no rows.
	mock.ExpectExec(`UPDATE risk_alerts`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.TransitionStatus(context.Background(), id, model.AlertStatusNew, model.AlertStatusAcknowledged, nil, "", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateAlreadyInactive(t *testing.T) {
	mock, repo := setupMockDB(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectExec(`UPDATE risk_alerts SET is_active = false`).
		WithArgs(now, id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Deactivate(context.Background(), id, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWindowCounts(t *testing.T) {
	mock, repo := setupMockDB(t)
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS total`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"total", "resolved"}).AddRow(12, 9))

	total, resolved, err := repo.WindowCounts(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Equal(t, 9, resolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
