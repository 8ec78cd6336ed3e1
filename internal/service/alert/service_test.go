package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medwatch/triage-api/internal/model"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
)

// fakeAlertRepo mimics the store's compare-and-set transition guard in
// memory.
type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]*model.RiskAlert
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[uuid.UUID]*model.RiskAlert)}
}

func (r *fakeAlertRepo) CreateBatch(_ context.Context, alerts []*model.RiskAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range alerts {
		cp := *a
		r.alerts[a.ID] = &cp
	}
	return nil
}

func (r *fakeAlertRepo) Get(_ context.Context, id uuid.UUID) (*model.RiskAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, apperrors.NewNotFound("alert", nil)
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAlertRepo) ListActive(_ context.Context) ([]*model.RiskAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RiskAlert
	for _, a := range r.alerts {
		if a.IsActive {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to model.AlertStatus, staffID *string, notes string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok || !a.IsActive || a.AlertStatus != from {
		return 0, nil
	}
	a.AlertStatus = to
	if staffID != nil {
		a.AssignedStaffID = staffID
	}
	if notes != "" {
		a.Notes = notes
	}
	a.LastUpdated = now
	return 1, nil
}

func (r *fakeAlertRepo) Deactivate(_ context.Context, id uuid.UUID, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok || !a.IsActive {
		return 0, nil
	}
	a.IsActive = false
	a.LastUpdated = now
	return 1, nil
}

func (r *fakeAlertRepo) WindowCounts(_ context.Context, _, _ time.Time) (int, int, error) {
	return 0, 0, nil
}

// fakeBroker records published events.
type fakeBroker struct {
	mu     sync.Mutex
	events []interface{}
}

func (b *fakeBroker) Publish(_ context.Context, _ string, msg interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, msg)
	return nil
}

func (b *fakeBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return make(chan []byte), nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func newTestService(t *testing.T) (*Service, *fakeAlertRepo, *fakeBroker) {
	t.Helper()
	repo := newFakeAlertRepo()
	broker := &fakeBroker{}
	logger := zerolog.Nop()
	return NewService(repo, broker, &logger, nil), repo, broker
}

func seedAlert(t *testing.T, svc *Service, tier model.RiskTier, probability float64) uuid.UUID {
	t.Helper()
	ids, err := svc.CreateFromBatch(context.Background(), []model.BatchItem{
		{
			Input: model.ClassificationInput{PatientID: "P-1", Name: "Jordan Reyes"},
			Result: &model.ClassificationResult{
				RiskTier:    tier,
				Priority:    model.PriorityForTier(tier),
				Probability: probability,
				RiskFactors: []string{"Very high readmission probability"},
				Confidence:  "85.0%",
			},
		},
	}, "staff-1")
	require.NoError(t, err)
	require.Len(t, ids, 1)
	return ids[0]
}

func TestCreateFromBatchSkipsLowAndFailed(t *testing.T) {
	svc, repo, broker := newTestService(t)

	ids, err := svc.CreateFromBatch(context.Background(), []model.BatchItem{
		{
			Input:  model.ClassificationInput{PatientID: "P-1"},
			Result: &model.ClassificationResult{RiskTier: model.RiskTierHigh, Probability: 0.9},
		},
		{
			Input:  model.ClassificationInput{PatientID: "P-2"},
			Result: &model.ClassificationResult{RiskTier: model.RiskTierLow, Probability: 0.1},
		},
		{
			Input: model.ClassificationInput{PatientID: "P-3"},
			Error: "backend refused record",
		},
		{
			Input:  model.ClassificationInput{PatientID: "P-4"},
			Result: &model.ClassificationResult{RiskTier: model.RiskTierMedium, Probability: 0.5},
		},
	}, "staff-1")
	require.NoError(t, err)

	assert.Len(t, ids, 2)
	assert.Len(t, repo.alerts, 2)
	assert.Equal(t, 1, broker.count())

	for _, a := range repo.alerts {
		assert.Equal(t, model.AlertStatusNew, a.AlertStatus)
		assert.True(t, a.IsActive)
		assert.True(t, a.FollowUpRequired)
		assert.Equal(t, "staff-1", a.UploadedBy)
	}
}

func TestCreateFromBatchCapturesDiagnosisAndMedicalInfo(t *testing.T) {
	svc, _, _ := newTestService(t)

	ids, err := svc.CreateFromBatch(context.Background(), []model.BatchItem{
		{
			Input: model.ClassificationInput{
				PatientID: "P-1",
				Attributes: model.JSONMap{
					"diag_1":           "428",
					"diag_2":           "250.01",
					"time_in_hospital": float64(7),
					"num_medications":  float64(18),
				},
			},
			Result: &model.ClassificationResult{RiskTier: model.RiskTierHigh, Probability: 0.8},
		},
	}, "staff-1")
	require.NoError(t, err)

	alert, err := svc.Get(context.Background(), ids[0])
	require.NoError(t, err)

	require.NotNil(t, alert.DiagnosisInfo)
	assert.Equal(t, "428", alert.DiagnosisInfo.Primary)
	assert.Equal(t, "250.01", alert.DiagnosisInfo.Secondary)
	require.NotNil(t, alert.MedicalInfo)
	assert.Equal(t, 7, alert.MedicalInfo.TimeInHospital)
	assert.Equal(t, 18, alert.MedicalInfo.Medications)
}

func TestTransitionHappyPath(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := seedAlert(t, svc, model.RiskTierHigh, 0.85)
	ctx := context.Background()

	acked, err := svc.Transition(ctx, id, model.AlertStatusAcknowledged, "staff-7", "")
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusAcknowledged, acked.AlertStatus)
	require.NotNil(t, acked.AssignedStaffID)
	assert.Equal(t, "staff-7", *acked.AssignedStaffID)

	inProgress, err := svc.Transition(ctx, id, model.AlertStatusInProgress, "", "working it")
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusInProgress, inProgress.AlertStatus)
	assert.Equal(t, "working it", inProgress.Notes)

	resolved, err := svc.Transition(ctx, id, model.AlertStatusResolved, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusResolved, resolved.AlertStatus)
	// Earlier notes survive a transition without new notes.
	assert.Equal(t, "working it", resolved.Notes)
}

func TestTransitionAcknowledgedStraightToResolved(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := seedAlert(t, svc, model.RiskTierMedium, 0.5)
	ctx := context.Background()

	_, err := svc.Transition(ctx, id, model.AlertStatusAcknowledged, "staff-7", "")
	require.NoError(t, err)

	resolved, err := svc.Transition(ctx, id, model.AlertStatusResolved, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusResolved, resolved.AlertStatus)
}

func TestTransitionRejectsSkippingAcknowledge(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := seedAlert(t, svc, model.RiskTierHigh, 0.85)
	ctx := context.Background()

	for _, target := range []model.AlertStatus{model.AlertStatusInProgress, model.AlertStatusResolved} {
		_, err := svc.Transition(ctx, id, target, "staff-7", "")
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidTransition(err), "New -> %s should be invalid", target)
	}
}

func TestTransitionResolvedIsTerminal(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := seedAlert(t, svc, model.RiskTierHigh, 0.85)
	ctx := context.Background()

	_, err := svc.Transition(ctx, id, model.AlertStatusAcknowledged, "staff-7", "")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, id, model.AlertStatusResolved, "", "")
	require.NoError(t, err)

	for _, target := range []model.AlertStatus{
		model.AlertStatusNew, model.AlertStatusAcknowledged,
		model.AlertStatusInProgress, model.AlertStatusResolved,
	} {
		_, err := svc.Transition(ctx, id, target, "staff-7", "")
		assert.True(t, apperrors.IsInvalidTransition(err), "Resolved -> %s should be invalid", target)
	}
}

func TestTransitionAcknowledgeRequiresStaffID(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := seedAlert(t, svc, model.RiskTierHigh, 0.85)

	_, err := svc.Transition(context.Background(), id, model.AlertStatusAcknowledged, "", "")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestTransitionRetryDetectedByGuard(t *testing.T) {
	svc, repo, _ := newTestService(t)
	id := seedAlert(t, svc, model.RiskTierHigh, 0.85)
	ctx := context.Background()

	_, err := svc.Transition(ctx, id, model.AlertStatusAcknowledged, "staff-7", "")
	require.NoError(t, err)

	// Simulate a lost race: another request moved the alert between the read
	// and the guarded write.
	repo.mu.Lock()
	repo.alerts[id].AlertStatus = model.AlertStatusResolved
	repo.mu.Unlock()

	_, err = svc.Transition(ctx, id, model.AlertStatusInProgress, "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestTransitionUnknownAlert(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Transition(context.Background(), uuid.New(), model.AlertStatusAcknowledged, "staff-7", "")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeactivateFreezesStatus(t *testing.T) {
	svc, _, broker := newTestService(t)
	id := seedAlert(t, svc, model.RiskTierHigh, 0.85)
	ctx := context.Background()

	require.NoError(t, svc.Deactivate(ctx, id))

	// Status is frozen: no lifecycle step applies to a deactivated alert.
	_, err := svc.Transition(ctx, id, model.AlertStatusAcknowledged, "staff-7", "")
	assert.True(t, apperrors.IsInvalidTransition(err))

	// A second deactivation reports the conflict instead of silently
	// succeeding.
	err = svc.Deactivate(ctx, id)
	assert.True(t, apperrors.IsInvalidTransition(err))

	// Excluded from the live view but retained in the store.
	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	alert, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, alert.IsActive)

	// seed create + deactivate; the failed second deactivate publishes nothing.
	assert.Equal(t, 2, broker.count())
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	repo := newFakeAlertRepo()
	logger := zerolog.Nop()
	svc := NewService(repo, nil, &logger, nil)

	ids, err := svc.CreateFromBatch(context.Background(), []model.BatchItem{
		{
			Input:  model.ClassificationInput{PatientID: "P-1"},
			Result: &model.ClassificationResult{RiskTier: model.RiskTierHigh, Probability: 0.9},
		},
	}, "staff-1")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
