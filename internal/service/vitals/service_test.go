package vitals

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medwatch/triage-api/internal/model"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
)

type fakeVitalsRepo struct {
	mu           sync.Mutex
	observations []*model.VitalObservation
}

func (r *fakeVitalsRepo) Create(_ context.Context, obs *model.VitalObservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *obs
	r.observations = append(r.observations, &cp)
	return nil
}

func (r *fakeVitalsRepo) ListByPatient(_ context.Context, patientID string, limit int) ([]*model.VitalObservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.VitalObservation
	for i := len(r.observations) - 1; i >= 0 && len(out) < limit; i-- {
		if r.observations[i].PatientID == patientID {
			cp := *r.observations[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakePatientRepo struct {
	mu           sync.Mutex
	latestVitals map[string]string
	err          error
}

func (r *fakePatientRepo) Count(context.Context) (int, error) { return 0, nil }
func (r *fakePatientRepo) CountCreatedSince(context.Context, time.Time) (int, error) {
	return 0, nil
}
func (r *fakePatientRepo) UpdateLatestVitals(_ context.Context, patientID, vitalsJSON string, _ time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latestVitals == nil {
		r.latestVitals = make(map[string]string)
	}
	r.latestVitals[patientID] = vitalsJSON
	return nil
}

type fakeSink struct {
	mu            sync.Mutex
	notifications []*model.Notification
}

func (s *fakeSink) Notify(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

func f(v float64) *float64 { return &v }

func newTestService() (*Service, *fakeVitalsRepo, *fakePatientRepo, *fakeSink) {
	repo := &fakeVitalsRepo{}
	patients := &fakePatientRepo{}
	sink := &fakeSink{}
	logger := zerolog.Nop()
	return NewService(repo, patients, sink, &logger), repo, patients, sink
}

func TestRecordRequiresAtLeastOneMeasurement(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Record(context.Background(), &model.RecordVitalsRequest{
		PatientID:   "P-1",
		PatientName: "Ana Silva",
		Symptoms:    "headache",
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestRecordPersistsAndSnapshots(t *testing.T) {
	svc, repo, patients, _ := newTestService()

	obs, err := svc.Record(context.Background(), &model.RecordVitalsRequest{
		PatientID:   "P-1",
		PatientName: "Ana Silva",
		RecordedBy:  "staff-3",
		Systolic:    f(120),
		Diastolic:   f(80),
		HeartRate:   f(72),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, obs.VitalRecordID)
	assert.Contains(t, obs.VitalRecordID, "VIT-")
	assert.Equal(t, model.OverallStatusNormal, obs.OverallStatus)
	require.NotNil(t, obs.Vitals.BloodPressure)
	assert.Equal(t, "120/80", obs.Vitals.BloodPressure.Combined)

	require.Len(t, repo.observations, 1)
	assert.Equal(t, obs.VitalsJSON, patients.latestVitals["P-1"])
}

func TestRecordHonorsMeasurementTime(t *testing.T) {
	svc, _, _, _ := newTestService()

	taken := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	obs, err := svc.Record(context.Background(), &model.RecordVitalsRequest{
		PatientID:       "P-1",
		PatientName:     "Ana Silva",
		HeartRate:       f(72),
		MeasurementTime: taken.Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.True(t, obs.MeasurementTime.Equal(taken))

	// An unparseable time falls back to the recording time.
	fallback, err := svc.Record(context.Background(), &model.RecordVitalsRequest{
		PatientID:       "P-1",
		PatientName:     "Ana Silva",
		HeartRate:       f(72),
		MeasurementTime: "yesterday",
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), fallback.MeasurementTime, 5*time.Second)
}

func TestRecordFansOutNotifications(t *testing.T) {
	svc, _, _, sink := newTestService()

	_, err := svc.Record(context.Background(), &model.RecordVitalsRequest{
		PatientID:   "P-1",
		PatientName: "Ana Silva",
		Systolic:    f(190),
		Diastolic:   f(100),
	})
	require.NoError(t, err)

	// One patient notification plus a doctors broadcast for the high alert.
	require.Len(t, sink.notifications, 2)

	patient := sink.notifications[0]
	assert.Equal(t, "P-1", patient.RecipientID)
	assert.Equal(t, model.NotificationTypeVitalAlert, patient.Type)
	assert.Equal(t, "Hypertensive Crisis", patient.Title)

	broadcast := sink.notifications[1]
	assert.Equal(t, model.BroadcastRecipientDoctors, broadcast.RecipientID)
	assert.Equal(t, model.NotificationTypePatientVitalAlert, broadcast.Type)
	assert.Equal(t, "Critical Vitals: Ana Silva", broadcast.Title)
}

func TestRecordMediumAlertSkipsBroadcast(t *testing.T) {
	svc, _, _, sink := newTestService()

	_, err := svc.Record(context.Background(), &model.RecordVitalsRequest{
		PatientID:   "P-1",
		PatientName: "Ana Silva",
		Systolic:    f(145),
		Diastolic:   f(70),
	})
	require.NoError(t, err)

	require.Len(t, sink.notifications, 1)
	assert.Equal(t, "P-1", sink.notifications[0].RecipientID)
}

func TestRecordSurvivesSnapshotFailure(t *testing.T) {
	repo := &fakeVitalsRepo{}
	patients := &fakePatientRepo{err: context.DeadlineExceeded}
	logger := zerolog.Nop()
	svc := NewService(repo, patients, &fakeSink{}, &logger)

	obs, err := svc.Record(context.Background(), &model.RecordVitalsRequest{
		PatientID:   "P-1",
		PatientName: "Ana Silva",
		HeartRate:   f(72),
	})
	require.NoError(t, err)
	assert.NotNil(t, obs)
	assert.Len(t, repo.observations, 1)
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.Record(ctx, &model.RecordVitalsRequest{
			PatientID:   "P-1",
			PatientName: "Ana Silva",
			HeartRate:   f(70 + float64(i)),
		})
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, "P-1", 0)
	require.NoError(t, err)
	// Default limit applies when none is given.
	assert.Len(t, history, 10)
	assert.Equal(t, 81.0, history[0].Vitals.HeartRate.Value)

	short, err := svc.History(ctx, "P-1", 3)
	require.NoError(t, err)
	assert.Len(t, short, 3)
}

func TestHistoryUnknownPatientIsEmpty(t *testing.T) {
	svc, _, _, _ := newTestService()

	history, err := svc.History(context.Background(), "P-404", 5)
	require.NoError(t, err)
	assert.Empty(t, history)
}
