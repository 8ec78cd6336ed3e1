package aggregator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medwatch/triage-api/internal/model"
)

func makeAlert(tier model.RiskTier, status model.AlertStatus, probability float64, createdAt time.Time) *model.RiskAlert {
	return &model.RiskAlert{
		ID:                     uuid.New(),
		RiskTier:               tier,
		AlertStatus:            status,
		ReadmissionProbability: probability,
		CreatedAt:              createdAt,
	}
}

func TestProjectOrdersByProbabilityDescending(t *testing.T) {
	now := time.Now()
	set := []*model.RiskAlert{
		makeAlert(model.RiskTierHigh, model.AlertStatusNew, 0.71, now),
		makeAlert(model.RiskTierHigh, model.AlertStatusNew, 0.99, now),
		makeAlert(model.RiskTierMedium, model.AlertStatusNew, 0.55, now),
		makeAlert(model.RiskTierHigh, model.AlertStatusNew, 0.95, now),
	}

	view := project(set, model.AlertFilter{RiskTier: model.RiskTierHigh}, 0)

	require.Len(t, view, 3)
	assert.Equal(t, 0.99, view[0].ReadmissionProbability)
	assert.Equal(t, 0.95, view[1].ReadmissionProbability)
	assert.Equal(t, 0.71, view[2].ReadmissionProbability)
}

func TestProjectBreaksTiesByEarliestCreated(t *testing.T) {
	now := time.Now()
	older := makeAlert(model.RiskTierHigh, model.AlertStatusNew, 0.8, now.Add(-time.Hour))
	newer := makeAlert(model.RiskTierHigh, model.AlertStatusNew, 0.8, now)

	view := project([]*model.RiskAlert{newer, older}, model.AlertFilter{}, 0)

	require.Len(t, view, 2)
	assert.Equal(t, older.ID, view[0].ID)
	assert.Equal(t, newer.ID, view[1].ID)
}

func TestProjectFiltersByStatus(t *testing.T) {
	now := time.Now()
	set := []*model.RiskAlert{
		makeAlert(model.RiskTierHigh, model.AlertStatusNew, 0.9, now),
		makeAlert(model.RiskTierHigh, model.AlertStatusAcknowledged, 0.8, now),
		makeAlert(model.RiskTierMedium, model.AlertStatusAcknowledged, 0.5, now),
	}

	view := project(set, model.AlertFilter{AlertStatus: model.AlertStatusAcknowledged}, 0)

	require.Len(t, view, 2)
	for _, a := range view {
		assert.Equal(t, model.AlertStatusAcknowledged, a.AlertStatus)
	}
}

func TestProjectTruncatesAtMax(t *testing.T) {
	now := time.Now()
	var set []*model.RiskAlert
	for i := 0; i < 10; i++ {
		set = append(set, makeAlert(model.RiskTierHigh, model.AlertStatusNew, float64(i)/10, now))
	}

	view := project(set, model.AlertFilter{}, 3)

	require.Len(t, view, 3)
	// Truncation keeps the top of the ordering.
	assert.Equal(t, 0.9, view[0].ReadmissionProbability)
	assert.Equal(t, 0.8, view[1].ReadmissionProbability)
	assert.Equal(t, 0.7, view[2].ReadmissionProbability)
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	now := time.Now()
	first := makeAlert(model.RiskTierHigh, model.AlertStatusNew, 0.1, now)
	second := makeAlert(model.RiskTierHigh, model.AlertStatusNew, 0.9, now)
	set := []*model.RiskAlert{first, second}

	_ = project(set, model.AlertFilter{}, 0)

	assert.Equal(t, first.ID, set[0].ID)
	assert.Equal(t, second.ID, set[1].ID)
}

func TestProjectEmptySet(t *testing.T) {
	view := project(nil, model.AlertFilter{RiskTier: model.RiskTierHigh}, 5)
	assert.NotNil(t, view)
	assert.Empty(t, view)
}
