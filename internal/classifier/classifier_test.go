package classifier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medwatch/triage-api/internal/model"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
)

func TestTierForProbability(t *testing.T) {
	tests := []struct {
		name string
		p    float64
		want model.RiskTier
	}{
		{"well above high cutoff", 0.95, model.RiskTierHigh},
		{"exactly high cutoff", 0.70, model.RiskTierHigh},
		{"just below high cutoff", 0.699, model.RiskTierMedium},
		{"exactly medium cutoff", 0.40, model.RiskTierMedium},
		{"just below medium cutoff", 0.399, model.RiskTierLow},
		{"zero", 0.0, model.RiskTierLow},
		{"one", 1.0, model.RiskTierHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierForProbability(tt.p))
		})
	}
}

func TestClassify(t *testing.T) {
	result, err := Classify(model.Prediction{ReadmissionProbability: 0.85}, model.ClassificationInput{
		PatientID: "P-100",
		Name:      "Jordan Reyes",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RiskTierHigh, result.RiskTier)
	assert.Equal(t, model.AlertPriorityCritical, result.Priority)
	assert.Equal(t, 0.85, result.Probability)
	assert.Equal(t, "85.0%", result.Confidence)
	assert.Equal(t, []string{"Very high readmission probability"}, result.RiskFactors)
}

func TestClassifyMediumTierPriority(t *testing.T) {
	result, err := Classify(model.Prediction{ReadmissionProbability: 0.55}, model.ClassificationInput{})
	require.NoError(t, err)

	assert.Equal(t, model.RiskTierMedium, result.RiskTier)
	assert.Equal(t, model.AlertPriorityHigh, result.Priority)
}

func TestClassifyDeterministic(t *testing.T) {
	pred := model.Prediction{ReadmissionProbability: 0.62}
	input := model.ClassificationInput{
		PatientID:  "P-7",
		Attributes: model.JSONMap{"diabetes_med": float64(1)},
	}

	first, err := Classify(pred, input)
	require.NoError(t, err)
	second, err := Classify(pred, input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClassifyRejectsInvalidProbability(t *testing.T) {
	for _, p := range []float64{math.NaN(), -0.1, 1.1} {
		_, err := Classify(model.Prediction{ReadmissionProbability: p}, model.ClassificationInput{})
		require.Error(t, err)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrClassification, appErr.Code)
	}
}

func TestClassifyPropagatesUpstreamError(t *testing.T) {
	_, err := Classify(model.Prediction{Error: "model unavailable"}, model.ClassificationInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestExtractRiskFactors(t *testing.T) {
	tests := []struct {
		name  string
		p     float64
		attrs model.JSONMap
		want  []string
	}{
		{
			name: "band text only",
			p:    0.45,
			want: []string{"Moderate risk factors detected"},
		},
		{
			name: "low band",
			p:    0.2,
			want: []string{"Low risk profile"},
		},
		{
			name:  "flags appended in order",
			p:     0.6,
			attrs: model.JSONMap{"diabetes_med": float64(1), "A1Ctest": "1"},
			want:  []string{"Elevated readmission risk", "Diabetes medication", "A1C test administered"},
		},
		{
			name: "capped at three",
			p:    0.8,
			attrs: model.JSONMap{
				"diabetes_med": true,
				"A1Ctest":      float64(1),
				"change":       "true",
			},
			want: []string{"Very high readmission probability", "Diabetes medication", "A1C test administered"},
		},
		{
			name:  "unset flags ignored",
			p:     0.5,
			attrs: model.JSONMap{"diabetes_med": float64(0), "change": "no"},
			want:  []string{"Moderate risk factors detected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractRiskFactors(tt.p, tt.attrs))
		})
	}
}
