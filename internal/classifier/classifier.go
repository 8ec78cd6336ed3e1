package classifier

import (
	"fmt"
	"math"

	"github.com/medwatch/triage-api/internal/model"
	apperrors "github.com/medwatch/triage-api/pkg/errors"
)

// Tier thresholds. The upstream model's own risk_level is deliberately
// ignored so the cutoff policy lives in exactly one auditable place.
const (
	highRiskThreshold   = 0.70
	mediumRiskThreshold = 0.40

	maxRiskFactors = 3
)

// TierForProbability maps the classifier's raw probability to a discrete
// tier: >=0.70 High, >=0.40 Medium, else Low.
func TierForProbability(p float64) model.RiskTier {
	switch {
	case p >= highRiskThreshold:
		return model.RiskTierHigh
	case p >= mediumRiskThreshold:
		return model.RiskTierMedium
	default:
		return model.RiskTierLow
	}
}

// Classify turns one prediction into a tier, priority and risk factors.
// Pure and deterministic: no I/O, no hidden state.
func Classify(pred model.Prediction, input model.ClassificationInput) (*model.ClassificationResult, error) {
	if pred.Error != "" {
		return nil, apperrors.NewClassification(pred.Error, nil)
	}

	p := pred.ReadmissionProbability
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, apperrors.NewClassification(
			fmt.Sprintf("probability %v outside [0,1]", p), nil)
	}

	tier := TierForProbability(p)

	return &model.ClassificationResult{
		RiskTier:    tier,
		Priority:    model.PriorityForTier(tier),
		RiskFactors: extractRiskFactors(p, input.Attributes),
		Probability: p,
		Confidence:  fmt.Sprintf("%.1f%%", p*100),
		Prediction:  pred.Prediction,
	}, nil
}

// extractRiskFactors builds the ordered, human-readable factor list: a
// probability-band description first, then boolean flags from the source
// bag, capped at three.
func extractRiskFactors(p float64, attrs model.JSONMap) []string {
	factors := make([]string, 0, maxRiskFactors)

	switch {
	case p > 0.7:
		factors = append(factors, "Very high readmission probability")
	case p > 0.5:
		factors = append(factors, "Elevated readmission risk")
	case p > 0.3:
		factors = append(factors, "Moderate risk factors detected")
	default:
		factors = append(factors, "Low risk profile")
	}

	if flagSet(attrs, "diabetes_med") {
		factors = append(factors, "Diabetes medication")
	}
	if flagSet(attrs, "A1Ctest") {
		factors = append(factors, "A1C test administered")
	}
	if flagSet(attrs, "change") {
		factors = append(factors, "Medication changes")
	}

	if len(factors) > maxRiskFactors {
		factors = factors[:maxRiskFactors]
	}
	return factors
}

// flagSet treats 1, 1.0, true and "1" as set; upload bags are loosely typed.
func flagSet(attrs model.JSONMap, key string) bool {
	if attrs == nil {
		return false
	}
	switch v := attrs[key].(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case int:
		return v == 1
	case string:
		return v == "1" || v == "true"
	default:
		return false
	}
}
