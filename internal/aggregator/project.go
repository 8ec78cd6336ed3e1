package aggregator

import (
	"sort"

	"github.com/medwatch/triage-api/internal/model"
)

// project derives one observer's view from the full active set: filter by
// tier and status, order by readmission probability descending with ties
// broken by earliest created, cap at max. Pure; the input is never mutated
// and no incremental state is kept, trading CPU for simplicity at the data
// volumes involved.
func project(set []*model.RiskAlert, filter model.AlertFilter, max int) []model.RiskAlert {
	out := make([]model.RiskAlert, 0, len(set))
	for _, alert := range set {
		if filter.RiskTier != "" && alert.RiskTier != filter.RiskTier {
			continue
		}
		if filter.AlertStatus != "" && alert.AlertStatus != filter.AlertStatus {
			continue
		}
		out = append(out, *alert)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ReadmissionProbability != out[j].ReadmissionProbability {
			return out[i].ReadmissionProbability > out[j].ReadmissionProbability
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
