package classifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/pkg/metrics"
)

// Predictor is the external classifier service. Implementations must honor
// the context deadline.
type Predictor interface {
	Predict(ctx context.Context, input model.ClassificationInput) (*model.Prediction, error)
}

// Batch runs classification over an upload batch: order preserving, one
// result slot per input, per-record timeout so a slow record degrades that
// record only.
type Batch struct {
	predictor     Predictor
	recordTimeout time.Duration
	logger        *zerolog.Logger
	metrics       *metrics.Metrics
}

func NewBatch(predictor Predictor, recordTimeout time.Duration, logger *zerolog.Logger, m *metrics.Metrics) *Batch {
	if recordTimeout <= 0 {
		recordTimeout = 5 * time.Second
	}
	return &Batch{
		predictor:     predictor,
		recordTimeout: recordTimeout,
		logger:        logger,
		metrics:       m,
	}
}

// Classify returns a summary whose Items[i] corresponds to records[i]. A
// record that cannot be classified carries an error marker; the batch never
// aborts because of one record.
func (b *Batch) Classify(ctx context.Context, records []model.ClassificationInput) model.BatchSummary {
	summary := model.BatchSummary{
		Total: len(records),
		Items: make([]model.BatchItem, len(records)),
	}

	for i, record := range records {
		item := model.BatchItem{Input: record}

		result, err := b.classifyOne(ctx, record)
		if err != nil {
			b.logger.Warn().
				Err(err).
				Int("record", i).
				Str("patient_id", record.PatientID).
				Msg("record classification failed")
			item.Error = err.Error()
			summary.Failed++
			if b.metrics != nil {
				b.metrics.RecordsFailed.Inc()
			}
		} else {
			item.Result = result
			switch result.RiskTier {
			case model.RiskTierHigh:
				summary.HighRisk++
			case model.RiskTierMedium:
				summary.MediumRisk++
			default:
				summary.LowRisk++
			}
			if b.metrics != nil {
				b.metrics.RecordsClassified.WithLabelValues(string(result.RiskTier)).Inc()
			}
		}

		summary.Items[i] = item
	}

	return summary
}

func (b *Batch) classifyOne(ctx context.Context, record model.ClassificationInput) (*model.ClassificationResult, error) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.ClassifyLatency.Observe(time.Since(start).Seconds())
		}
	}()

	recordCtx, cancel := context.WithTimeout(ctx, b.recordTimeout)
	defer cancel()

	pred, err := b.predictor.Predict(recordCtx, record)
	if err != nil {
		return nil, err
	}
	return Classify(*pred, record)
}
