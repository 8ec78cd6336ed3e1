package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/internal/repository"
	"github.com/medwatch/triage-api/pkg/metrics"
)

// Sink accepts notification tuples from the engine. Delivery is two-stage:
// rows are persisted immediately (dashboards read them unread), the email
// leg is drained asynchronously by the worker binary.
type Sink interface {
	Notify(ctx context.Context, n *model.Notification) error
}

type sink struct {
	repo    repository.NotificationRepository
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

func NewSink(repo repository.NotificationRepository, logger *zerolog.Logger, m *metrics.Metrics) Sink {
	return &sink{repo: repo, logger: logger, metrics: m}
}

func (s *sink) Notify(ctx context.Context, n *model.Notification) error {
	if n.RecipientID == "" {
		return fmt.Errorf("notification recipient is required")
	}

	n.ID = uuid.New()
	n.Read = false
	n.Status = model.NotificationStatusPending
	n.CreatedAt = time.Now()

	if err := s.repo.Create(ctx, n); err != nil {
		if s.metrics != nil {
			s.metrics.NotificationsFailed.Inc()
		}
		return fmt.Errorf("failed to persist notification: %w", err)
	}

	if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues("in_app").Inc()
	}
	s.logger.Debug().
		Str("recipient", n.RecipientID).
		Str("priority", n.Priority).
		Str("title", n.Title).
		Msg("notification queued")
	return nil
}
