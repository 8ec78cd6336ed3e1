package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/internal/service/alert"
	"github.com/medwatch/triage-api/pkg/messaging"
	"github.com/medwatch/triage-api/pkg/metrics"
)

// Store is the read side of the alert store the aggregator derives views
// from. The aggregator is never the authority on alert state.
type Store interface {
	ListActive(ctx context.Context) ([]*model.RiskAlert, error)
}

// Aggregator maintains a per-subscriber filtered, ordered view of active
// alerts over one unfiltered change feed. All snapshot production runs on a
// single loop, so within any subscription emissions are monotonic in feed
// order; observers differ only in wall-clock delivery time.
type Aggregator struct {
	store       Store
	broker      messaging.Broker
	logger      *zerolog.Logger
	metrics     *metrics.Metrics
	readTimeout time.Duration

	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	latest []*model.RiskAlert

	nudge  chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// Subscription is one observer's handle. Updates delivers full replacement
// snapshots; Close synchronously stops delivery and releases state.
type Subscription struct {
	id      uint64
	filter  model.AlertFilter
	max     int
	updates chan []model.RiskAlert
	agg     *Aggregator
	once    sync.Once
}

func (s *Subscription) Updates() <-chan []model.RiskAlert {
	return s.updates
}

// Close removes the subscription. After Close returns no further snapshot is
// delivered; the updates channel is closed.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.agg.remove(s.id)
	})
}

func New(store Store, broker messaging.Broker, logger *zerolog.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		store:       store,
		broker:      broker,
		logger:      logger,
		metrics:     m,
		readTimeout: 10 * time.Second,
		subs:        make(map[uint64]*Subscription),
		nudge:       make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Start subscribes to the change feed and runs the refresh loop until ctx is
// cancelled or Stop is called.
func (a *Aggregator) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	feed, err := a.broker.Subscribe(ctx, alert.ChangeChannel)
	if err != nil {
		a.cancel()
		return err
	}

	go a.loop(ctx, feed)
	return nil
}

func (a *Aggregator) Stop() {
	if a.cancel != nil {
		a.cancel()
		<-a.done
	}
}

func (a *Aggregator) loop(ctx context.Context, feed <-chan []byte) {
	defer close(a.done)

	// Initial snapshot before any change arrives.
	a.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-feed:
			if !ok {
				a.logger.Warn().Msg("alert change feed closed")
				return
			}
			a.refresh(ctx)
		case <-a.nudge:
			a.refresh(ctx)
		}
	}
}

// refresh re-reads the full active set and pushes a recomputed projection to
// every subscriber. A store failure degrades to an empty view instead of
// tearing down subscriptions.
func (a *Aggregator) refresh(ctx context.Context) {
	readCtx, cancel := context.WithTimeout(ctx, a.readTimeout)
	defer cancel()

	set, err := a.store.ListActive(readCtx)
	if err != nil {
		a.logger.Error().Err(err).Msg("live view refresh failed; emitting empty snapshots")
		if a.metrics != nil {
			a.metrics.FeedErrors.Inc()
		}
		set = nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.latest = set
	for _, sub := range a.subs {
		a.deliverLocked(sub)
	}
}

// Subscribe registers an observer and immediately delivers the current view.
func (a *Aggregator) Subscribe(filter model.AlertFilter, maxResults int) *Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	sub := &Subscription{
		id:      a.nextID,
		filter:  filter,
		max:     maxResults,
		updates: make(chan []model.RiskAlert, 1),
		agg:     a,
	}
	a.subs[sub.id] = sub
	if a.metrics != nil {
		a.metrics.ActiveSubscriptions.Set(float64(len(a.subs)))
	}

	a.deliverLocked(sub)
	return sub
}

func (a *Aggregator) remove(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sub, ok := a.subs[id]
	if !ok {
		return
	}
	delete(a.subs, id)
	close(sub.updates)
	if a.metrics != nil {
		a.metrics.ActiveSubscriptions.Set(float64(len(a.subs)))
	}
}

// deliverLocked pushes the current projection without blocking the loop: a
// slow consumer's stale snapshot is replaced by the newest one, which keeps
// every delivered sequence monotonic.
func (a *Aggregator) deliverLocked(sub *Subscription) {
	snapshot := project(a.latest, sub.filter, sub.max)

	select {
	case sub.updates <- snapshot:
	default:
		select {
		case <-sub.updates:
		default:
		}
		select {
		case sub.updates <- snapshot:
		default:
		}
	}

	if a.metrics != nil {
		a.metrics.SnapshotsEmitted.Inc()
	}
}
