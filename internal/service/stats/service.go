package stats

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/medwatch/triage-api/internal/model"
	"github.com/medwatch/triage-api/internal/repository"
)

// ErrorSentinel replaces a failed roll-up's change text so the dashboard can
// render the other tiles.
const ErrorSentinel = "Error loading data"

const dashboardCacheKey = "dashboard_stats"

// AlertReader is the read-only slice of the alert store the roll-ups use.
type AlertReader interface {
	ListActive(ctx context.Context) ([]*model.RiskAlert, error)
}

type Service struct {
	alerts       AlertReader
	alertWindows repository.AlertRepository
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	cache        *gocache.Cache
	logger       *zerolog.Logger
}

func NewService(
	alerts AlertReader,
	alertWindows repository.AlertRepository,
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	cacheTTL time.Duration,
	logger *zerolog.Logger,
) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Service{
		alerts:       alerts,
		alertWindows: alertWindows,
		patients:     patients,
		appointments: appointments,
		cache:        gocache.New(cacheTTL, 2*cacheTTL),
		logger:       logger,
	}
}

// GetAlertStats tallies the active alert set in one full read. No
// incremental maintenance: the set is hundreds of rows, not millions.
func (s *Service) GetAlertStats(ctx context.Context) (*model.AlertStats, error) {
	alerts, err := s.alerts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}

	stats := &model.AlertStats{}
	for _, alert := range alerts {
		stats.Total++

		switch alert.Priority {
		case model.AlertPriorityCritical:
			stats.Critical++
		case model.AlertPriorityHigh:
			stats.High++
		}

		switch alert.AlertStatus {
		case model.AlertStatusNew:
			stats.NewAlerts++
		case model.AlertStatusAcknowledged:
			stats.Acknowledged++
		case model.AlertStatusResolved:
			stats.Resolved++
		}
	}
	return stats, nil
}

// GetDashboardStats runs the four roll-ups concurrently and independently.
// A failure in one replaces that tile with the error sentinel; siblings keep
// their real values. Results may exhibit read skew; that is accepted.
func (s *Service) GetDashboardStats(ctx context.Context) *model.DashboardStats {
	if cached, ok := s.cache.Get(dashboardCacheKey); ok {
		return cached.(*model.DashboardStats)
	}

	stats := &model.DashboardStats{}
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		stats.TotalPatients, stats.TotalPatientsChange = s.totalPatients(ctx)
	}()
	go func() {
		defer wg.Done()
		stats.TodayAppointments, stats.AppointmentsChange = s.todayAppointments(ctx)
	}()
	go func() {
		defer wg.Done()
		stats.HighRiskPatients, stats.HighRiskChange = s.highRiskOnly(ctx)
	}()
	go func() {
		defer wg.Done()
		stats.AverageRecovery, stats.RecoveryChange = s.recoveryRate(ctx)
	}()

	wg.Wait()
	s.cache.SetDefault(dashboardCacheKey, stats)
	return stats
}

func (s *Service) totalPatients(ctx context.Context) (int, string) {
	total, err := s.patients.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("total patients roll-up failed")
		return 0, ErrorSentinel
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	recent, err := s.patients.CountCreatedSince(ctx, weekAgo)
	if err != nil {
		s.logger.Error().Err(err).Msg("weekly patients roll-up failed")
		return total, ErrorSentinel
	}

	if recent > 0 {
		return total, fmt.Sprintf("+%d this week", recent)
	}
	return total, "No new patients"
}

func (s *Service) todayAppointments(ctx context.Context) (int, string) {
	today := time.Now().Format("2006-01-02")
	appointments, err := s.appointments.ListByDate(ctx, today)
	if err != nil {
		s.logger.Error().Err(err).Msg("appointments roll-up failed")
		return 0, ErrorSentinel
	}

	upcoming := 0
	for _, appt := range appointments {
		if appt.Status == model.AppointmentStatusScheduled || appt.Status == model.AppointmentStatusConfirmed {
			upcoming++
		}
	}

	if upcoming > 0 {
		return len(appointments), fmt.Sprintf("%d upcoming", upcoming)
	}
	return len(appointments), "All completed"
}

// highRiskOnly counts High-tier alerts only; Medium tier never reaches this
// tile.
func (s *Service) highRiskOnly(ctx context.Context) (int, string) {
	alerts, err := s.alerts.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("high risk roll-up failed")
		return 0, ErrorSentinel
	}

	count, newAlerts, critical := 0, 0, 0
	for _, alert := range alerts {
		if alert.RiskTier != model.RiskTierHigh {
			continue
		}
		count++
		if alert.AlertStatus == model.AlertStatusNew {
			newAlerts++
		}
		if alert.Priority == model.AlertPriorityCritical {
			critical++
		}
	}

	switch {
	case newAlerts > 0:
		return count, fmt.Sprintf("%d new alerts", newAlerts)
	case critical > 0:
		return count, fmt.Sprintf("%d critical level", critical)
	default:
		return count, "All stable"
	}
}

// recoveryRate is resolved/total among alerts created in the trailing 30
// days, as a rounded percentage; the change compares against the preceding
// 30-day window in percentage points.
func (s *Service) recoveryRate(ctx context.Context) (int, string) {
	now := time.Now()
	thirtyDaysAgo := now.AddDate(0, 0, -30)
	sixtyDaysAgo := now.AddDate(0, 0, -60)

	total, resolved, err := s.alertWindows.WindowCounts(ctx, thirtyDaysAgo, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("recovery roll-up failed")
		return 0, ErrorSentinel
	}
	if total == 0 {
		return 0, "No recent data"
	}
	rate := roundPercent(resolved, total)

	prevTotal, prevResolved, err := s.alertWindows.WindowCounts(ctx, sixtyDaysAgo, thirtyDaysAgo)
	if err != nil {
		s.logger.Error().Err(err).Msg("previous recovery window failed")
		return rate, ErrorSentinel
	}
	if prevTotal == 0 {
		return rate, "New metric"
	}

	diff := rate - roundPercent(prevResolved, prevTotal)
	switch {
	case diff > 0:
		return rate, fmt.Sprintf("+%d%% this month", diff)
	case diff < 0:
		return rate, fmt.Sprintf("%d%% this month", diff)
	default:
		return rate, "No change"
	}
}

func roundPercent(part, whole int) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}
