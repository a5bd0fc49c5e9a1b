package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-vax-api/internal/models"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:stats"

type dashboardRepository interface {
	CountStudents(ctx context.Context) (int, error)
	CountVaccinatedStudents(ctx context.Context) (int, error)
	UpcomingDrives(ctx context.Context, now time.Time) ([]models.Drive, error)
	RecentCompletedDrives(ctx context.Context, now time.Time) ([]models.Drive, error)
	VaccineStats(ctx context.Context) ([]models.VaccineStat, error)
}

// DashboardService assembles the landing dashboard aggregate, served from
// cache when available.
type DashboardService struct {
	repo    dashboardRepository
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(repo dashboardRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger, now: time.Now}
}

// Stats returns the dashboard aggregate. Cache failures fall through to the
// database.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var cached models.DashboardStats
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, stats, s.ttl); err != nil {
		s.logger.Warn("dashboard cache set failed", zap.Error(err))
	}
	return stats, nil
}

// timed feeds the db_query_duration_seconds histogram for one aggregate query.
func (s *DashboardService) timed(label string) func() {
	start := time.Now()
	return func() { s.metrics.ObserveDBQuery(label, time.Since(start)) }
}

func (s *DashboardService) compute(ctx context.Context) (*models.DashboardStats, error) {
	now := s.now()

	done := s.timed("dashboard_count_students")
	total, err := s.repo.CountStudents(ctx)
	done()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to count students")
	}
	done = s.timed("dashboard_count_vaccinated")
	vaccinated, err := s.repo.CountVaccinatedStudents(ctx)
	done()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to count vaccinated students")
	}
	done = s.timed("dashboard_upcoming_drives")
	upcoming, err := s.repo.UpcomingDrives(ctx, now)
	done()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load upcoming drives")
	}
	done = s.timed("dashboard_recent_drives")
	recent, err := s.repo.RecentCompletedDrives(ctx, now)
	done()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load recent drives")
	}
	done = s.timed("dashboard_vaccine_stats")
	vaccineStats, err := s.repo.VaccineStats(ctx)
	done()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to aggregate vaccine stats")
	}

	return &models.DashboardStats{
		TotalStudents:         total,
		VaccinatedStudents:    vaccinated,
		VaccinationPercentage: coveragePercentage(vaccinated, total),
		UpcomingDrives:        upcoming,
		RecentDrives:          recent,
		VaccineStats:          vaccineStats,
	}, nil
}
