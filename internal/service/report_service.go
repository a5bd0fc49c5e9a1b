package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-vax-api/internal/models"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
)

type reportRepository interface {
	Rows(ctx context.Context, filter models.ReportFilter) ([]models.VaccinationReportRow, int, error)
	VaccineStats(ctx context.Context) ([]models.VaccineStat, error)
	ClassStats(ctx context.Context) ([]models.ClassStat, error)
	VaccinesFromRecords(ctx context.Context) ([]string, error)
	VaccinesFromDrives(ctx context.Context) ([]string, error)
}

// ReportService assembles vaccination reports and aggregates.
type ReportService struct {
	repo   reportRepository
	logger *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(repo reportRepository, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, logger: logger}
}

// Rows returns the flattened, filtered completed vaccinations, most recent first.
func (s *ReportService) Rows(ctx context.Context, filter models.ReportFilter) ([]models.VaccinationReportRow, *models.Pagination, error) {
	normalizeReportFilter(&filter)
	rows, total, err := s.repo.Rows(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to build vaccination report")
	}
	return rows, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// VaccineStats returns per-vaccine completed counts, largest first.
func (s *ReportService) VaccineStats(ctx context.Context) ([]models.VaccineStat, error) {
	stats, err := s.repo.VaccineStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to aggregate vaccine stats")
	}
	return stats, nil
}

// ClassStats returns per-class coverage with the percentage derived here so
// the rule lives in one place: round(100 * vaccinated / total), 0 for an
// empty class.
func (s *ReportService) ClassStats(ctx context.Context) ([]models.ClassStat, error) {
	stats, err := s.repo.ClassStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to aggregate class stats")
	}
	for i := range stats {
		stats[i].Percentage = coveragePercentage(stats[i].Vaccinated, stats[i].Total)
	}
	return stats, nil
}

// AvailableVaccines lists vaccines with at least one completed record,
// falling back to the vaccines named on drives when nothing has been
// administered yet.
func (s *ReportService) AvailableVaccines(ctx context.Context) ([]string, error) {
	names, err := s.repo.VaccinesFromRecords(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list vaccines")
	}
	if len(names) == 0 {
		names, err = s.repo.VaccinesFromDrives(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list vaccines")
		}
	}
	sort.Strings(names)
	return names, nil
}

// normalizeReportFilter widens an inclusive ToDate given as a bare day to the
// end of that day, so a report "to 2026-03-01" includes records administered
// during that date.
func normalizeReportFilter(filter *models.ReportFilter) {
	if filter.ToDate == nil {
		return
	}
	t := *filter.ToDate
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.ToDate = &end
	}
}

func coveragePercentage(vaccinated, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(vaccinated) / float64(total)))
}
