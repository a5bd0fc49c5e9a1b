package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-vax-api/internal/models"
)

// ReportRepository runs read-only aggregation queries over students, drives
// and vaccination records.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Rows returns flattened completed-vaccination rows matching the filter,
// newest administration first. Criteria are conjunctive; date bounds are
// inclusive on both ends.
func (r *ReportRepository) Rows(ctx context.Context, filter models.ReportFilter) ([]models.VaccinationReportRow, int, error) {
	base, args := reportBase(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.student_id, s.name, s.class, s.section, v.vaccine_name, v.date_administered
        %s ORDER BY v.date_administered DESC LIMIT %d OFFSET %d`, base, size, offset)

	var rows []models.VaccinationReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("report rows: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count report rows: %w", err)
	}
	return rows, total, nil
}

func reportBase(filter models.ReportFilter) (string, []interface{}) {
	base := "FROM vaccination_records v JOIN students s ON s.id = v.student_id"
	conditions := []string{"v.status = $1"}
	args := []interface{}{models.VaccinationCompleted}

	if filter.VaccineName != "" {
		conditions = append(conditions, fmt.Sprintf("v.vaccine_name = $%d", len(args)+1))
		args = append(args, filter.VaccineName)
	}
	if filter.Class != "" {
		conditions = append(conditions, fmt.Sprintf("s.class = $%d", len(args)+1))
		args = append(args, filter.Class)
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("v.date_administered >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("v.date_administered <= $%d", len(args)+1))
		args = append(args, *filter.ToDate)
	}

	return fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND ")), args
}

// AllRows is Rows without pagination, used when rendering full export files.
func (r *ReportRepository) AllRows(ctx context.Context, filter models.ReportFilter) ([]models.VaccinationReportRow, error) {
	base, args := reportBase(filter)
	query := fmt.Sprintf(`SELECT s.student_id, s.name, s.class, s.section, v.vaccine_name, v.date_administered
        %s ORDER BY v.date_administered DESC`, base)

	var rows []models.VaccinationReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("report all rows: %w", err)
	}
	return rows, nil
}

// VaccineStats counts completed vaccinations grouped by vaccine, most used first.
func (r *ReportRepository) VaccineStats(ctx context.Context) ([]models.VaccineStat, error) {
	const query = `SELECT v.vaccine_name, COUNT(*) AS count FROM vaccination_records v
        WHERE v.status = $1 GROUP BY v.vaccine_name ORDER BY count DESC, v.vaccine_name ASC`
	var stats []models.VaccineStat
	if err := r.db.SelectContext(ctx, &stats, query, models.VaccinationCompleted); err != nil {
		return nil, fmt.Errorf("vaccine stats: %w", err)
	}
	return stats, nil
}

// ClassStats returns per-class totals alongside the count of students holding
// at least one completed vaccination, ordered by class.
func (r *ReportRepository) ClassStats(ctx context.Context) ([]models.ClassStat, error) {
	const query = `SELECT s.class,
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE EXISTS (
            SELECT 1 FROM vaccination_records v WHERE v.student_id = s.id AND v.status = $1
        )) AS vaccinated
        FROM students s GROUP BY s.class ORDER BY s.class ASC`
	var stats []models.ClassStat
	if err := r.db.SelectContext(ctx, &stats, query, models.VaccinationCompleted); err != nil {
		return nil, fmt.Errorf("class stats: %w", err)
	}
	return stats, nil
}

// VaccinesFromRecords lists distinct vaccine names appearing on completed records.
func (r *ReportRepository) VaccinesFromRecords(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT v.vaccine_name FROM vaccination_records v WHERE v.status = $1 ORDER BY v.vaccine_name ASC`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, models.VaccinationCompleted); err != nil {
		return nil, fmt.Errorf("vaccines from records: %w", err)
	}
	return names, nil
}

// VaccinesFromDrives lists distinct vaccine names across all drives.
func (r *ReportRepository) VaccinesFromDrives(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT d.vaccine_name FROM drives d ORDER BY d.vaccine_name ASC`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("vaccines from drives: %w", err)
	}
	return names, nil
}

// CountStudents returns the total number of registered students.
func (r *ReportRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// CountVaccinatedStudents counts students with at least one completed vaccination.
func (r *ReportRepository) CountVaccinatedStudents(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM students s WHERE EXISTS (
        SELECT 1 FROM vaccination_records v WHERE v.student_id = s.id AND v.status = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.VaccinationCompleted); err != nil {
		return 0, fmt.Errorf("count vaccinated students: %w", err)
	}
	return count, nil
}

// UpcomingDrives returns Scheduled drives within [now, now+30d], soonest first.
func (r *ReportRepository) UpcomingDrives(ctx context.Context, now time.Time) ([]models.Drive, error) {
	const query = `SELECT id, vaccine_name, date, available_doses, applicable_classes, status, created_by, created_at, updated_at
        FROM drives WHERE date >= $1 AND date <= $2 AND status = $3 ORDER BY date ASC`
	var drives []models.Drive
	if err := r.db.SelectContext(ctx, &drives, query, now, now.AddDate(0, 0, 30), models.DriveScheduled); err != nil {
		return nil, fmt.Errorf("upcoming drives: %w", err)
	}
	return drives, nil
}

// RecentCompletedDrives returns Completed drives dated within the last 30 days,
// most recent first.
func (r *ReportRepository) RecentCompletedDrives(ctx context.Context, now time.Time) ([]models.Drive, error) {
	const query = `SELECT id, vaccine_name, date, available_doses, applicable_classes, status, created_by, created_at, updated_at
        FROM drives WHERE date >= $1 AND date <= $2 AND status = $3 ORDER BY date DESC`
	var drives []models.Drive
	if err := r.db.SelectContext(ctx, &drives, query, now.AddDate(0, 0, -30), now, models.DriveCompleted); err != nil {
		return nil, fmt.Errorf("recent drives: %w", err)
	}
	return drives, nil
}
