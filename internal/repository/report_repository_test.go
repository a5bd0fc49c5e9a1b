package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-vax-api/internal/models"
)

func TestReportRepositoryRowsWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	administered := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"student_id", "name", "class", "section", "vaccine_name", "date_administered"}).
		AddRow("S-1", "Asha Rao", "5", "A", "Polio", administered)
	mock.ExpectQuery("FROM vaccination_records v JOIN students s ON s.id = v.student_id WHERE v.status = \\$1 AND v.vaccine_name = \\$2 AND s.class = \\$3 AND v.date_administered >= \\$4 AND v.date_administered <= \\$5 ORDER BY v.date_administered DESC LIMIT 10 OFFSET 0").
		WithArgs(models.VaccinationCompleted, "Polio", "5", from, to).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM vaccination_records v")).
		WithArgs(models.VaccinationCompleted, "Polio", "5", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	result, total, err := repo.Rows(context.Background(), models.ReportFilter{
		VaccineName: "Polio",
		Class:       "5",
		FromDate:    &from,
		ToDate:      &to,
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Asha Rao", result[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryAllRowsUnpaginated(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "name", "class", "section", "vaccine_name", "date_administered"}).
		AddRow("S-1", "Asha Rao", "5", "A", "Polio", time.Now()).
		AddRow("S-2", "Vikram Iyer", "6", "B", "Polio", time.Now())
	mock.ExpectQuery("FROM vaccination_records v JOIN students s ON s.id = v.student_id WHERE v.status = \\$1 ORDER BY v.date_administered DESC$").
		WithArgs(models.VaccinationCompleted).
		WillReturnRows(rows)

	result, err := repo.AllRows(context.Background(), models.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryVaccineStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"vaccine_name", "count"}).
		AddRow("Polio", 40).
		AddRow("MMR", 12)
	mock.ExpectQuery("GROUP BY v.vaccine_name ORDER BY count DESC, v.vaccine_name ASC").
		WithArgs(models.VaccinationCompleted).
		WillReturnRows(rows)

	stats, err := repo.VaccineStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "Polio", stats[0].VaccineName)
	assert.Equal(t, 40, stats[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryClassStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"class", "total", "vaccinated"}).
		AddRow("5", 30, 18).
		AddRow("6", 25, 25)
	mock.ExpectQuery("FROM students s GROUP BY s.class ORDER BY s.class ASC").
		WithArgs(models.VaccinationCompleted).
		WillReturnRows(rows)

	stats, err := repo.ClassStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 18, stats[0].Vaccinated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpcomingDrivesWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM drives WHERE date >= \\$1 AND date <= \\$2 AND status = \\$3 ORDER BY date ASC").
		WithArgs(now, now.AddDate(0, 0, 30), models.DriveScheduled).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vaccine_name", "date", "available_doses", "applicable_classes", "status", "created_by", "created_at", "updated_at"}))

	drives, err := repo.UpcomingDrives(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, drives)
	assert.NoError(t, mock.ExpectationsWereMet())
}
