package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-vax-api/internal/models"
	"github.com/noah-isme/school-vax-api/pkg/export"
	"github.com/noah-isme/school-vax-api/pkg/storage"
)

type reportRowsStub struct {
	lastFilter models.ReportFilter
}

func (s *reportRowsStub) AllRows(ctx context.Context, filter models.ReportFilter) ([]models.VaccinationReportRow, error) {
	s.lastFilter = filter
	return []models.VaccinationReportRow{
		{StudentID: "S-1", Name: "Asha Rao", Class: "5", Section: "A", VaccineName: "Polio", DateAdministered: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)},
		{StudentID: "S-2", Name: "Ben Kuria", Class: "5", Section: "B", VaccineName: "Polio", DateAdministered: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)},
	}, nil
}

func newExportServiceForTest(t *testing.T) (*ExportService, *reportRowsStub, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	rows := &reportRowsStub{}
	svc := NewExportService(rows, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, rows, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, rows, store := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-1",
		Params: models.ExportJobParams{Format: models.ExportFormatCSV, VaccineName: "Polio"},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/export/")
	require.Equal(t, "Polio", rows.lastFilter.VaccineName)

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, _, store := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-2",
		Params: models.ExportJobParams{Format: models.ExportFormatPDF},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	require.Equal(t, models.ExportFormatPDF, result.Format)

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGenerateRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)
	job := &models.ExportJob{ID: "job-3", Params: models.ExportJobParams{Format: "xlsx"}}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

func TestExportServiceTokenRoundTrip(t *testing.T) {
	svc, _, _ := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-4",
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	require.Equal(t, "job-4", jobID)
	require.Equal(t, result.RelativePath, relPath)
}
