package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-vax-api/internal/models"
	"github.com/noah-isme/school-vax-api/internal/service"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
)

type fakeExportSrv struct {
	created     *service.ExportJobStatus
	createErr   error
	lastCreate  service.ExportRequest
	status      *service.ExportJobStatus
	statusErr   error
	download    *service.ExportDownload
	downloadErr error
	lastToken   string
}

func (f *fakeExportSrv) CreateJob(_ context.Context, req service.ExportRequest) (*service.ExportJobStatus, error) {
	f.lastCreate = req
	return f.created, f.createErr
}

func (f *fakeExportSrv) GetStatus(context.Context, string) (*service.ExportJobStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeExportSrv) ResolveDownload(_ context.Context, token string) (*service.ExportDownload, error) {
	f.lastToken = token
	return f.download, f.downloadErr
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

func TestExportHandlerCreateJobInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(&fakeExportSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/reports/exports", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreateJob(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerCreateJobAccepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeExportSrv{created: &service.ExportJobStatus{ID: "j1", Status: models.ExportStatusQueued}}
	h := NewExportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/reports/exports",
		strings.NewReader(`{"format":"csv","vaccine_name":"Polio"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.CreateJob(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, models.ExportFormatCSV, srv.lastCreate.Format)
	assert.Equal(t, "Polio", srv.lastCreate.VaccineName)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "j1", envelope.Data["id"])
	assert.Equal(t, "QUEUED", envelope.Data["status"])
}

func TestExportHandlerStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(&fakeExportSrv{statusErr: appErrors.Clone(appErrors.ErrNotFound, "export job not found")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/exports/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Status(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportHandlerDownloadStreamsFile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "vaccinations_all.csv")
	require.NoError(t, os.WriteFile(path, []byte("Student ID,Name\nS-1,Asha\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	srv := &fakeExportSrv{download: &service.ExportDownload{
		File:     file,
		Filename: "vaccinations_all.csv",
		Format:   models.ExportFormatCSV,
	}}
	h := NewExportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/export/tok-1", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok-1"}}

	h.Download(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-1", srv.lastToken)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="vaccinations_all.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "S-1,Asha")
}

func TestExportHandlerDownloadRejectsUnknownToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewExportHandler(&fakeExportSrv{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid download token")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/export/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	h.Download(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
