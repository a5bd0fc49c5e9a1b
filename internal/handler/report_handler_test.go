package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportFilterDateOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/vaccinations?vaccine_name=Polio&class=5&from_date=2026-01-01&to_date=2026-01-31", nil)

	filter, err := parseReportFilter(c)
	require.NoError(t, err)
	assert.Equal(t, "Polio", filter.VaccineName)
	assert.Equal(t, "5", filter.Class)
	require.NotNil(t, filter.FromDate)
	require.NotNil(t, filter.ToDate)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), filter.FromDate.UTC())
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 20, filter.PageSize)
}

func TestParseReportFilterRFC3339(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/vaccinations?from_date=2026-01-15T09%3A30%3A00Z", nil)

	filter, err := parseReportFilter(c)
	require.NoError(t, err)
	require.NotNil(t, filter.FromDate)
	assert.Equal(t, time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC), filter.FromDate.UTC())
	assert.Nil(t, filter.ToDate)
}

func TestParseReportFilterInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/vaccinations?from_date=15-01-2026", nil)

	_, err := parseReportFilter(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from_date must be RFC 3339 or YYYY-MM-DD")
}

func TestReportHandlerVaccinationsRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewReportHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports/vaccinations?to_date=soon", nil)

	h.Vaccinations(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "to_date must be RFC 3339 or YYYY-MM-DD")
}
