package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-vax-api/internal/models"
	"github.com/noah-isme/school-vax-api/internal/service"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
	"github.com/noah-isme/school-vax-api/pkg/response"
)

// ReportHandler exposes report and aggregation endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Vaccinations godoc
// @Summary Filtered vaccination report
// @Tags Reports
// @Produce json
// @Param vaccine_name query string false "Filter by vaccine"
// @Param class query string false "Filter by class"
// @Param from_date query string false "Inclusive lower bound (RFC 3339 or YYYY-MM-DD)"
// @Param to_date query string false "Inclusive upper bound (RFC 3339 or YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reports/vaccinations [get]
func (h *ReportHandler) Vaccinations(c *gin.Context) {
	filter, err := parseReportFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, pagination, err := h.reports.Rows(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Vaccines godoc
// @Summary Completed vaccination counts per vaccine
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/vaccines [get]
func (h *ReportHandler) Vaccines(c *gin.Context) {
	stats, err := h.reports.VaccineStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Classes godoc
// @Summary Vaccination coverage per class
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/classes [get]
func (h *ReportHandler) Classes(c *gin.Context) {
	stats, err := h.reports.ClassStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// AvailableVaccines godoc
// @Summary Vaccine names usable as report filters
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports/available-vaccines [get]
func (h *ReportHandler) AvailableVaccines(c *gin.Context) {
	names, err := h.reports.AvailableVaccines(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}

func parseReportFilter(c *gin.Context) (models.ReportFilter, error) {
	var filter models.ReportFilter
	filter.VaccineName = c.Query("vaccine_name")
	filter.Class = c.Query("class")
	from, err := parseDateParam(c.Query("from_date"))
	if err != nil {
		return filter, appErrors.Clone(appErrors.ErrValidation, "from_date must be RFC 3339 or YYYY-MM-DD")
	}
	filter.FromDate = from
	to, err := parseDateParam(c.Query("to_date"))
	if err != nil {
		return filter, appErrors.Clone(appErrors.ErrValidation, "to_date must be RFC 3339 or YYYY-MM-DD")
	}
	filter.ToDate = to
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter, nil
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
