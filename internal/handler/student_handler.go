package handler

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-vax-api/internal/models"
	"github.com/noah-isme/school-vax-api/internal/service"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
	"github.com/noah-isme/school-vax-api/pkg/response"
)

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students      *service.StudentService
	vaccinations  *service.VaccinationService
	maxImportSize int64
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, vaccinations *service.VaccinationService, maxImportSize int64) *StudentHandler {
	if maxImportSize <= 0 {
		maxImportSize = 2 << 20
	}
	return &StudentHandler{students: students, vaccinations: vaccinations, maxImportSize: maxImportSize}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param name query string false "Search by name (partial)"
// @Param student_id query string false "Search by student id (partial)"
// @Param class query string false "Filter by class"
// @Param vaccination_status query string false "vaccinated or not-vaccinated"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var filter models.StudentFilter
	filter.Name = strings.TrimSpace(c.Query("name"))
	filter.StudentID = strings.TrimSpace(c.Query("student_id"))
	filter.Class = c.Query("class")
	switch v := models.VaccinationFilterValue(c.Query("vaccination_status")); v {
	case models.FilterVaccinated, models.FilterNotVaccinated:
		filter.VaccinationStatus = v
	case "":
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "vaccination_status must be vaccinated or not-vaccinated"))
		return
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail with vaccination records
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Vaccinate godoc
// @Summary Record a vaccination for a student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.VaccinateRequest true "Drive reference"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/vaccinations [post]
func (h *StudentHandler) Vaccinate(c *gin.Context) {
	var req service.VaccinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.vaccinations.Vaccinate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Import godoc
// @Summary Bulk import students from CSV
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV with name,student_id,class,section,age,gender columns"
// @Success 200 {object} response.Envelope
// @Router /students/import [post]
func (h *StudentHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "csv file is required"))
		return
	}
	if fileHeader.Size > h.maxImportSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "csv file too large"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read csv file"))
		return
	}
	defer file.Close()

	rows, err := parseImportCSV(file)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.students.Import(c.Request.Context(), rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// parseImportCSV maps a header-led CSV stream onto import rows. Column order
// is free; header names are matched case-insensitively.
func parseImportCSV(r io.Reader) ([]service.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "csv file is empty")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "student_id", "class", "section", "age", "gender"} {
		if _, ok := index[required]; !ok {
			return nil, appErrors.Clonef(appErrors.ErrValidation, "csv is missing required column %s", required)
		}
	}

	field := func(record []string, name string) string {
		i := index[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []service.ImportRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "malformed csv")
		}
		rows = append(rows, service.ImportRow{
			Name:      field(record, "name"),
			StudentID: field(record, "student_id"),
			Class:     field(record, "class"),
			Section:   field(record, "section"),
			Age:       field(record, "age"),
			Gender:    field(record, "gender"),
		})
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "csv contains no data rows")
	}
	return rows, nil
}
