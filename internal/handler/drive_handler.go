package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-vax-api/internal/middleware"
	"github.com/noah-isme/school-vax-api/internal/models"
	"github.com/noah-isme/school-vax-api/internal/service"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
	"github.com/noah-isme/school-vax-api/pkg/response"
)

// DriveHandler exposes vaccination drive endpoints.
type DriveHandler struct {
	drives *service.DriveService
}

// NewDriveHandler constructs DriveHandler.
func NewDriveHandler(drives *service.DriveService) *DriveHandler {
	return &DriveHandler{drives: drives}
}

// List godoc
// @Summary List vaccination drives
// @Tags Drives
// @Produce json
// @Param status query string false "Filter by status"
// @Param upcoming query bool false "Limit to drives within the next 30 days"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /drives [get]
func (h *DriveHandler) List(c *gin.Context) {
	var filter models.DriveFilter
	filter.Status = models.DriveStatus(c.Query("status"))
	filter.Upcoming = c.Query("upcoming") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	drives, pagination, err := h.drives.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drives, pagination)
}

// Get godoc
// @Summary Get drive detail
// @Tags Drives
// @Produce json
// @Param id path string true "Drive ID"
// @Success 200 {object} response.Envelope
// @Router /drives/{id} [get]
func (h *DriveHandler) Get(c *gin.Context) {
	drive, err := h.drives.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// Create godoc
// @Summary Schedule a vaccination drive
// @Tags Drives
// @Accept json
// @Produce json
// @Param payload body service.CreateDriveRequest true "Drive payload"
// @Success 201 {object} response.Envelope
// @Router /drives [post]
func (h *DriveHandler) Create(c *gin.Context) {
	var req service.CreateDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	drive, err := h.drives.Create(c.Request.Context(), req, currentUsername(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, drive)
}

// Update godoc
// @Summary Update a scheduled drive
// @Tags Drives
// @Accept json
// @Produce json
// @Param id path string true "Drive ID"
// @Param payload body service.UpdateDriveRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /drives/{id} [put]
func (h *DriveHandler) Update(c *gin.Context) {
	var req service.UpdateDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	drive, err := h.drives.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// Cancel godoc
// @Summary Cancel a scheduled drive
// @Tags Drives
// @Produce json
// @Param id path string true "Drive ID"
// @Success 200 {object} response.Envelope
// @Router /drives/{id}/cancel [post]
func (h *DriveHandler) Cancel(c *gin.Context) {
	drive, err := h.drives.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// Complete godoc
// @Summary Mark a scheduled drive completed
// @Tags Drives
// @Produce json
// @Param id path string true "Drive ID"
// @Success 200 {object} response.Envelope
// @Router /drives/{id}/complete [post]
func (h *DriveHandler) Complete(c *gin.Context) {
	drive, err := h.drives.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// Delete godoc
// @Summary Delete a future drive with no vaccinations
// @Tags Drives
// @Param id path string true "Drive ID"
// @Success 204
// @Router /drives/{id} [delete]
func (h *DriveHandler) Delete(c *gin.Context) {
	if err := h.drives.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListStudents godoc
// @Summary List students eligible for a drive
// @Tags Drives
// @Produce json
// @Param id path string true "Drive ID"
// @Param status query string false "Filter by record status within the drive"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /drives/{id}/students [get]
func (h *DriveHandler) ListStudents(c *gin.Context) {
	var filter models.DriveStudentFilter
	if status := c.Query("status"); status != "" {
		v := models.VaccinationStatus(status)
		if !v.Valid() {
			response.Error(c, appErrors.Clonef(appErrors.ErrValidation, "unknown record status %q", status))
			return
		}
		filter.Status = v
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	students, pagination, err := h.drives.ListStudents(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

func currentUsername(c *gin.Context) string {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return ""
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return ""
	}
	return claims.Username
}
