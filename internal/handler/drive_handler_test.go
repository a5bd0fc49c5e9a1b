package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-vax-api/internal/middleware"
	"github.com/noah-isme/school-vax-api/internal/models"
)

func TestDriveHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDriveHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/drives", strings.NewReader("not-json"))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDriveHandlerListStudentsRejectsUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewDriveHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/drives/d1/students?status=Pending", nil)
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	h.ListStudents(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `unknown record status \"Pending\"`)
}

func TestCurrentUsernameFromClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(middleware.ContextUserKey, &models.JWTClaims{Username: "admin"})

	assert.Equal(t, "admin", currentUsername(c))
}

func TestCurrentUsernameMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Equal(t, "", currentUsername(c))
}
