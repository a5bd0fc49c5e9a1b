package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-vax-api/internal/models"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByStudentID(ctx context.Context, studentID string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	ListRecords(ctx context.Context, studentID string) ([]models.VaccinationRecord, error)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	Name      string `json:"name" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Class     string `json:"class" validate:"required"`
	Section   string `json:"section" validate:"required"`
	Age       int    `json:"age" validate:"required,gt=0"`
	Gender    string `json:"gender" validate:"required,oneof=Male Female Other"`
}

// UpdateStudentRequest holds payload for editing a student profile.
type UpdateStudentRequest struct {
	Name      string `json:"name" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Class     string `json:"class" validate:"required"`
	Section   string `json:"section" validate:"required"`
	Age       int    `json:"age" validate:"required,gt=0"`
	Gender    string `json:"gender" validate:"required,oneof=Male Female Other"`
}

// ImportRow is one raw CSV row handed to the bulk importer.
type ImportRow struct {
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
	Class     string `json:"class"`
	Section   string `json:"section"`
	Age       string `json:"age"`
	Gender    string `json:"gender"`
}

// ImportRowError reports one rejected row alongside the reason.
type ImportRowError struct {
	Row   ImportRow `json:"row"`
	Error string    `json:"error"`
}

// ImportResult summarises a bulk import run.
type ImportResult struct {
	Imported int              `json:"imported"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns the student with its owned vaccination records.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}
	records, err := s.repo.ListRecords(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load vaccination records")
	}
	return &models.StudentDetail{Student: *student, Vaccinations: records}, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByStudentID(ctx, req.StudentID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to validate student id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student id already exists")
	}
	student := &models.Student{
		StudentID: req.StudentID,
		Name:      req.Name,
		Class:     req.Class,
		Section:   req.Section,
		Age:       req.Age,
		Gender:    models.Gender(req.Gender),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create student")
	}
	s.invalidateDashboard(ctx)
	return student, nil
}

// Update modifies an existing student profile.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}
	if req.StudentID != student.StudentID {
		exists, err := s.repo.ExistsByStudentID(ctx, req.StudentID, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to validate student id")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student id already exists")
		}
	}
	student.StudentID = req.StudentID
	student.Name = req.Name
	student.Class = req.Class
	student.Section = req.Section
	student.Age = req.Age
	student.Gender = models.Gender(req.Gender)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update student")
	}
	s.invalidateDashboard(ctx)
	return student, nil
}

// Delete removes a student together with its vaccination records.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to delete student")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Import attempts creation for every supplied row. A bad row is reported and
// skipped; it never aborts the batch.
func (s *StudentService) Import(ctx context.Context, rows []ImportRow) (*ImportResult, error) {
	result := &ImportResult{}
	for _, row := range rows {
		req, err := row.toCreateRequest()
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: row, Error: err.Error()})
			continue
		}
		if _, err := s.Create(ctx, req); err != nil {
			result.Errors = append(result.Errors, ImportRowError{Row: row, Error: appErrors.FromError(err).Message})
			continue
		}
		result.Imported++
	}
	s.logger.Info("student import finished",
		zap.Int("imported", result.Imported),
		zap.Int("rejected", len(result.Errors)))
	return result, nil
}

func (row ImportRow) toCreateRequest() (CreateStudentRequest, error) {
	if row.Name == "" || row.StudentID == "" || row.Class == "" || row.Section == "" || row.Age == "" || row.Gender == "" {
		return CreateStudentRequest{}, errors.New("missing required fields")
	}
	age, err := strconv.Atoi(strings.TrimSpace(row.Age))
	if err != nil || age <= 0 {
		return CreateStudentRequest{}, errors.New("invalid age")
	}
	if !models.Gender(row.Gender).Valid() {
		return CreateStudentRequest{}, errors.New("invalid gender")
	}
	return CreateStudentRequest{
		Name:      row.Name,
		StudentID: row.StudentID,
		Class:     row.Class,
		Section:   row.Section,
		Age:       age,
		Gender:    row.Gender,
	}, nil
}

func (s *StudentService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
