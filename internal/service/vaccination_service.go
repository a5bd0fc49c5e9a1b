package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-vax-api/internal/models"
	"github.com/noah-isme/school-vax-api/internal/repository"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
)

type vaccinationRepository interface {
	HasCompleted(ctx context.Context, studentID, driveID string) (bool, error)
	RecordCompleted(ctx context.Context, record *models.VaccinationRecord) error
}

type vaccinationStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type vaccinationDriveRepository interface {
	FindByID(ctx context.Context, id string) (*models.Drive, error)
}

// VaccinateRequest identifies the drive a student receives a dose at.
type VaccinateRequest struct {
	DriveID string `json:"drive_id" validate:"required"`
}

// VaccinationService records administered doses.
type VaccinationService struct {
	records   vaccinationRepository
	students  vaccinationStudentRepository
	drives    vaccinationDriveRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewVaccinationService constructs the vaccination service.
func NewVaccinationService(records vaccinationRepository, students vaccinationStudentRepository, drives vaccinationDriveRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *VaccinationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VaccinationService{
		records:   records,
		students:  students,
		drives:    drives,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Vaccinate marks a student vaccinated at the given drive. The dose is taken
// from the drive inventory in the same transaction that records the dose, so
// concurrent requests can never oversubscribe a drive.
func (s *VaccinationService) Vaccinate(ctx context.Context, studentID string, req VaccinateRequest) (*models.VaccinationRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vaccination payload")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load student")
	}
	drive, err := s.drives.FindByID(ctx, req.DriveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load drive")
	}
	if !drive.Status.Editable() {
		return nil, appErrors.Clonef(appErrors.ErrInvalidState,
			"cannot vaccinate in a %s drive", strings.ToLower(string(drive.Status)))
	}
	if !drive.AppliesToClass(student.Class) {
		return nil, appErrors.Clonef(appErrors.ErrValidation,
			"drive is not applicable to class %s", student.Class)
	}
	already, err := s.records.HasCompleted(ctx, studentID, drive.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to check vaccination history")
	}
	if already {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already vaccinated in this drive")
	}
	administered := s.now()
	record := &models.VaccinationRecord{
		StudentRef:       studentID,
		DriveID:          drive.ID,
		VaccineName:      drive.VaccineName,
		DateAdministered: &administered,
		Status:           models.VaccinationCompleted,
	}
	if err := s.records.RecordCompleted(ctx, record); err != nil {
		switch {
		case errors.Is(err, repository.ErrDoseDepleted):
			return nil, appErrors.Clone(appErrors.ErrConflict, "no doses available in this drive")
		case errors.Is(err, repository.ErrDriveFinalized):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "drive was finalized concurrently")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to record vaccination")
		}
	}
	s.logger.Info("vaccination recorded",
		zap.String("student_id", studentID),
		zap.String("drive_id", drive.ID),
		zap.String("vaccine", drive.VaccineName))
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
	return record, nil
}
