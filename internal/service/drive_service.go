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

type driveRepository interface {
	List(ctx context.Context, filter models.DriveFilter, now time.Time) ([]models.Drive, int, error)
	FindByID(ctx context.Context, id string) (*models.Drive, error)
	Create(ctx context.Context, drive *models.Drive) error
	UpdateEditable(ctx context.Context, drive *models.Drive) error
	Transition(ctx context.Context, id string, next models.DriveStatus) error
	Delete(ctx context.Context, id string) error
	ListStudents(ctx context.Context, driveID string, filter models.DriveStudentFilter) ([]models.Student, int, error)
}

type driveVaccinationRepository interface {
	CountCompletedByDrive(ctx context.Context, driveID string) (int, error)
}

// CreateDriveRequest holds payload for scheduling a drive.
type CreateDriveRequest struct {
	VaccineName       string    `json:"vaccine_name" validate:"required"`
	Date              time.Time `json:"date" validate:"required"`
	AvailableDoses    int       `json:"available_doses" validate:"required,gt=0"`
	ApplicableClasses []string  `json:"applicable_classes" validate:"required,min=1,dive,required"`
}

// UpdateDriveRequest holds the optional fields an edit may change.
type UpdateDriveRequest struct {
	VaccineName       *string    `json:"vaccine_name"`
	Date              *time.Time `json:"date"`
	AvailableDoses    *int       `json:"available_doses" validate:"omitempty,gt=0"`
	ApplicableClasses []string   `json:"applicable_classes" validate:"omitempty,min=1,dive,required"`
}

// DriveService handles vaccination drive use-cases.
type DriveService struct {
	repo      driveRepository
	records   driveVaccinationRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDriveService constructs the drive service.
func NewDriveService(repo driveRepository, records driveVaccinationRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DriveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveService{
		repo:      repo,
		records:   records,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns drives matching the filter.
func (s *DriveService) List(ctx context.Context, filter models.DriveFilter) ([]models.Drive, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clonef(appErrors.ErrValidation, "unknown drive status %q", filter.Status)
	}
	drives, total, err := s.repo.List(ctx, filter, s.now())
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list drives")
	}
	return drives, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single drive.
func (s *DriveService) Get(ctx context.Context, id string) (*models.Drive, error) {
	drive, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "drive not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load drive")
	}
	return drive, nil
}

// Create schedules a new drive. Drives are always created Scheduled.
func (s *DriveService) Create(ctx context.Context, req CreateDriveRequest, createdBy string) (*models.Drive, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drive payload")
	}
	drive := &models.Drive{
		VaccineName:       req.VaccineName,
		Date:              req.Date,
		AvailableDoses:    req.AvailableDoses,
		ApplicableClasses: req.ApplicableClasses,
		Status:            models.DriveScheduled,
	}
	if createdBy != "" {
		drive.CreatedBy = &createdBy
	}
	if err := s.repo.Create(ctx, drive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create drive")
	}
	s.invalidateDashboard(ctx)
	return drive, nil
}

// Update edits a still-scheduled drive. Completed and cancelled drives are frozen.
func (s *DriveService) Update(ctx context.Context, id string, req UpdateDriveRequest) (*models.Drive, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drive payload")
	}
	drive, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !drive.Status.Editable() {
		return nil, appErrors.Clonef(appErrors.ErrInvalidState,
			"cannot update a %s vaccination drive", strings.ToLower(string(drive.Status)))
	}
	if req.VaccineName != nil {
		if *req.VaccineName == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "vaccine name cannot be empty")
		}
		drive.VaccineName = *req.VaccineName
	}
	if req.Date != nil {
		drive.Date = *req.Date
	}
	if req.AvailableDoses != nil {
		drive.AvailableDoses = *req.AvailableDoses
	}
	if req.ApplicableClasses != nil {
		drive.ApplicableClasses = req.ApplicableClasses
	}
	if err := s.repo.UpdateEditable(ctx, drive); err != nil {
		if errors.Is(err, repository.ErrStaleDrive) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "drive is no longer editable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to update drive")
	}
	s.invalidateDashboard(ctx)
	return drive, nil
}

// Cancel moves a scheduled drive to Cancelled, marking its pending records Missed.
func (s *DriveService) Cancel(ctx context.Context, id string) (*models.Drive, error) {
	return s.transition(ctx, id, models.DriveCancelled)
}

// Complete moves a scheduled drive to Completed, marking its pending records Missed.
func (s *DriveService) Complete(ctx context.Context, id string) (*models.Drive, error) {
	return s.transition(ctx, id, models.DriveCompleted)
}

func (s *DriveService) transition(ctx context.Context, id string, next models.DriveStatus) (*models.Drive, error) {
	drive, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !drive.Status.CanTransitionTo(next) {
		return nil, appErrors.Clonef(appErrors.ErrInvalidState,
			"cannot mark a %s drive as %s", strings.ToLower(string(drive.Status)), strings.ToLower(string(next)))
	}
	if err := s.repo.Transition(ctx, id, next); err != nil {
		if errors.Is(err, repository.ErrStaleDrive) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "drive was finalized concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to transition drive")
	}
	s.logger.Info("drive transitioned",
		zap.String("drive_id", id),
		zap.String("status", string(next)))
	s.invalidateDashboard(ctx)
	return s.Get(ctx, id)
}

// Delete removes a drive that is still in the future and has no completed
// vaccinations recorded against it.
func (s *DriveService) Delete(ctx context.Context, id string) error {
	drive, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if drive.Date.Before(s.now()) {
		return appErrors.Clone(appErrors.ErrInvalidState, "cannot delete past vaccination drives")
	}
	vaccinated, err := s.records.CountCompletedByDrive(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to count vaccinated students")
	}
	if vaccinated > 0 {
		return appErrors.Clonef(appErrors.ErrConflict,
			"cannot delete drive as %d students are already vaccinated", vaccinated)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to delete drive")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// ListStudents returns the students eligible for a drive, optionally narrowed
// by their record status within the drive.
func (s *DriveService) ListStudents(ctx context.Context, driveID string, filter models.DriveStudentFilter) ([]models.Student, *models.Pagination, error) {
	if _, err := s.Get(ctx, driveID); err != nil {
		return nil, nil, err
	}
	students, total, err := s.repo.ListStudents(ctx, driveID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list drive students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *DriveService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
