package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-vax-api/internal/models"
	"github.com/noah-isme/school-vax-api/internal/repository"
	appErrors "github.com/noah-isme/school-vax-api/pkg/errors"
)

type mockDriveRepo struct {
	drives      map[string]models.Drive
	transitions []string
	deleted     []string
	updateErr   error
	transErr    error
}

func (m *mockDriveRepo) List(ctx context.Context, filter models.DriveFilter, now time.Time) ([]models.Drive, int, error) {
	out := make([]models.Drive, 0, len(m.drives))
	for _, d := range m.drives {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockDriveRepo) FindByID(ctx context.Context, id string) (*models.Drive, error) {
	if d, ok := m.drives[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDriveRepo) Create(ctx context.Context, drive *models.Drive) error {
	if m.drives == nil {
		m.drives = make(map[string]models.Drive)
	}
	if drive.ID == "" {
		drive.ID = "generated"
	}
	m.drives[drive.ID] = *drive
	return nil
}

func (m *mockDriveRepo) UpdateEditable(ctx context.Context, drive *models.Drive) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.drives[drive.ID] = *drive
	return nil
}

func (m *mockDriveRepo) Transition(ctx context.Context, id string, next models.DriveStatus) error {
	if m.transErr != nil {
		return m.transErr
	}
	m.transitions = append(m.transitions, id+":"+string(next))
	d := m.drives[id]
	d.Status = next
	m.drives[id] = d
	return nil
}

func (m *mockDriveRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.drives, id)
	return nil
}

func (m *mockDriveRepo) ListStudents(ctx context.Context, driveID string, filter models.DriveStudentFilter) ([]models.Student, int, error) {
	return nil, 0, nil
}

type mockDriveRecords struct {
	completed map[string]int
}

func (m *mockDriveRecords) CountCompletedByDrive(ctx context.Context, driveID string) (int, error) {
	return m.completed[driveID], nil
}

func newDriveService(repo *mockDriveRepo, records *mockDriveRecords, now time.Time) *DriveService {
	if records == nil {
		records = &mockDriveRecords{}
	}
	svc := NewDriveService(repo, records, nil, validator.New(), zap.NewNop())
	if !now.IsZero() {
		svc.now = func() time.Time { return now }
	}
	return svc
}

func TestDriveServiceCreateStartsScheduled(t *testing.T) {
	repo := &mockDriveRepo{}
	svc := newDriveService(repo, nil, time.Time{})

	drive, err := svc.Create(context.Background(), CreateDriveRequest{
		VaccineName:       "Polio",
		Date:              time.Now().Add(20 * 24 * time.Hour),
		AvailableDoses:    100,
		ApplicableClasses: []string{"5", "6"},
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.DriveScheduled, drive.Status)
	require.NotNil(t, drive.CreatedBy)
	assert.Equal(t, "admin", *drive.CreatedBy)
}

func TestDriveServiceCreateRequiresDoses(t *testing.T) {
	svc := newDriveService(&mockDriveRepo{}, nil, time.Time{})

	_, err := svc.Create(context.Background(), CreateDriveRequest{
		VaccineName:       "Polio",
		Date:              time.Now(),
		AvailableDoses:    0,
		ApplicableClasses: []string{"5"},
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDriveServiceUpdateFrozenDrive(t *testing.T) {
	repo := &mockDriveRepo{drives: map[string]models.Drive{
		"d1": {ID: "d1", VaccineName: "Polio", Status: models.DriveCompleted},
	}}
	svc := newDriveService(repo, nil, time.Time{})

	name := "MMR"
	_, err := svc.Update(context.Background(), "d1", UpdateDriveRequest{VaccineName: &name})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	assert.Equal(t, "cannot update a completed vaccination drive", appErr.Message)
}

func TestDriveServiceUpdatePartialFields(t *testing.T) {
	repo := &mockDriveRepo{drives: map[string]models.Drive{
		"d1": {ID: "d1", VaccineName: "Polio", AvailableDoses: 50, ApplicableClasses: []string{"5"}, Status: models.DriveScheduled},
	}}
	svc := newDriveService(repo, nil, time.Time{})

	doses := 75
	updated, err := svc.Update(context.Background(), "d1", UpdateDriveRequest{AvailableDoses: &doses})
	require.NoError(t, err)
	assert.Equal(t, 75, updated.AvailableDoses)
	assert.Equal(t, "Polio", updated.VaccineName)
}

func TestDriveServiceUpdateLostRace(t *testing.T) {
	repo := &mockDriveRepo{
		drives:    map[string]models.Drive{"d1": {ID: "d1", Status: models.DriveScheduled}},
		updateErr: repository.ErrStaleDrive,
	}
	svc := newDriveService(repo, nil, time.Time{})

	name := "MMR"
	_, err := svc.Update(context.Background(), "d1", UpdateDriveRequest{VaccineName: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestDriveServiceCancel(t *testing.T) {
	repo := &mockDriveRepo{drives: map[string]models.Drive{
		"d1": {ID: "d1", Status: models.DriveScheduled},
	}}
	svc := newDriveService(repo, nil, time.Time{})

	drive, err := svc.Cancel(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, models.DriveCancelled, drive.Status)
	assert.Contains(t, repo.transitions, "d1:Cancelled")
}

func TestDriveServiceCompleteAlreadyFinal(t *testing.T) {
	repo := &mockDriveRepo{drives: map[string]models.Drive{
		"d1": {ID: "d1", Status: models.DriveCancelled},
	}}
	svc := newDriveService(repo, nil, time.Time{})

	_, err := svc.Complete(context.Background(), "d1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	assert.Equal(t, "cannot mark a cancelled drive as completed", appErr.Message)
	assert.Empty(t, repo.transitions)
}

func TestDriveServiceDeletePastDrive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockDriveRepo{drives: map[string]models.Drive{
		"d1": {ID: "d1", Date: now.Add(-24 * time.Hour), Status: models.DriveScheduled},
	}}
	svc := newDriveService(repo, nil, now)

	err := svc.Delete(context.Background(), "d1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
	assert.Equal(t, "cannot delete past vaccination drives", appErr.Message)
}

func TestDriveServiceDeleteWithVaccinations(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockDriveRepo{drives: map[string]models.Drive{
		"d1": {ID: "d1", Date: now.Add(24 * time.Hour), Status: models.DriveScheduled},
	}}
	records := &mockDriveRecords{completed: map[string]int{"d1": 7}}
	svc := newDriveService(repo, records, now)

	err := svc.Delete(context.Background(), "d1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "cannot delete drive as 7 students are already vaccinated", appErr.Message)
	assert.Empty(t, repo.deleted)
}

func TestDriveServiceDeleteFutureUnused(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockDriveRepo{drives: map[string]models.Drive{
		"d1": {ID: "d1", Date: now.Add(24 * time.Hour), Status: models.DriveScheduled},
	}}
	svc := newDriveService(repo, nil, now)

	require.NoError(t, svc.Delete(context.Background(), "d1"))
	assert.Contains(t, repo.deleted, "d1")
}
