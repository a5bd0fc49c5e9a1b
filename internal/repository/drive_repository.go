package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-vax-api/internal/models"
)

// ErrStaleDrive signals that a guarded drive write matched no row because the
// drive left the Scheduled state between read and write.
var ErrStaleDrive = errors.New("drive no longer schedulable")

// DriveRepository manages persistence for vaccination drives.
type DriveRepository struct {
	db *sqlx.DB
}

// NewDriveRepository constructs a DriveRepository.
func NewDriveRepository(db *sqlx.DB) *DriveRepository {
	return &DriveRepository{db: db}
}

// List returns drives matching the filter sorted by date ascending.
// Upcoming restricts the result to Scheduled drives within the next 30 days.
func (r *DriveRepository) List(ctx context.Context, filter models.DriveFilter, now time.Time) ([]models.Drive, int, error) {
	base := "FROM drives d"
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Upcoming {
		conditions = append(conditions,
			fmt.Sprintf("d.date >= $%d", len(args)+1),
			fmt.Sprintf("d.date <= $%d", len(args)+2),
			fmt.Sprintf("d.status = $%d", len(args)+3),
		)
		args = append(args, now, now.AddDate(0, 0, 30), models.DriveScheduled)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT d.id, d.vaccine_name, d.date, d.available_doses, d.applicable_classes, d.status, d.created_by, d.created_at, d.updated_at
        %s ORDER BY d.date ASC LIMIT %d OFFSET %d`, base, size, offset)

	var drives []models.Drive
	if err := r.db.SelectContext(ctx, &drives, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list drives: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count drives: %w", err)
	}
	return drives, total, nil
}

// FindByID fetches a drive by ID.
func (r *DriveRepository) FindByID(ctx context.Context, id string) (*models.Drive, error) {
	const query = `SELECT id, vaccine_name, date, available_doses, applicable_classes, status, created_by, created_at, updated_at
        FROM drives WHERE id = $1`
	var drive models.Drive
	if err := r.db.GetContext(ctx, &drive, query, id); err != nil {
		return nil, err
	}
	return &drive, nil
}

// Create inserts a new drive with status Scheduled.
func (r *DriveRepository) Create(ctx context.Context, drive *models.Drive) error {
	if drive.ID == "" {
		drive.ID = uuid.NewString()
	}
	if drive.Status == "" {
		drive.Status = models.DriveScheduled
	}
	now := time.Now().UTC()
	if drive.CreatedAt.IsZero() {
		drive.CreatedAt = now
	}
	drive.UpdatedAt = now
	const query = `INSERT INTO drives (id, vaccine_name, date, available_doses, applicable_classes, status, created_by, created_at, updated_at)
        VALUES (:id, :vaccine_name, :date, :available_doses, :applicable_classes, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, drive); err != nil {
		return fmt.Errorf("create drive: %w", err)
	}
	return nil
}

// UpdateEditable persists editable fields, guarded so only a Scheduled drive
// row is touched. Returns ErrStaleDrive when the guard rejects the write.
func (r *DriveRepository) UpdateEditable(ctx context.Context, drive *models.Drive) error {
	drive.UpdatedAt = time.Now().UTC()
	const query = `UPDATE drives SET vaccine_name = :vaccine_name, date = :date, available_doses = :available_doses,
        applicable_classes = :applicable_classes, updated_at = :updated_at
        WHERE id = :id AND status = 'Scheduled'`
	res, err := r.db.NamedExecContext(ctx, query, drive)
	if err != nil {
		return fmt.Errorf("update drive: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update drive affected rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleDrive
	}
	return nil
}

// Transition moves a Scheduled drive into a terminal status and flips every
// still-Scheduled vaccination record referencing it to Missed. Both writes run
// in one transaction so readers never observe the drive terminal while its
// dependent records are still pending.
func (r *DriveRepository) Transition(ctx context.Context, id string, next models.DriveStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE drives SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'Scheduled'`,
		id, next, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("transition drive: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition drive affected rows: %w", err)
	}
	if affected == 0 {
		return ErrStaleDrive
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE vaccination_records SET status = $2 WHERE drive_id = $1 AND status = $3`,
		id, models.VaccinationMissed, models.VaccinationScheduled); err != nil {
		return fmt.Errorf("cascade missed records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

// Delete permanently removes a drive. Vaccination records keep their drive_id
// for historical display.
func (r *DriveRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM drives WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete drive: %w", err)
	}
	return nil
}

// ListStudents returns students holding a record against the drive, optionally
// narrowed by record status, sorted by student name.
func (r *DriveRepository) ListStudents(ctx context.Context, driveID string, filter models.DriveStudentFilter) ([]models.Student, int, error) {
	base := `FROM students s WHERE EXISTS (SELECT 1 FROM vaccination_records v WHERE v.student_id = s.id AND v.drive_id = $1`
	args := []interface{}{driveID}
	if filter.Status != "" {
		base += fmt.Sprintf(" AND v.status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	base += ")"

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.student_id, s.name, s.class, s.section, s.age, s.gender, s.created_at, s.updated_at
        %s ORDER BY s.name ASC LIMIT %d OFFSET %d`, base, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list drive students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count drive students: %w", err)
	}
	return students, total, nil
}
