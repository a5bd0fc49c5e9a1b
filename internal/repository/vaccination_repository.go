package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-vax-api/internal/models"
)

// ErrDoseDepleted signals that the drive is still Scheduled but its dose
// inventory reached zero.
var ErrDoseDepleted = errors.New("no doses available")

// ErrDriveFinalized signals that the drive left the Scheduled state between
// the caller's state check and the dose decrement.
var ErrDriveFinalized = errors.New("drive no longer schedulable")

// VaccinationRepository persists per-student vaccination records.
type VaccinationRepository struct {
	db *sqlx.DB
}

// NewVaccinationRepository constructs a VaccinationRepository.
func NewVaccinationRepository(db *sqlx.DB) *VaccinationRepository {
	return &VaccinationRepository{db: db}
}

// HasCompleted reports whether the student already holds a Completed record
// for the given drive.
func (r *VaccinationRepository) HasCompleted(ctx context.Context, studentID, driveID string) (bool, error) {
	const query = `SELECT 1 FROM vaccination_records WHERE student_id = $1 AND drive_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, driveID, models.VaccinationCompleted); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check completed record: %w", err)
	}
	return true, nil
}

// CountCompletedByDrive counts distinct students holding a Completed record
// for the drive.
func (r *VaccinationRepository) CountCompletedByDrive(ctx context.Context, driveID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT student_id) FROM vaccination_records WHERE drive_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, driveID, models.VaccinationCompleted); err != nil {
		return 0, fmt.Errorf("count completed records: %w", err)
	}
	return count, nil
}

// RecordCompleted appends a Completed vaccination record and decrements the
// drive's dose inventory in one transaction. The decrement is conditional on
// the drive still being Scheduled with doses remaining, so two racing calls
// cannot drive the count negative. When the decrement matches no row the
// drive state is re-read to tell the two losing cases apart: ErrDoseDepleted
// for an exhausted inventory, ErrDriveFinalized when the drive was completed,
// cancelled, or deleted underneath the caller.
func (r *VaccinationRepository) RecordCompleted(ctx context.Context, record *models.VaccinationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.Status = models.VaccinationCompleted

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vaccination: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE drives SET available_doses = available_doses - 1, updated_at = $2
         WHERE id = $1 AND status = 'Scheduled' AND available_doses > 0`,
		record.DriveID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("decrement doses: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement doses affected rows: %w", err)
	}
	if affected == 0 {
		var status models.DriveStatus
		if err := tx.GetContext(ctx, &status, `SELECT status FROM drives WHERE id = $1`, record.DriveID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDriveFinalized
			}
			return fmt.Errorf("recheck drive state: %w", err)
		}
		if status != models.DriveScheduled {
			return ErrDriveFinalized
		}
		return ErrDoseDepleted
	}

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO vaccination_records (id, student_id, drive_id, vaccine_name, date_administered, status, created_at)
         VALUES (:id, :student_id, :drive_id, :vaccine_name, :date_administered, :status, :created_at)`,
		record); err != nil {
		return fmt.Errorf("insert vaccination record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vaccination: %w", err)
	}
	return nil
}
