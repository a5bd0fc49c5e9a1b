package models

import (
	"time"

	"github.com/lib/pq"
)

// DriveStatus is the lifecycle state of a vaccination drive.
type DriveStatus string

const (
	DriveScheduled DriveStatus = "Scheduled"
	DriveCompleted DriveStatus = "Completed"
	DriveCancelled DriveStatus = "Cancelled"
)

// Valid reports whether the value is a known drive status.
func (s DriveStatus) Valid() bool {
	switch s {
	case DriveScheduled, DriveCompleted, DriveCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s DriveStatus) Terminal() bool {
	return s == DriveCompleted || s == DriveCancelled
}

// CanTransitionTo encodes the only legal transitions:
// Scheduled -> Completed and Scheduled -> Cancelled.
func (s DriveStatus) CanTransitionTo(next DriveStatus) bool {
	return s == DriveScheduled && next.Terminal()
}

// Editable reports whether drive fields may still be modified.
func (s DriveStatus) Editable() bool {
	return s == DriveScheduled
}

// Drive is a scheduled vaccination event with a finite dose inventory.
type Drive struct {
	ID                string         `db:"id" json:"id"`
	VaccineName       string         `db:"vaccine_name" json:"vaccine_name"`
	Date              time.Time      `db:"date" json:"date"`
	AvailableDoses    int            `db:"available_doses" json:"available_doses"`
	ApplicableClasses pq.StringArray `db:"applicable_classes" json:"applicable_classes"`
	Status            DriveStatus    `db:"status" json:"status"`
	CreatedBy         *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// AppliesToClass reports whether the given class may receive doses at this drive.
func (d *Drive) AppliesToClass(class string) bool {
	for _, c := range d.ApplicableClasses {
		if c == class {
			return true
		}
	}
	return false
}

// DriveFilter encapsulates query parameters for listing drives.
type DriveFilter struct {
	Status   DriveStatus
	Upcoming bool
	Page     int
	PageSize int
}

// DriveStudentFilter narrows a drive's student roster by record status.
type DriveStudentFilter struct {
	Status   VaccinationStatus
	Page     int
	PageSize int
}
