package models

import "time"

// Gender enumerates accepted student gender values.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Valid reports whether the value is one of the accepted genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}

// VaccinationStatus tracks the state of one student record against one drive.
type VaccinationStatus string

const (
	VaccinationScheduled VaccinationStatus = "Scheduled"
	VaccinationCompleted VaccinationStatus = "Completed"
	VaccinationMissed    VaccinationStatus = "Missed"
)

// Valid reports whether the value is a known record status.
func (s VaccinationStatus) Valid() bool {
	switch s {
	case VaccinationScheduled, VaccinationCompleted, VaccinationMissed:
		return true
	default:
		return false
	}
}

// Student represents a learner registered with the vaccination portal.
type Student struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Name      string    `db:"name" json:"name"`
	Class     string    `db:"class" json:"class"`
	Section   string    `db:"section" json:"section"`
	Age       int       `db:"age" json:"age"`
	Gender    Gender    `db:"gender" json:"gender"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// VaccinationRecord is one per-student, per-drive entry owned by the student.
// VaccineName and DateAdministered carry meaning only when Status is Completed;
// the vaccine name is a snapshot taken at administration time so the row stays
// displayable after its drive is deleted.
type VaccinationRecord struct {
	ID               string            `db:"id" json:"id"`
	StudentRef       string            `db:"student_id" json:"-"`
	DriveID          string            `db:"drive_id" json:"drive_id"`
	VaccineName      string            `db:"vaccine_name" json:"vaccine_name"`
	DateAdministered *time.Time        `db:"date_administered" json:"date_administered,omitempty"`
	Status           VaccinationStatus `db:"status" json:"status"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
}

// StudentDetail bundles a student with its owned vaccination records.
type StudentDetail struct {
	Student
	Vaccinations []VaccinationRecord `json:"vaccinations"`
}

// VaccinationFilterValue narrows student listings by vaccination progress.
type VaccinationFilterValue string

const (
	FilterVaccinated    VaccinationFilterValue = "vaccinated"
	FilterNotVaccinated VaccinationFilterValue = "not-vaccinated"
)

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Name              string
	StudentID         string
	Class             string
	VaccinationStatus VaccinationFilterValue
	Page              int
	PageSize          int
}
