package models

import "time"

// VaccinationReportRow is one flattened completed vaccination with the owning
// student's identity denormalized onto the row.
type VaccinationReportRow struct {
	StudentID        string    `db:"student_id" json:"student_id"`
	Name             string    `db:"name" json:"name"`
	Class            string    `db:"class" json:"class"`
	Section          string    `db:"section" json:"section"`
	VaccineName      string    `db:"vaccine_name" json:"vaccine_name"`
	DateAdministered time.Time `db:"date_administered" json:"date_administered"`
}

// ReportFilter holds conjunctive criteria for report extracts. Zero-valued
// fields impose no constraint; date bounds are inclusive.
type ReportFilter struct {
	VaccineName string
	Class       string
	FromDate    *time.Time
	ToDate      *time.Time
	Page        int
	PageSize    int
}

// VaccineStat counts completed vaccinations per vaccine.
type VaccineStat struct {
	VaccineName string `db:"vaccine_name" json:"vaccine_name"`
	Count       int    `db:"count" json:"count"`
}

// ClassStat aggregates vaccination coverage for one class.
type ClassStat struct {
	Class      string `db:"class" json:"class"`
	Total      int    `db:"total" json:"total"`
	Vaccinated int    `db:"vaccinated" json:"vaccinated"`
	Percentage int    `json:"percentage"`
}

// DashboardStats is the aggregate payload behind the landing dashboard.
type DashboardStats struct {
	TotalStudents         int           `json:"total_students"`
	VaccinatedStudents    int           `json:"vaccinated_students"`
	VaccinationPercentage int           `json:"vaccination_percentage"`
	UpcomingDrives        []Drive       `json:"upcoming_drives"`
	RecentDrives          []Drive       `json:"recent_drives"`
	VaccineStats          []VaccineStat `json:"vaccine_stats"`
}
