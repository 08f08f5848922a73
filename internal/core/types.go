// Package core provides the business logic for graduate bulk import and
// export operations. This package has no HTTP dependencies and can be
// driven by any frontend or worker.
package core

import (
	"context"
	"time"
)

// Employment status enumeration accepted by the importer.
const (
	EmploymentUnemployed     = "unemployed"
	EmploymentEmployed       = "employed"
	EmploymentSelfEmployed   = "self_employed"
	EmploymentFurtherStudies = "further_studies"
	EmploymentOther          = "other"
)

// EmploymentStatuses lists all valid employment_status values.
var EmploymentStatuses = []string{
	EmploymentUnemployed,
	EmploymentEmployed,
	EmploymentSelfEmployed,
	EmploymentFurtherStudies,
	EmploymentOther,
}

// AcademicStandings lists all valid academic_standing values.
var AcademicStandings = []string{
	"excellent",
	"very_good",
	"good",
	"satisfactory",
	"pass",
}

// ImportColumns is the expected CSV header for graduate imports, in
// template order. Column names are matched case-insensitively after
// cell cleanup.
var ImportColumns = []string{
	"name",
	"email",
	"phone",
	"address",
	"student_id",
	"course_name",
	"graduation_year",
	"gpa",
	"academic_standing",
	"employment_status",
	"current_job_title",
	"current_company",
	"current_salary",
	"employment_start_date",
	"skills",
	"certifications",
	"allow_employer_contact",
	"job_search_active",
}

// Course is a reference to a course a graduate completed.
type Course struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Certification is one entry from the pipe-delimited certifications column.
type Certification struct {
	Name         string `json:"name"`
	Issuer       string `json:"issuer"`
	DateObtained string `json:"date_obtained"`
}

// Employment holds the nested employment-status structure of a graduate.
type Employment struct {
	Status    string     `json:"status"`
	JobTitle  string     `json:"job_title,omitempty"`
	Company   string     `json:"company,omitempty"`
	Salary    *float64   `json:"salary,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

// PrivacySettings are the independent visibility flags on a graduate profile.
type PrivacySettings struct {
	ProfileVisible    bool `json:"profile_visible"`
	ContactVisible    bool `json:"contact_visible"`
	EmploymentVisible bool `json:"employment_visible"`
}

// Graduate is the canonical record created by the import pipeline and
// projected by the exporter. Email and StudentID act as natural keys for
// duplicate detection.
type Graduate struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone,omitempty"`
	Address              string          `json:"address,omitempty"`
	StudentID            string          `json:"student_id,omitempty"`
	CourseID             string          `json:"course_id"`
	CourseName           string          `json:"course_name"`
	GraduationYear       int             `json:"graduation_year"`
	GPA                  *float64        `json:"gpa,omitempty"`
	AcademicStanding     string          `json:"academic_standing,omitempty"`
	Employment           Employment      `json:"employment"`
	Skills               []string        `json:"skills,omitempty"`
	Certifications       []Certification `json:"certifications,omitempty"`
	AllowEmployerContact bool            `json:"allow_employer_contact"`
	JobSearchActive      bool            `json:"job_search_active"`
	Privacy              PrivacySettings `json:"privacy"`
	ProfileCompletion    int             `json:"profile_completion"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// TransformDefaults is the policy applied by the Field Transformer when a
// row omits boolean preferences. Privacy flags are never read from the
// import file; every created record receives the configured values.
type TransformDefaults struct {
	AllowEmployerContact bool
	JobSearchActive      bool
	Privacy              PrivacySettings
}

// DefaultTransformDefaults returns the stock opt-in policy: employer
// contact and job search default to true, all profile sections visible.
func DefaultTransformDefaults() TransformDefaults {
	return TransformDefaults{
		AllowEmployerContact: true,
		JobSearchActive:      true,
		Privacy: PrivacySettings{
			ProfileVisible:    true,
			ContactVisible:    true,
			EmploymentVisible: true,
		},
	}
}

// RunStatus is the lifecycle state of an import run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// ValidRow records a successfully created row.
type ValidRow struct {
	Row        int    `json:"row"` // physical row number (1-based, after header)
	GraduateID string `json:"graduate_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// InvalidRow records a row rejected by validation or a row-scoped
// persistence failure.
type InvalidRow struct {
	Row    int               `json:"row"`
	Errors []string          `json:"errors"`
	Data   map[string]string `json:"data,omitempty"`
}

// ConflictRow records a row that collided with an existing graduate on a
// natural key. No write occurs for conflict rows.
type ConflictRow struct {
	Row        int    `json:"row"`
	Email      string `json:"email"`
	StudentID  string `json:"student_id,omitempty"`
	ExistingID string `json:"existing_id"`
	MatchedBy  string `json:"matched_by"` // "email" or "student_id"
}

// ImportRun is one bulk-import invocation and its aggregated outcome.
// The three outcome lists are appended during a single pass and never
// mutated afterward.
type ImportRun struct {
	ID          string        `json:"id"`
	FileName    string        `json:"file_name"`
	Status      RunStatus     `json:"status"`
	Processed   int           `json:"processed"`
	Created     int           `json:"created"`
	Updated     int           `json:"updated"` // always zero: imports create or conflict, never merge
	Skipped     int           `json:"skipped"`
	ValidRows   []ValidRow    `json:"valid_rows"`
	InvalidRows []InvalidRow  `json:"invalid_rows"`
	Conflicts   []ConflictRow `json:"conflicts"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// ImportPhase indicates the current stage of run processing.
type ImportPhase string

const (
	PhaseStarting   ImportPhase = "starting"
	PhaseReading    ImportPhase = "reading"
	PhaseValidating ImportPhase = "validating"
	PhaseProcessing ImportPhase = "processing"
	PhaseComplete   ImportPhase = "complete"
	PhaseFailed     ImportPhase = "failed"
	PhaseCancelled  ImportPhase = "cancelled"
)

// ImportProgress represents the current state of a running import.
type ImportProgress struct {
	RunID      string      `json:"run_id"`
	FileName   string      `json:"file_name"`
	Phase      ImportPhase `json:"phase"`
	TotalRows  int         `json:"total_rows"`
	CurrentRow int         `json:"current_row"`
	Created    int         `json:"created"`
	Skipped    int         `json:"skipped"`
	Error      string      `json:"error,omitempty"` // non-empty if Phase is PhaseFailed
}

// Percent returns the progress as a percentage (0-100).
func (p ImportProgress) Percent() int {
	if p.TotalRows <= 0 {
		return 0
	}
	return (p.CurrentRow * 100) / p.TotalRows
}

// ProgressCallback is called periodically during run processing.
type ProgressCallback func(ImportProgress)

// CourseLookup resolves course references by exact name.
type CourseLookup interface {
	FindCourseByName(ctx context.Context, name string) (Course, bool, error)
}

// GraduateStore is the persistence boundary for graduate records. Create
// assigns ID and timestamps on the passed record. The FindBy lookups
// return (nil, nil) when no record matches.
type GraduateStore interface {
	Create(ctx context.Context, g *Graduate) error
	FindByEmail(ctx context.Context, email string) (*Graduate, error)
	FindByStudentID(ctx context.Context, studentID string) (*Graduate, error)
	RecomputeProfileCompletion(ctx context.Context, graduateID string) (int, error)
}

// RunStore persists import-run summaries. Create assigns an ID when the
// run does not carry one.
type RunStore interface {
	Create(ctx context.Context, run *ImportRun) error
	FinalizeSummary(ctx context.Context, run *ImportRun) error
	GetByID(ctx context.Context, id string) (*ImportRun, error)
	ListRecent(ctx context.Context, limit int) ([]ImportRun, error)
}
