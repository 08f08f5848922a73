package core

// validation.go provides row-level validation for graduate import data.
//
// Each row is checked against a fixed rule set before any transformation
// or persistence happens. Validation collects every field-level error for
// the row so the run report can show all problems at once; a row with any
// error produces no side effects.
//
// Course resolution is part of validation: course_name must reference an
// existing course by exact name, and on success the name is replaced by
// the durable course reference in the validated payload. A failed lookup
// is a validation error, not a separate error class.

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxFieldLength is the maximum length for free-text identity fields.
const MaxFieldLength = 255

// MinGraduationYear is the lower bound for graduation_year.
const MinGraduationYear = 1900

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult contains the result of validating a row.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Messages returns the error messages as plain strings for run reporting.
func (r ValidationResult) Messages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}

// ValidatedRow is the payload produced by a successful validation pass.
// course_name has been resolved to Course; boolean preference cells are
// carried raw for the transformer to apply defaults.
type ValidatedRow struct {
	Name             string
	Email            string
	Phone            string
	Address          string
	StudentID        string
	Course           Course
	GraduationYear   int
	GPA              *float64
	AcademicStanding string
	EmploymentStatus string
	JobTitle         string
	Company          string
	Salary           *float64
	StartDate        *time.Time

	SkillsRaw         string
	CertificationsRaw string
	AllowContactRaw   string
	JobSearchRaw      string
}

// RowValidator validates raw spreadsheet rows against the graduate rule set.
type RowValidator struct {
	courses CourseLookup

	// Now is overridable for deterministic year-bound tests.
	Now func() time.Time
}

// NewRowValidator creates a validator backed by the given course lookup.
func NewRowValidator(courses CourseLookup) *RowValidator {
	return &RowValidator{courses: courses, Now: time.Now}
}

// ValidateRow validates a single row and returns the validated payload or
// the full set of field-level errors. A lookup transport failure (as
// opposed to a lookup miss) is returned as err and is run-fatal.
func (v *RowValidator) ValidateRow(ctx context.Context, row []string, idx HeaderIndex) (*ValidatedRow, ValidationResult, error) {
	result := ValidationResult{Valid: true}
	fail := func(field, value, msg string) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Field: field, Value: value, Message: msg})
	}

	out := &ValidatedRow{}

	// name: required, <=255
	out.Name = cellAt(row, idx, "name")
	if out.Name == "" {
		fail("name", "", "required field is empty")
	} else if len(out.Name) > MaxFieldLength {
		fail("name", out.Name, fmt.Sprintf("must not exceed %d characters", MaxFieldLength))
	}

	// email: required, valid format, <=255
	out.Email = cellAt(row, idx, "email")
	switch {
	case out.Email == "":
		fail("email", "", "required field is empty")
	case len(out.Email) > MaxFieldLength:
		fail("email", out.Email, fmt.Sprintf("must not exceed %d characters", MaxFieldLength))
	case !emailRegex.MatchString(out.Email):
		fail("email", out.Email, "must be a valid email address")
	}

	// graduation_year: required, exactly 4 digits, bounded
	rawYear := cellAt(row, idx, "graduation_year")
	if rawYear == "" {
		fail("graduation_year", "", "required field is empty")
	} else if year, ok := ParseYear(rawYear); !ok {
		fail("graduation_year", rawYear, "must be a 4-digit year")
	} else {
		maxYear := v.Now().Year() + 1
		if year < MinGraduationYear || year > maxYear {
			fail("graduation_year", rawYear, fmt.Sprintf("must be between %d and %d", MinGraduationYear, maxYear))
		} else {
			out.GraduationYear = year
		}
	}

	// course_name: required, must reference an existing course
	courseName := cellAt(row, idx, "course_name")
	if courseName == "" {
		fail("course_name", "", "required field is empty")
	} else {
		course, found, err := v.courses.FindCourseByName(ctx, courseName)
		if err != nil {
			return nil, ValidationResult{}, fmt.Errorf("course lookup: %w", err)
		}
		if !found {
			fail("course_name", courseName, "course does not exist")
		} else {
			out.Course = course
		}
	}

	// employment_status: required enum
	out.EmploymentStatus = strings.ToLower(cellAt(row, idx, "employment_status"))
	if out.EmploymentStatus == "" {
		fail("employment_status", "", "required field is empty")
	} else if !containsFold(EmploymentStatuses, out.EmploymentStatus) {
		fail("employment_status", out.EmploymentStatus,
			"must be one of: "+strings.Join(EmploymentStatuses, ", "))
	}

	// Optional bounded text fields.
	out.Phone = v.optionalText(row, idx, "phone", &result)
	out.Address = v.optionalText(row, idx, "address", &result)
	out.StudentID = v.optionalText(row, idx, "student_id", &result)
	out.JobTitle = v.optionalText(row, idx, "current_job_title", &result)
	out.Company = v.optionalText(row, idx, "current_company", &result)

	// gpa: optional numeric 0-4
	if raw := cellAt(row, idx, "gpa"); raw != "" {
		if gpa, ok := ParseNumber(raw); !ok {
			fail("gpa", raw, "must be a number")
		} else if gpa < 0 || gpa > 4 {
			fail("gpa", raw, "must be between 0 and 4")
		} else {
			out.GPA = &gpa
		}
	}

	// academic_standing: optional enum
	if raw := strings.ToLower(cellAt(row, idx, "academic_standing")); raw != "" {
		if !containsFold(AcademicStandings, raw) {
			fail("academic_standing", raw, "must be one of: "+strings.Join(AcademicStandings, ", "))
		} else {
			out.AcademicStanding = raw
		}
	}

	// current_salary: optional numeric >= 0
	if raw := cellAt(row, idx, "current_salary"); raw != "" {
		if salary, ok := ParseNumber(raw); !ok {
			fail("current_salary", raw, "must be a number")
		} else if salary < 0 {
			fail("current_salary", raw, "must not be negative")
		} else {
			out.Salary = &salary
		}
	}

	// employment_start_date: optional parseable date
	if raw := cellAt(row, idx, "employment_start_date"); raw != "" {
		if t, ok := ParseDate(raw); !ok {
			fail("employment_start_date", raw, "invalid date format (use YYYY-MM-DD or similar)")
		} else {
			out.StartDate = &t
		}
	}

	// Free-text and boolean-like cells pass through raw; the transformer
	// owns their interpretation.
	out.SkillsRaw = cellAt(row, idx, "skills")
	out.CertificationsRaw = cellAt(row, idx, "certifications")
	out.AllowContactRaw = cellAt(row, idx, "allow_employer_contact")
	out.JobSearchRaw = cellAt(row, idx, "job_search_active")

	if !result.Valid {
		return nil, result, nil
	}
	return out, result, nil
}

// optionalText reads an optional text column and enforces the length cap.
func (v *RowValidator) optionalText(row []string, idx HeaderIndex, col string, result *ValidationResult) string {
	raw := cellAt(row, idx, col)
	if len(raw) > MaxFieldLength {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Field:   col,
			Value:   raw,
			Message: fmt.Sprintf("must not exceed %d characters", MaxFieldLength),
		})
		return ""
	}
	return raw
}

// RequiredColumns are the columns that must be present in the header row.
// Optional columns may be omitted entirely.
var RequiredColumns = []string{"name", "email", "graduation_year", "course_name", "employment_status"}

// ValidateHeaders checks that every required column is present in the CSV
// header. Returns the header index or an error listing missing columns.
func ValidateHeaders(headers []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return idx, nil
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
