package core

// fields.go is the export field registry: a closed set of field
// identifiers, each mapped to a heading label, a column-width hint, and a
// pure value extractor. Callers select columns by identifier; per-field
// formatting quirks live in the extractors rather than a switch on
// stringly-typed names.

import (
	"strconv"
	"strings"
	"time"
)

// ExportTimeFormat is the fixed timestamp rendering for exports.
const ExportTimeFormat = "2006-01-02 15:04:05"

// ExportField describes one exportable column.
type ExportField struct {
	ID    string
	Label string
	Width int
	Value func(g *Graduate) string
}

// DefaultExportFields is the fixed 20-column selection used when the
// caller does not supply one. Email is always the second column.
var DefaultExportFields = []string{
	"name",
	"email",
	"phone",
	"student_id",
	"course",
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
	"profile_completion",
	"created_at",
	"updated_at",
}

var exportFields = map[string]ExportField{}

func registerField(f ExportField) {
	exportFields[f.ID] = f
}

// FieldByID returns the export field for an identifier.
func FieldByID(id string) (ExportField, bool) {
	f, ok := exportFields[id]
	return f, ok
}

func init() {
	registerField(ExportField{"name", "Name", 25, func(g *Graduate) string { return g.Name }})
	registerField(ExportField{"email", "Email", 30, func(g *Graduate) string { return g.Email }})
	registerField(ExportField{"phone", "Phone", 18, func(g *Graduate) string { return g.Phone }})
	registerField(ExportField{"address", "Address", 35, func(g *Graduate) string { return g.Address }})
	registerField(ExportField{"student_id", "Student ID", 15, func(g *Graduate) string { return g.StudentID }})
	registerField(ExportField{"course", "Course", 30, func(g *Graduate) string { return g.CourseName }})
	registerField(ExportField{"graduation_year", "Graduation Year", 15, func(g *Graduate) string {
		return strconv.Itoa(g.GraduationYear)
	}})
	registerField(ExportField{"gpa", "GPA", 8, func(g *Graduate) string {
		if g.GPA == nil {
			return ""
		}
		return strconv.FormatFloat(*g.GPA, 'f', 2, 64)
	}})
	registerField(ExportField{"academic_standing", "Academic Standing", 18, func(g *Graduate) string {
		return titleCase(g.AcademicStanding)
	}})
	registerField(ExportField{"employment_status", "Employment Status", 18, func(g *Graduate) string {
		return titleCase(g.Employment.Status)
	}})
	registerField(ExportField{"current_job_title", "Current Job Title", 25, func(g *Graduate) string {
		return naIfEmpty(g.Employment.JobTitle)
	}})
	registerField(ExportField{"current_company", "Current Company", 25, func(g *Graduate) string {
		return naIfEmpty(g.Employment.Company)
	}})
	registerField(ExportField{"current_salary", "Current Salary", 15, func(g *Graduate) string {
		if g.Employment.Salary == nil {
			return "N/A"
		}
		return strconv.FormatFloat(*g.Employment.Salary, 'f', 2, 64)
	}})
	registerField(ExportField{"employment_start_date", "Employment Start Date", 20, func(g *Graduate) string {
		if g.Employment.StartDate == nil {
			return "N/A"
		}
		return g.Employment.StartDate.Format("2006-01-02")
	}})
	registerField(ExportField{"skills", "Skills", 40, func(g *Graduate) string {
		return strings.Join(g.Skills, ", ")
	}})
	registerField(ExportField{"certifications", "Certifications", 50, func(g *Graduate) string {
		return formatCertifications(g.Certifications)
	}})
	registerField(ExportField{"allow_employer_contact", "Allow Employer Contact", 20, func(g *Graduate) string {
		return yesNo(g.AllowEmployerContact)
	}})
	registerField(ExportField{"job_search_active", "Job Search Active", 18, func(g *Graduate) string {
		return yesNo(g.JobSearchActive)
	}})
	registerField(ExportField{"profile_completion", "Profile Completion", 18, func(g *Graduate) string {
		return strconv.Itoa(g.ProfileCompletion) + "%"
	}})
	registerField(ExportField{"created_at", "Created At", 20, func(g *Graduate) string {
		return formatTimestamp(g.CreatedAt)
	}})
	registerField(ExportField{"updated_at", "Updated At", 20, func(g *Graduate) string {
		return formatTimestamp(g.UpdatedAt)
	}})
}

// yesNo renders a boolean as the literal strings "Yes"/"No".
func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// titleCase converts a snake_case enum value to Title Case.
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func naIfEmpty(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ExportTimeFormat)
}

// formatCertifications renders entries joined by "; ", each entry a
// space-joined sequence of the name followed by bracketed issuer and
// date-obtained sub-parts when present.
func formatCertifications(certs []Certification) string {
	entries := make([]string, 0, len(certs))
	for _, c := range certs {
		parts := []string{c.Name}
		if c.Issuer != "" {
			parts = append(parts, "["+c.Issuer+"]")
		}
		if c.DateObtained != "" {
			parts = append(parts, "["+c.DateObtained+"]")
		}
		entries = append(entries, strings.Join(parts, " "))
	}
	return strings.Join(entries, "; ")
}
