package core

// export.go implements the export projector: given a filter, sort, and
// field selection, it produces a tabular projection (rows, headings,
// column-width hints) of graduate records for download. The projection is
// a pure function of its inputs; running it twice over the same records
// yields identical output.

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ExportFilter narrows the record set. All set conditions are combined
// with AND; zero values mean "no constraint".
type ExportFilter struct {
	CourseID             string
	GraduationYear       *int
	GraduationYearFrom   *int
	GraduationYearTo     *int
	EmploymentStatus     string
	JobSearchActive      *bool
	AllowEmployerContact *bool
	Skills               []string // every listed skill must be present
	GPAMin               *float64
	GPAMax               *float64
	CreatedFrom          *time.Time
	CreatedTo            *time.Time
	Search               string // free text over name/email/student_id
}

// ExportSpec is the one-request descriptor consumed by Project.
type ExportSpec struct {
	Filter          ExportFilter
	SortField       string // default "created_at"
	SortAsc         bool   // default newest-first
	Fields          []string
	SuppressHeaders bool
}

// ExportTable is the tabular projection produced by Project.
type ExportTable struct {
	Headings []string   `json:"headings,omitempty"`
	Rows     [][]string `json:"rows"`
	Widths   []int      `json:"widths"`
}

// sortableFields whitelists the fields accepted in a sort specification.
var sortableFields = map[string]bool{
	"name":            true,
	"email":           true,
	"graduation_year": true,
	"gpa":             true,
	"created_at":      true,
	"updated_at":      true,
}

// Project filters, sorts, and formats records into a tabular projection.
// Unknown field identifiers or sort fields are an error.
func Project(records []Graduate, spec ExportSpec) (*ExportTable, error) {
	fieldIDs := spec.Fields
	if len(fieldIDs) == 0 {
		fieldIDs = DefaultExportFields
	}

	fields := make([]ExportField, len(fieldIDs))
	for i, id := range fieldIDs {
		f, ok := FieldByID(id)
		if !ok {
			return nil, fmt.Errorf("unknown export field %q", id)
		}
		fields[i] = f
	}

	sortField := spec.SortField
	if sortField == "" {
		sortField = "created_at"
	}
	if !sortableFields[sortField] {
		return nil, fmt.Errorf("unsupported sort field %q", sortField)
	}

	matched := make([]Graduate, 0, len(records))
	for _, g := range records {
		if Matches(&g, spec.Filter) {
			matched = append(matched, g)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		c := compareGraduates(&matched[i], &matched[j], sortField)
		if spec.SortAsc {
			return c < 0
		}
		return c > 0
	})

	table := &ExportTable{
		Rows:   make([][]string, len(matched)),
		Widths: make([]int, len(fields)),
	}
	for i, f := range fields {
		table.Widths[i] = f.Width
	}
	if !spec.SuppressHeaders {
		table.Headings = make([]string, len(fields))
		for i, f := range fields {
			table.Headings[i] = f.Label
		}
	}

	for i := range matched {
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = f.Value(&matched[i])
		}
		table.Rows[i] = row
	}

	return table, nil
}

// Matches reports whether a record satisfies every set filter condition.
func Matches(g *Graduate, f ExportFilter) bool {
	if f.CourseID != "" && g.CourseID != f.CourseID {
		return false
	}
	if f.GraduationYear != nil && g.GraduationYear != *f.GraduationYear {
		return false
	}
	if f.GraduationYearFrom != nil && g.GraduationYear < *f.GraduationYearFrom {
		return false
	}
	if f.GraduationYearTo != nil && g.GraduationYear > *f.GraduationYearTo {
		return false
	}
	if f.EmploymentStatus != "" && g.Employment.Status != f.EmploymentStatus {
		return false
	}
	if f.JobSearchActive != nil && g.JobSearchActive != *f.JobSearchActive {
		return false
	}
	if f.AllowEmployerContact != nil && g.AllowEmployerContact != *f.AllowEmployerContact {
		return false
	}
	for _, want := range f.Skills {
		if !containsFold(g.Skills, want) {
			return false
		}
	}
	if f.GPAMin != nil && (g.GPA == nil || *g.GPA < *f.GPAMin) {
		return false
	}
	if f.GPAMax != nil && (g.GPA == nil || *g.GPA > *f.GPAMax) {
		return false
	}
	if f.CreatedFrom != nil && g.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && g.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(g.Name), needle) &&
			!strings.Contains(strings.ToLower(g.Email), needle) &&
			!strings.Contains(strings.ToLower(g.StudentID), needle) {
			return false
		}
	}
	return true
}

// compareGraduates orders two records on the given sort field, returning
// -1, 0, or 1. Records without a GPA sort before any record with one.
func compareGraduates(a, b *Graduate, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "email":
		return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
	case "graduation_year":
		return a.GraduationYear - b.GraduationYear
	case "gpa":
		av, bv := -1.0, -1.0
		if a.GPA != nil {
			av = *a.GPA
		}
		if b.GPA != nil {
			bv = *b.GPA
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default: // created_at
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
