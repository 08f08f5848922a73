package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alumnihub/gradimport/internal/core"
)

// parseIntParam reads an integer query parameter, falling back to def on
// absence or parse failure.
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// parseExportSpec builds an export specification from query parameters.
//
// Filters: course_id, graduation_year, graduation_year_from,
// graduation_year_to, employment_status, job_search_active,
// allow_employer_contact, skills (comma separated), gpa_min, gpa_max,
// created_from, created_to (YYYY-MM-DD), search.
//
// Presentation: sort (field name, prefix "-" for descending), fields
// (comma separated field IDs), no_headers.
func parseExportSpec(r *http.Request) (core.ExportSpec, error) {
	q := r.URL.Query()
	var spec core.ExportSpec

	spec.Filter.CourseID = q.Get("course_id")
	spec.Filter.EmploymentStatus = q.Get("employment_status")
	spec.Filter.Search = q.Get("search")

	var err error
	if spec.Filter.GraduationYear, err = intPtrParam(q.Get("graduation_year"), "graduation_year"); err != nil {
		return spec, err
	}
	if spec.Filter.GraduationYearFrom, err = intPtrParam(q.Get("graduation_year_from"), "graduation_year_from"); err != nil {
		return spec, err
	}
	if spec.Filter.GraduationYearTo, err = intPtrParam(q.Get("graduation_year_to"), "graduation_year_to"); err != nil {
		return spec, err
	}
	if spec.Filter.JobSearchActive, err = boolPtrParam(q.Get("job_search_active"), "job_search_active"); err != nil {
		return spec, err
	}
	if spec.Filter.AllowEmployerContact, err = boolPtrParam(q.Get("allow_employer_contact"), "allow_employer_contact"); err != nil {
		return spec, err
	}
	if spec.Filter.GPAMin, err = floatPtrParam(q.Get("gpa_min"), "gpa_min"); err != nil {
		return spec, err
	}
	if spec.Filter.GPAMax, err = floatPtrParam(q.Get("gpa_max"), "gpa_max"); err != nil {
		return spec, err
	}
	if spec.Filter.CreatedFrom, err = timePtrParam(q.Get("created_from"), "created_from"); err != nil {
		return spec, err
	}
	if spec.Filter.CreatedTo, err = timePtrParam(q.Get("created_to"), "created_to"); err != nil {
		return spec, err
	}

	spec.Filter.Skills = splitCommaParam(q.Get("skills"))
	spec.Fields = splitCommaParam(q.Get("fields"))

	if sortParam := q.Get("sort"); sortParam != "" {
		if strings.HasPrefix(sortParam, "-") {
			spec.SortField = sortParam[1:]
		} else {
			spec.SortField = sortParam
			spec.SortAsc = true
		}
	}

	if q.Get("no_headers") != "" {
		v, err := strconv.ParseBool(q.Get("no_headers"))
		if err != nil {
			return spec, fmt.Errorf("invalid no_headers value %q", q.Get("no_headers"))
		}
		spec.SuppressHeaders = v
	}

	return spec, nil
}

func splitCommaParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func intPtrParam(raw, name string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q", name, raw)
	}
	return &n, nil
}

func boolPtrParam(raw, name string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q", name, raw)
	}
	return &b, nil
}

func floatPtrParam(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q", name, raw)
	}
	return &f, nil
}

func timePtrParam(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q, expected YYYY-MM-DD", name, raw)
	}
	return &t, nil
}
