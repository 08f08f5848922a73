package core

// transform.go converts a validated row payload into the structured
// graduate record ready for persistence. The transform is pure: no
// lookups, no side effects.

import "strings"

// Transformer builds graduate records from validated rows, applying the
// configured default policy for boolean preferences and privacy flags.
type Transformer struct {
	defaults TransformDefaults
}

// NewTransformer creates a transformer with the given default policy.
func NewTransformer(defaults TransformDefaults) *Transformer {
	return &Transformer{defaults: defaults}
}

// Transform produces the persistence payload for a validated row.
func (t *Transformer) Transform(v *ValidatedRow) *Graduate {
	g := &Graduate{
		Name:             v.Name,
		Email:            v.Email,
		Phone:            v.Phone,
		Address:          v.Address,
		StudentID:        v.StudentID,
		CourseID:         v.Course.ID,
		CourseName:       v.Course.Name,
		GraduationYear:   v.GraduationYear,
		GPA:              v.GPA,
		AcademicStanding: v.AcademicStanding,
		Employment: Employment{
			Status:    v.EmploymentStatus,
			JobTitle:  v.JobTitle,
			Company:   v.Company,
			Salary:    v.Salary,
			StartDate: v.StartDate,
		},
		Skills:         SplitSkills(v.SkillsRaw),
		Certifications: ParseCertifications(v.CertificationsRaw),
		Privacy:        t.defaults.Privacy,
	}

	g.AllowEmployerContact = boolOrDefault(v.AllowContactRaw, t.defaults.AllowEmployerContact)
	g.JobSearchActive = boolOrDefault(v.JobSearchRaw, t.defaults.JobSearchActive)

	return g
}

// SplitSkills splits a comma-delimited skills cell into trimmed tokens,
// dropping empties. Source order is preserved and duplicates are kept.
func SplitSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var skills []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			skills = append(skills, token)
		}
	}
	return skills
}

// ParseCertifications splits a semicolon-delimited certifications cell into
// entries. Each entry may contain pipe-delimited segments read positionally
// as (name, issuer, date obtained); missing segments default to empty
// strings, and an entry with no pipe is treated as name-only.
func ParseCertifications(raw string) []Certification {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var certs []Certification
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		var cert Certification
		parts := strings.Split(entry, "|")
		if len(parts) > 0 {
			cert.Name = strings.TrimSpace(parts[0])
		}
		if len(parts) > 1 {
			cert.Issuer = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			cert.DateObtained = strings.TrimSpace(parts[2])
		}
		certs = append(certs, cert)
	}
	return certs
}

// boolOrDefault parses a boolean-like cell, falling back to the configured
// default when the cell is absent or unparseable.
func boolOrDefault(raw string, def bool) bool {
	if b, ok := ParseBool(raw); ok {
		return b
	}
	return def
}
