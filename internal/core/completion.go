package core

// completion.go computes the derived profile-completion percentage. The
// score is a weighted checklist over profile sections; it is recomputed
// after every create so exports always reflect the stored record.

// completionChecks lists each scored section with its weight. Weights sum
// to 100.
var completionChecks = []struct {
	weight int
	filled func(g *Graduate) bool
}{
	{15, func(g *Graduate) bool { return g.Name != "" && g.Email != "" }},
	{10, func(g *Graduate) bool { return g.Phone != "" }},
	{5, func(g *Graduate) bool { return g.Address != "" }},
	{10, func(g *Graduate) bool { return g.StudentID != "" }},
	{15, func(g *Graduate) bool { return g.CourseID != "" && g.GraduationYear != 0 }},
	{10, func(g *Graduate) bool { return g.GPA != nil || g.AcademicStanding != "" }},
	{15, func(g *Graduate) bool { return g.Employment.Status != "" }},
	{5, func(g *Graduate) bool { return g.Employment.JobTitle != "" || g.Employment.Company != "" }},
	{10, func(g *Graduate) bool { return len(g.Skills) > 0 }},
	{5, func(g *Graduate) bool { return len(g.Certifications) > 0 }},
}

// ComputeProfileCompletion returns the completion percentage (0-100) for a
// graduate record.
func ComputeProfileCompletion(g *Graduate) int {
	score := 0
	for _, check := range completionChecks {
		if check.filled(g) {
			score += check.weight
		}
	}
	return score
}
