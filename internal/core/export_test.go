package core

import (
	"reflect"
	"testing"
	"time"
)

func sampleGraduates() []Graduate {
	gpaHigh := 3.9
	gpaLow := 2.1
	salary := 85000.0
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	return []Graduate{
		{
			ID: "g1", Name: "Alice", Email: "alice@example.com", StudentID: "STU-1",
			CourseID: "course-cs", CourseName: "Computer Science",
			GraduationYear: 2024, GPA: &gpaHigh, AcademicStanding: "very_good",
			Employment: Employment{
				Status: "employed", JobTitle: "Engineer", Company: "Acme",
				Salary: &salary, StartDate: &start,
			},
			Skills:               []string{"Go", "SQL"},
			Certifications:       []Certification{{Name: "AWS", Issuer: "Amazon", DateObtained: "2024"}},
			AllowEmployerContact: true, JobSearchActive: false,
			ProfileCompletion: 85,
			CreatedAt:         time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		},
		{
			ID: "g2", Name: "Bob", Email: "bob@example.com",
			CourseID: "course-me", CourseName: "Mechanical Eng",
			GraduationYear: 2022, GPA: &gpaLow,
			Employment:      Employment{Status: "unemployed"},
			JobSearchActive: true,
			CreatedAt:       time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC),
		},
		{
			ID: "g3", Name: "Carol", Email: "carol@example.com",
			CourseID: "course-cs", CourseName: "Computer Science",
			GraduationYear: 2024,
			Employment:     Employment{Status: "self_employed"},
			Skills:         []string{"go", "Rust"},
			CreatedAt:      time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC),
		},
	}
}

func projectNames(t *testing.T, spec ExportSpec) []string {
	t.Helper()
	spec.Fields = []string{"name"}
	table, err := Project(sampleGraduates(), spec)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	names := make([]string, len(table.Rows))
	for i, row := range table.Rows {
		names[i] = row[0]
	}
	return names
}

func TestProjectFilters(t *testing.T) {
	year := 2024
	active := true
	gpaMin := 3.0

	tests := []struct {
		name   string
		filter ExportFilter
		want   []string
	}{
		{"no filter", ExportFilter{}, []string{"Carol", "Bob", "Alice"}},
		{"by course", ExportFilter{CourseID: "course-cs"}, []string{"Carol", "Alice"}},
		{"by year", ExportFilter{GraduationYear: &year}, []string{"Carol", "Alice"}},
		{"by status", ExportFilter{EmploymentStatus: "unemployed"}, []string{"Bob"}},
		{"by job search", ExportFilter{JobSearchActive: &active}, []string{"Bob"}},
		{"skill matching is case insensitive", ExportFilter{Skills: []string{"GO"}}, []string{"Carol", "Alice"}},
		{"all skills must match", ExportFilter{Skills: []string{"Go", "Rust"}}, []string{"Carol"}},
		{"gpa min excludes missing gpa", ExportFilter{GPAMin: &gpaMin}, []string{"Alice"}},
		{"search over name", ExportFilter{Search: "ali"}, []string{"Alice"}},
		{"search over email", ExportFilter{Search: "bob@"}, []string{"Bob"}},
		{"search over student id", ExportFilter{Search: "stu-1"}, []string{"Alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := projectNames(t, ExportSpec{Filter: tt.filter})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("rows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProjectFilterRanges(t *testing.T) {
	from, to := 2023, 2024
	created := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	got := projectNames(t, ExportSpec{Filter: ExportFilter{
		GraduationYearFrom: &from,
		GraduationYearTo:   &to,
	}})
	if !reflect.DeepEqual(got, []string{"Carol", "Alice"}) {
		t.Errorf("year range rows = %v", got)
	}

	got = projectNames(t, ExportSpec{Filter: ExportFilter{CreatedFrom: &created}})
	if !reflect.DeepEqual(got, []string{"Carol", "Bob"}) {
		t.Errorf("created range rows = %v", got)
	}
}

func TestProjectSort(t *testing.T) {
	t.Run("default newest first", func(t *testing.T) {
		got := projectNames(t, ExportSpec{})
		if !reflect.DeepEqual(got, []string{"Carol", "Bob", "Alice"}) {
			t.Errorf("rows = %v", got)
		}
	})

	t.Run("by name ascending", func(t *testing.T) {
		got := projectNames(t, ExportSpec{SortField: "name", SortAsc: true})
		if !reflect.DeepEqual(got, []string{"Alice", "Bob", "Carol"}) {
			t.Errorf("rows = %v", got)
		}
	})

	t.Run("missing gpa sorts first ascending", func(t *testing.T) {
		got := projectNames(t, ExportSpec{SortField: "gpa", SortAsc: true})
		if !reflect.DeepEqual(got, []string{"Carol", "Bob", "Alice"}) {
			t.Errorf("rows = %v", got)
		}
	})

	t.Run("unsupported sort field", func(t *testing.T) {
		_, err := Project(sampleGraduates(), ExportSpec{SortField: "phone"})
		if err == nil {
			t.Error("expected error for unsupported sort field")
		}
	})
}

func TestProjectDefaultFields(t *testing.T) {
	table, err := Project(sampleGraduates(), ExportSpec{})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	if len(table.Headings) != len(DefaultExportFields) {
		t.Fatalf("headings = %d, want %d", len(table.Headings), len(DefaultExportFields))
	}
	if table.Headings[0] != "Name" || table.Headings[1] != "Email" {
		t.Errorf("headings start = %v, want Name then Email", table.Headings[:2])
	}
	if len(table.Widths) != len(DefaultExportFields) {
		t.Errorf("widths = %d", len(table.Widths))
	}
	for _, row := range table.Rows {
		if len(row) != len(DefaultExportFields) {
			t.Errorf("row width = %d, want %d", len(row), len(DefaultExportFields))
		}
	}
}

func TestProjectFormatting(t *testing.T) {
	table, err := Project(sampleGraduates(), ExportSpec{
		SortField: "name",
		SortAsc:   true,
		Fields: []string{
			"employment_status", "gpa", "current_salary", "employment_start_date",
			"skills", "certifications", "allow_employer_contact", "job_search_active",
			"profile_completion", "created_at", "current_company",
		},
	})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	alice := table.Rows[0]
	want := []string{
		"Employed", "3.90", "85000.00", "2024-07-01",
		"Go, SQL", "AWS [Amazon] [2024]", "Yes", "No",
		"85%", "2025-01-10 12:00:00", "Acme",
	}
	if !reflect.DeepEqual(alice, want) {
		t.Errorf("alice row:\n got %v\nwant %v", alice, want)
	}

	bob := table.Rows[1]
	if bob[0] != "Unemployed" || bob[1] != "2.10" || bob[2] != "N/A" || bob[10] != "N/A" {
		t.Errorf("bob row = %v", bob)
	}

	carol := table.Rows[2]
	if carol[0] != "Self Employed" || carol[1] != "" || carol[3] != "N/A" {
		t.Errorf("carol row = %v", carol)
	}
}

func TestProjectSuppressHeaders(t *testing.T) {
	table, err := Project(sampleGraduates(), ExportSpec{SuppressHeaders: true})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if table.Headings != nil {
		t.Errorf("Headings = %v, want nil", table.Headings)
	}
}

func TestProjectUnknownField(t *testing.T) {
	_, err := Project(sampleGraduates(), ExportSpec{Fields: []string{"shoe_size"}})
	if err == nil {
		t.Fatal("expected unknown export field error")
	}
	if MapError(err).Code != "EXP001" {
		t.Errorf("code = %s, want EXP001", MapError(err).Code)
	}
}

func TestProjectIdempotent(t *testing.T) {
	records := sampleGraduates()
	spec := ExportSpec{SortField: "email", SortAsc: true}

	first, err := Project(records, spec)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	second, err := Project(records, spec)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated projection differs")
	}
}
