package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alumnihub/gradimport/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Graduates implements core.GraduateStore and core.ExportSource over
// Postgres.
type Graduates struct {
	db DBTX
}

const graduateColumns = `id, name, email, phone, address, student_id, course_id, course_name,
	graduation_year, gpa, academic_standing, employment_status, current_job_title,
	current_company, current_salary, employment_start_date, skills, certifications,
	allow_employer_contact, job_search_active, profile_visible, contact_visible,
	employment_visible, profile_completion, created_at, updated_at`

// Create inserts a graduate record, assigning ID and timestamps on the
// passed record. Unique-index violations on email/student_id surface as
// errors for the importer's row-scoped downgrade path.
func (g *Graduates) Create(ctx context.Context, grad *core.Graduate) error {
	if grad.ID == "" {
		grad.ID = uuid.New().String()
	}
	now := time.Now()
	grad.CreatedAt = now
	grad.UpdatedAt = now

	certs, err := json.Marshal(certsOrEmpty(grad.Certifications))
	if err != nil {
		return fmt.Errorf("marshal certifications: %w", err)
	}

	_, err = g.db.Exec(ctx, `
		INSERT INTO graduates (
			id, name, email, phone, address, student_id, course_id, course_name,
			graduation_year, gpa, academic_standing, employment_status,
			current_job_title, current_company, current_salary, employment_start_date,
			skills, certifications, allow_employer_contact, job_search_active,
			profile_visible, contact_visible, employment_visible, profile_completion,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20,
			$21, $22, $23, $24,
			$25, $26
		)`,
		toPgUUID(grad.ID), grad.Name, grad.Email,
		toPgText(grad.Phone), toPgText(grad.Address), toPgText(grad.StudentID),
		toPgUUID(grad.CourseID), grad.CourseName,
		grad.GraduationYear, grad.GPA, toPgText(grad.AcademicStanding), grad.Employment.Status,
		toPgText(grad.Employment.JobTitle), toPgText(grad.Employment.Company),
		grad.Employment.Salary, toPgDate(grad.Employment.StartDate),
		skillsOrEmpty(grad.Skills), certs,
		grad.AllowEmployerContact, grad.JobSearchActive,
		grad.Privacy.ProfileVisible, grad.Privacy.ContactVisible, grad.Privacy.EmploymentVisible,
		grad.ProfileCompletion,
		grad.CreatedAt, grad.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create graduate: %w", err)
	}
	return nil
}

// FindByEmail returns the graduate claiming an email, or nil. The match
// is case-insensitive to mirror the unique index.
func (g *Graduates) FindByEmail(ctx context.Context, email string) (*core.Graduate, error) {
	return g.findOne(ctx,
		fmt.Sprintf(`SELECT %s FROM graduates WHERE lower(email) = lower($1)`, graduateColumns),
		email)
}

// FindByStudentID returns the graduate claiming a student ID, or nil.
func (g *Graduates) FindByStudentID(ctx context.Context, studentID string) (*core.Graduate, error) {
	return g.findOne(ctx,
		fmt.Sprintf(`SELECT %s FROM graduates WHERE student_id = $1`, graduateColumns),
		studentID)
}

// RecomputeProfileCompletion recalculates and persists the completion
// percentage for a graduate, returning the new value.
func (g *Graduates) RecomputeProfileCompletion(ctx context.Context, graduateID string) (int, error) {
	grad, err := g.findOne(ctx,
		fmt.Sprintf(`SELECT %s FROM graduates WHERE id = $1`, graduateColumns),
		toPgUUID(graduateID))
	if err != nil {
		return 0, err
	}
	if grad == nil {
		return 0, fmt.Errorf("graduate %s not found", graduateID)
	}

	completion := core.ComputeProfileCompletion(grad)
	_, err = g.db.Exec(ctx,
		`UPDATE graduates SET profile_completion = $1, updated_at = now() WHERE id = $2`,
		completion, toPgUUID(graduateID),
	)
	if err != nil {
		return 0, fmt.Errorf("update profile completion: %w", err)
	}
	return completion, nil
}

// ListGraduates returns records for export projection. Cheap equality and
// range conditions are pushed into SQL; the projector re-applies the full
// filter, so pushdown here is an optimization only.
func (g *Graduates) ListGraduates(ctx context.Context, f core.ExportFilter) ([]core.Graduate, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CourseID != "" {
		conds = append(conds, "course_id = "+arg(toPgUUID(f.CourseID)))
	}
	if f.EmploymentStatus != "" {
		conds = append(conds, "employment_status = "+arg(f.EmploymentStatus))
	}
	if f.GraduationYear != nil {
		conds = append(conds, "graduation_year = "+arg(*f.GraduationYear))
	}
	if f.GraduationYearFrom != nil {
		conds = append(conds, "graduation_year >= "+arg(*f.GraduationYearFrom))
	}
	if f.GraduationYearTo != nil {
		conds = append(conds, "graduation_year <= "+arg(*f.GraduationYearTo))
	}
	if f.CreatedFrom != nil {
		conds = append(conds, "created_at >= "+arg(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		conds = append(conds, "created_at <= "+arg(*f.CreatedTo))
	}

	query := fmt.Sprintf(`SELECT %s FROM graduates`, graduateColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := g.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list graduates: %w", err)
	}
	defer rows.Close()

	var grads []core.Graduate
	for rows.Next() {
		grad, err := scanGraduate(rows)
		if err != nil {
			return nil, err
		}
		grads = append(grads, *grad)
	}
	return grads, rows.Err()
}

func (g *Graduates) findOne(ctx context.Context, query string, arg interface{}) (*core.Graduate, error) {
	rows, err := g.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query graduate: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanGraduate(rows)
}

func scanGraduate(row pgx.Rows) (*core.Graduate, error) {
	var grad core.Graduate
	var id, courseID pgtype.UUID
	var phone, address, studentID, standing, jobTitle, company pgtype.Text
	var startDate pgtype.Date
	var certs []byte

	err := row.Scan(
		&id, &grad.Name, &grad.Email, &phone, &address, &studentID,
		&courseID, &grad.CourseName, &grad.GraduationYear, &grad.GPA,
		&standing, &grad.Employment.Status, &jobTitle, &company,
		&grad.Employment.Salary, &startDate, &grad.Skills, &certs,
		&grad.AllowEmployerContact, &grad.JobSearchActive,
		&grad.Privacy.ProfileVisible, &grad.Privacy.ContactVisible,
		&grad.Privacy.EmploymentVisible, &grad.ProfileCompletion,
		&grad.CreatedAt, &grad.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan graduate: %w", err)
	}

	grad.ID = uuidToString(id)
	grad.CourseID = uuidToString(courseID)
	grad.Phone = fromPgText(phone)
	grad.Address = fromPgText(address)
	grad.StudentID = fromPgText(studentID)
	grad.AcademicStanding = fromPgText(standing)
	grad.Employment.JobTitle = fromPgText(jobTitle)
	grad.Employment.Company = fromPgText(company)
	grad.Employment.StartDate = fromPgDate(startDate)

	if len(certs) > 0 {
		if err := json.Unmarshal(certs, &grad.Certifications); err != nil {
			return nil, fmt.Errorf("unmarshal certifications: %w", err)
		}
	}

	return &grad, nil
}

func skillsOrEmpty(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}

func certsOrEmpty(certs []core.Certification) []core.Certification {
	if certs == nil {
		return []core.Certification{}
	}
	return certs
}
