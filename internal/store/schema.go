package store

// schema.go holds the DDL for all tables. Migrate applies it idempotently
// at startup; every statement uses IF NOT EXISTS so repeated boots are
// safe. The unique indexes on graduates back the duplicate-detection
// downgrade path: a row that races past the in-run duplicate check fails
// here and is reported as invalid rather than silently merged.

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS courses_name_key ON courses (name)`,

	`CREATE TABLE IF NOT EXISTS graduates (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		address TEXT,
		student_id TEXT,
		course_id UUID NOT NULL REFERENCES courses(id),
		course_name TEXT NOT NULL,
		graduation_year INT NOT NULL,
		gpa DOUBLE PRECISION,
		academic_standing TEXT,
		employment_status TEXT NOT NULL,
		current_job_title TEXT,
		current_company TEXT,
		current_salary DOUBLE PRECISION,
		employment_start_date DATE,
		skills TEXT[] NOT NULL DEFAULT '{}',
		certifications JSONB NOT NULL DEFAULT '[]',
		allow_employer_contact BOOLEAN NOT NULL DEFAULT TRUE,
		job_search_active BOOLEAN NOT NULL DEFAULT TRUE,
		profile_visible BOOLEAN NOT NULL DEFAULT TRUE,
		contact_visible BOOLEAN NOT NULL DEFAULT TRUE,
		employment_visible BOOLEAN NOT NULL DEFAULT TRUE,
		profile_completion INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS graduates_email_key ON graduates (lower(email))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS graduates_student_id_key ON graduates (student_id)
		WHERE student_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS graduates_course_id_idx ON graduates (course_id)`,
	`CREATE INDEX IF NOT EXISTS graduates_created_at_idx ON graduates (created_at)`,

	`CREATE TABLE IF NOT EXISTS import_runs (
		id UUID PRIMARY KEY,
		file_name TEXT NOT NULL,
		status TEXT NOT NULL,
		processed INT NOT NULL DEFAULT 0,
		created_count INT NOT NULL DEFAULT 0,
		updated_count INT NOT NULL DEFAULT 0,
		skipped_count INT NOT NULL DEFAULT 0,
		valid_rows JSONB NOT NULL DEFAULT '[]',
		invalid_rows JSONB NOT NULL DEFAULT '[]',
		conflicts JSONB NOT NULL DEFAULT '[]',
		started_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS import_runs_started_at_idx ON import_runs (started_at)`,
}

// Migrate applies the schema. Safe to call on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
