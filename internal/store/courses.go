package store

import (
	"context"
	"fmt"

	"github.com/alumnihub/gradimport/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Courses implements core.CourseLookup over Postgres.
type Courses struct {
	db DBTX
}

// FindCourseByName resolves a course reference by exact name.
func (c *Courses) FindCourseByName(ctx context.Context, name string) (core.Course, bool, error) {
	var course core.Course
	var id pgtype.UUID

	err := c.db.QueryRow(ctx,
		`SELECT id, name FROM courses WHERE name = $1`,
		name,
	).Scan(&id, &course.Name)
	if err == pgx.ErrNoRows {
		return core.Course{}, false, nil
	}
	if err != nil {
		return core.Course{}, false, fmt.Errorf("find course by name: %w", err)
	}

	course.ID = uuidToString(id)
	return course, true, nil
}

// CreateCourse inserts a course and returns its reference. Used by
// seeding and tests; graduate import never creates courses.
func (c *Courses) CreateCourse(ctx context.Context, name string) (core.Course, error) {
	id := uuid.New().String()
	_, err := c.db.Exec(ctx,
		`INSERT INTO courses (id, name) VALUES ($1, $2)`,
		toPgUUID(id), name,
	)
	if err != nil {
		return core.Course{}, fmt.Errorf("create course: %w", err)
	}
	return core.Course{ID: id, Name: name}, nil
}

// ListCourses returns all courses ordered by name.
func (c *Courses) ListCourses(ctx context.Context) ([]core.Course, error) {
	rows, err := c.db.Query(ctx, `SELECT id, name FROM courses ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []core.Course
	for rows.Next() {
		var id pgtype.UUID
		var course core.Course
		if err := rows.Scan(&id, &course.Name); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		course.ID = uuidToString(id)
		courses = append(courses, course)
	}
	return courses, rows.Err()
}
