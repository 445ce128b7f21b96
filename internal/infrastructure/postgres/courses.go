package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/classkit/api/internal/domain"
)

// CourseRepo provides typed Postgres operations for courses and enrollments.
type CourseRepo struct {
	db *sqlx.DB
}

func NewCourseRepo(db *sqlx.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) Create(ctx context.Context, c *domain.Course) (*domain.Course, error) {
	const q = `
		INSERT INTO courses (title, description, section, code, teacher_id, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		RETURNING id`
	err := r.db.QueryRowxContext(ctx, q, c.Title, c.Description, c.Section, c.Code, c.TeacherID).Scan(&c.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("course code already taken: %w", domain.ErrConflict)
		}
		return nil, fmt.Errorf("insert course: %w", err)
	}
	c.Status = "active"
	return c, nil
}

func (r *CourseRepo) Get(ctx context.Context, courseID int64) (*domain.Course, error) {
	var c domain.Course
	err := r.db.GetContext(ctx, &c, `SELECT * FROM courses WHERE id = $1`, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %d: %w", courseID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepo) GetByCode(ctx context.Context, code string) (*domain.Course, error) {
	var c domain.Course
	err := r.db.GetContext(ctx, &c, `SELECT * FROM courses WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("course %s: %w", code, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Enroll adds the user to the course. Enrolling twice is a no-op.
func (r *CourseRepo) Enroll(ctx context.Context, courseID, userID int64) error {
	const q = `
		INSERT INTO course_enrollments (course_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (course_id, user_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, courseID, userID)
	return err
}

// ListEnrolledUserIDs returns the fan-out target set for a course.
func (r *CourseRepo) ListEnrolledUserIDs(ctx context.Context, courseID int64) ([]int64, error) {
	var ids []int64
	const q = `SELECT user_id FROM course_enrollments WHERE course_id = $1 ORDER BY user_id`
	if err := r.db.SelectContext(ctx, &ids, q, courseID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *CourseRepo) IsEnrolled(ctx context.Context, courseID, userID int64) (bool, error) {
	var enrolled bool
	const q = `SELECT EXISTS (SELECT 1 FROM course_enrollments WHERE course_id = $1 AND user_id = $2)`
	if err := r.db.GetContext(ctx, &enrolled, q, courseID, userID); err != nil {
		return false, err
	}
	return enrolled, nil
}

func (r *CourseRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Course, error) {
	var out []domain.Course
	const q = `
		SELECT c.* FROM courses c
		LEFT JOIN course_enrollments e ON e.course_id = c.id AND e.user_id = $1
		WHERE c.teacher_id = $1 OR e.user_id IS NOT NULL
		ORDER BY c.id`
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}
