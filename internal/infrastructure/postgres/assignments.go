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

// AssignmentRepo provides typed Postgres operations for assignments and
// submissions.
type AssignmentRepo struct {
	db *sqlx.DB
}

func NewAssignmentRepo(db *sqlx.DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

func (r *AssignmentRepo) Create(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error) {
	const q = `
		INSERT INTO assignments (course_id, title, description, due_date, allow_late, max_points)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.db.QueryRowxContext(ctx, q, a.CourseID, a.Title, a.Description, a.DueDate, a.AllowLate, a.MaxPoints).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	return a, nil
}

func (r *AssignmentRepo) Get(ctx context.Context, assignmentID int64) (*domain.Assignment, error) {
	var a domain.Assignment
	err := r.db.GetContext(ctx, &a, `SELECT * FROM assignments WHERE id = $1`, assignmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepo) ListByCourse(ctx context.Context, courseID int64) ([]domain.Assignment, error) {
	var out []domain.Assignment
	const q = `SELECT * FROM assignments WHERE course_id = $1 ORDER BY due_date`
	if err := r.db.SelectContext(ctx, &out, q, courseID); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSubmission inserts a submission. The per-student uniqueness
// constraint surfaces as domain.ErrConflict on resubmission.
func (r *AssignmentRepo) CreateSubmission(ctx context.Context, s *domain.Submission) (*domain.Submission, error) {
	const q = `
		INSERT INTO submissions (assignment_id, student_id, submission_text, is_late)
		VALUES ($1, $2, $3, $4)
		RETURNING id, timestamp`
	err := r.db.QueryRowxContext(ctx, q, s.AssignmentID, s.StudentID, s.SubmissionText, s.IsLate).Scan(&s.ID, &s.Timestamp)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("assignment already submitted: %w", domain.ErrConflict)
		}
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return s, nil
}

func (r *AssignmentRepo) GetSubmission(ctx context.Context, submissionID int64) (*domain.Submission, error) {
	var s domain.Submission
	err := r.db.GetContext(ctx, &s, `SELECT * FROM submissions WHERE id = $1`, submissionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %d: %w", submissionID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *AssignmentRepo) SetGrade(ctx context.Context, submissionID int64, grade int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE submissions SET grade = $1 WHERE id = $2`, grade, submissionID)
	return err
}
