package domain

import "time"

type Assignment struct {
	ID          int64     `json:"id" db:"id"`
	CourseID    int64     `json:"course_id" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	AllowLate   bool      `json:"allow_late" db:"allow_late"`
	MaxPoints   int       `json:"max_points" db:"max_points"`
}

type Submission struct {
	ID             int64     `json:"id" db:"id"`
	AssignmentID   int64     `json:"assignment_id" db:"assignment_id"`
	StudentID      int64     `json:"student_id" db:"student_id"`
	SubmissionText *string   `json:"submission_text" db:"submission_text"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	Grade          *int      `json:"grade" db:"grade"`
	IsLate         bool      `json:"is_late" db:"is_late"`
}

type CreateAssignmentRequest struct {
	CourseID    int64     `json:"course_id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description *string   `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	AllowLate   *bool     `json:"allow_late"`
	MaxPoints   *int      `json:"max_points"`
}

type SubmitAssignmentRequest struct {
	SubmissionText *string `json:"submission_text"`
}

type GradeSubmissionRequest struct {
	Grade int `json:"grade" validate:"min=0"`
}
