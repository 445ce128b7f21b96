package domain

import "time"

type Course struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description" db:"description"`
	Section     *string `json:"section" db:"section"`
	Code        string  `json:"code" db:"code"`
	TeacherID   *int64  `json:"teacher_id" db:"teacher_id"`
	Status      string  `json:"status" db:"status"` // active | inactive
}

type CourseEnrollment struct {
	CourseID   int64     `json:"course_id" db:"course_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	EnrolledAt time.Time `json:"enrolled_at" db:"enrolled_at"`
}

type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Section     *string `json:"section"`
}
