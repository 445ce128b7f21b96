package assignment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/classkit/api/internal/application/notification"
	"github.com/classkit/api/internal/domain"
)

type Service interface {
	Create(ctx context.Context, userID int64, role string, req domain.CreateAssignmentRequest) (*domain.Assignment, error)
	ListByCourse(ctx context.Context, userID, courseID int64) ([]domain.Assignment, error)
	Submit(ctx context.Context, studentID, assignmentID int64, req domain.SubmitAssignmentRequest) (*domain.Submission, error)
	Grade(ctx context.Context, userID int64, role string, submissionID int64, req domain.GradeSubmissionRequest) (*domain.Submission, error)
}

type assignmentStore interface {
	Create(ctx context.Context, a *domain.Assignment) (*domain.Assignment, error)
	Get(ctx context.Context, assignmentID int64) (*domain.Assignment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]domain.Assignment, error)
	CreateSubmission(ctx context.Context, s *domain.Submission) (*domain.Submission, error)
	GetSubmission(ctx context.Context, submissionID int64) (*domain.Submission, error)
	SetGrade(ctx context.Context, submissionID int64, grade int) error
}

type courseStore interface {
	Get(ctx context.Context, courseID int64) (*domain.Course, error)
	IsEnrolled(ctx context.Context, courseID, userID int64) (bool, error)
	ListEnrolledUserIDs(ctx context.Context, courseID int64) ([]int64, error)
}

type notifier interface {
	Notify(ctx context.Context, in notification.NotifyInput) (*notification.Result, error)
	LogEvent(ctx context.Context, eventType string, userID, courseID int64, details map[string]any)
}

type service struct {
	assignments assignmentStore
	courses     courseStore
	notifier    notifier
	logger      *zap.Logger
}

type ServiceDeps struct {
	Assignments assignmentStore
	Courses     courseStore
	Notifier    notifier
	Logger      *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		assignments: deps.Assignments,
		courses:     deps.Courses,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
	}
}

// Create publishes a new assignment and notifies every enrolled student.
func (s *service) Create(ctx context.Context, userID int64, role string, req domain.CreateAssignmentRequest) (*domain.Assignment, error) {
	if role != domain.RoleTeacher {
		return nil, fmt.Errorf("only teachers can create assignments: %w", domain.ErrForbidden)
	}
	course, err := s.courses.Get(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID == nil || *course.TeacherID != userID {
		return nil, fmt.Errorf("not the teacher of this course: %w", domain.ErrForbidden)
	}

	allowLate := true
	if req.AllowLate != nil {
		allowLate = *req.AllowLate
	}
	maxPoints := 100
	if req.MaxPoints != nil {
		maxPoints = *req.MaxPoints
	}
	a, err := s.assignments.Create(ctx, &domain.Assignment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.UTC(),
		AllowLate:   allowLate,
		MaxPoints:   maxPoints,
	})
	if err != nil {
		return nil, err
	}

	recipients, err := s.courses.ListEnrolledUserIDs(ctx, a.CourseID)
	if err != nil {
		s.logger.Warn("assignment fan-out skipped, roster lookup failed",
			zap.Int64("course_id", a.CourseID),
			zap.Error(err))
	} else {
		msg := fmt.Sprintf("New assignment in %s: %s", course.Title, a.Title)
		for _, uid := range recipients {
			if uid == userID {
				continue
			}
			if _, err := s.notifier.Notify(ctx, notification.NotifyInput{
				UserID:      uid,
				Type:        domain.EventAssignmentCreated,
				ReferenceID: a.ID,
				Message:     msg,
				Metadata:    map[string]any{"course_id": a.CourseID, "due_date": a.DueDate.Format(time.RFC3339)},
			}); err != nil {
				s.logger.Warn("assignment notification failed for recipient",
					zap.Int64("user_id", uid),
					zap.Int64("assignment_id", a.ID),
					zap.Error(err))
			}
		}
	}
	s.notifier.LogEvent(ctx, domain.EventAssignmentCreated, userID, a.CourseID, map[string]any{
		"assignment_id": a.ID,
		"title":         a.Title,
	})

	return a, nil
}

func (s *service) ListByCourse(ctx context.Context, userID, courseID int64) ([]domain.Assignment, error) {
	enrolled, err := s.courses.IsEnrolled(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("not enrolled in course: %w", domain.ErrForbidden)
	}
	return s.assignments.ListByCourse(ctx, courseID)
}

// Submit records a student's work. Late submissions are flagged, and
// rejected outright when the assignment forbids them. A second submission
// for the same assignment is a conflict.
func (s *service) Submit(ctx context.Context, studentID, assignmentID int64, req domain.SubmitAssignmentRequest) (*domain.Submission, error) {
	a, err := s.assignments.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.courses.IsEnrolled(ctx, a.CourseID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("not enrolled in course: %w", domain.ErrForbidden)
	}

	now := time.Now().UTC()
	isLate := now.After(a.DueDate)
	if isLate && !a.AllowLate {
		return nil, fmt.Errorf("deadline passed and late submissions are not allowed: %w", domain.ErrForbidden)
	}

	sub, err := s.assignments.CreateSubmission(ctx, &domain.Submission{
		AssignmentID:   assignmentID,
		StudentID:      studentID,
		SubmissionText: req.SubmissionText,
		IsLate:         isLate,
	})
	if err != nil {
		return nil, err
	}

	course, err := s.courses.Get(ctx, a.CourseID)
	if err == nil && course.TeacherID != nil {
		if _, err := s.notifier.Notify(ctx, notification.NotifyInput{
			UserID:      *course.TeacherID,
			Type:        domain.EventAssignmentSubmitted,
			ReferenceID: sub.ID,
			Message:     fmt.Sprintf("New submission for %s", a.Title),
			Metadata:    map[string]any{"assignment_id": a.ID, "is_late": sub.IsLate},
		}); err != nil {
			s.logger.Warn("submission notification failed",
				zap.Int64("user_id", *course.TeacherID),
				zap.Int64("submission_id", sub.ID),
				zap.Error(err))
		}
	}
	s.notifier.LogEvent(ctx, domain.EventAssignmentSubmitted, studentID, a.CourseID, map[string]any{
		"assignment_id": a.ID,
		"submission_id": sub.ID,
		"is_late":       sub.IsLate,
	})

	return sub, nil
}

// Grade scores a submission and notifies the student.
func (s *service) Grade(ctx context.Context, userID int64, role string, submissionID int64, req domain.GradeSubmissionRequest) (*domain.Submission, error) {
	if role != domain.RoleTeacher {
		return nil, fmt.Errorf("only teachers can grade: %w", domain.ErrForbidden)
	}
	sub, err := s.assignments.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	a, err := s.assignments.Get(ctx, sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.Get(ctx, a.CourseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID == nil || *course.TeacherID != userID {
		return nil, fmt.Errorf("not the teacher of this course: %w", domain.ErrForbidden)
	}
	if req.Grade < 0 || req.Grade > a.MaxPoints {
		return nil, fmt.Errorf("grade must be between 0 and %d: %w", a.MaxPoints, domain.ErrBadRequest)
	}

	if err := s.assignments.SetGrade(ctx, submissionID, req.Grade); err != nil {
		return nil, err
	}
	sub.Grade = &req.Grade

	if _, err := s.notifier.Notify(ctx, notification.NotifyInput{
		UserID:      sub.StudentID,
		Type:        domain.EventGradeGiven,
		ReferenceID: sub.ID,
		Message:     fmt.Sprintf("Your submission for %s was graded: %d/%d", a.Title, req.Grade, a.MaxPoints),
		Metadata:    map[string]any{"assignment_id": a.ID, "grade": req.Grade},
	}); err != nil {
		s.logger.Warn("grade notification failed",
			zap.Int64("user_id", sub.StudentID),
			zap.Int64("submission_id", sub.ID),
			zap.Error(err))
	}
	s.notifier.LogEvent(ctx, domain.EventGradeGiven, userID, a.CourseID, map[string]any{
		"assignment_id": a.ID,
		"submission_id": sub.ID,
		"grade":         req.Grade,
	})

	return sub, nil
}
