package course

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/classkit/api/internal/domain"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type Service interface {
	Create(ctx context.Context, teacherID int64, role string, req domain.CreateCourseRequest) (*domain.Course, error)
	Join(ctx context.Context, userID int64, code string) (*domain.Course, error)
	Get(ctx context.Context, userID, courseID int64) (*domain.Course, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Course, error)
	Roster(ctx context.Context, userID, courseID int64) ([]domain.User, error)
}

type courseStore interface {
	Create(ctx context.Context, c *domain.Course) (*domain.Course, error)
	Get(ctx context.Context, courseID int64) (*domain.Course, error)
	GetByCode(ctx context.Context, code string) (*domain.Course, error)
	Enroll(ctx context.Context, courseID, userID int64) error
	ListEnrolledUserIDs(ctx context.Context, courseID int64) ([]int64, error)
	IsEnrolled(ctx context.Context, courseID, userID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Course, error)
}

type userStore interface {
	Get(ctx context.Context, userID int64) (*domain.User, error)
}

type service struct {
	courses courseStore
	users   userStore
}

type ServiceDeps struct {
	Courses courseStore
	Users   userStore
}

func NewService(deps ServiceDeps) Service {
	return &service{courses: deps.Courses, users: deps.Users}
}

// Create opens a course and enrolls its teacher. The join code is retried
// on collision; the courses.code unique constraint is the arbiter.
func (s *service) Create(ctx context.Context, teacherID int64, role string, req domain.CreateCourseRequest) (*domain.Course, error) {
	if role != domain.RoleTeacher {
		return nil, fmt.Errorf("only teachers can create courses: %w", domain.ErrForbidden)
	}

	var created *domain.Course
	for attempt := 0; attempt < 5; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return nil, err
		}
		created, err = s.courses.Create(ctx, &domain.Course{
			Title:       req.Title,
			Description: req.Description,
			Section:     req.Section,
			Code:        code,
			TeacherID:   &teacherID,
			Status:      "active",
		})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		created = nil
	}
	if created == nil {
		return nil, fmt.Errorf("could not allocate a unique join code: %w", domain.ErrConflict)
	}

	if err := s.courses.Enroll(ctx, created.ID, teacherID); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Join(ctx context.Context, userID int64, code string) (*domain.Course, error) {
	c, err := s.courses.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid course code: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	if c.Status != "active" {
		return nil, fmt.Errorf("course is not accepting enrollments: %w", domain.ErrForbidden)
	}
	if err := s.courses.Enroll(ctx, c.ID, userID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, userID, courseID int64) (*domain.Course, error) {
	enrolled, err := s.courses.IsEnrolled(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("not enrolled in course: %w", domain.ErrForbidden)
	}
	return s.courses.Get(ctx, courseID)
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]domain.Course, error) {
	return s.courses.ListByUser(ctx, userID)
}

func (s *service) Roster(ctx context.Context, userID, courseID int64) ([]domain.User, error) {
	enrolled, err := s.courses.IsEnrolled(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("not enrolled in course: %w", domain.ErrForbidden)
	}
	ids, err := s.courses.ListEnrolledUserIDs(ctx, courseID)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		u, err := s.users.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func newJoinCode() (string, error) {
	buf := make([]byte, 7)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
