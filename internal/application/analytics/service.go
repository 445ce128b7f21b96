package analytics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/classkit/api/internal/domain"
)

const (
	timelineDays     = 14
	recentEventLimit = 20
	recentEventSpan  = 30 * 24 * time.Hour
)

type Service interface {
	Dashboard(ctx context.Context, userID int64, role string, courseID int64) (*domain.Dashboard, error)
}

type statsStore interface {
	QuickKPIs(ctx context.Context, courseID int64) (domain.CourseKPIs, error)
	EngagementTimeline(ctx context.Context, courseID int64, days int) ([]domain.TimelineDay, error)
	AssignmentStats(ctx context.Context, courseID int64) (domain.AssignmentStats, error)
	Difficulty(ctx context.Context, courseID int64) ([]domain.AssignmentDifficulty, error)
	Completion(ctx context.Context, courseID int64) (float64, error)
}

type courseStore interface {
	Get(ctx context.Context, courseID int64) (*domain.Course, error)
}

type eventStore interface {
	RecentByCourse(ctx context.Context, courseID int64, since time.Time, limit int32, eventTypes ...string) ([]domain.Event, error)
}

type service struct {
	stats   statsStore
	courses courseStore
	events  eventStore
	logger  *zap.Logger
}

type ServiceDeps struct {
	Stats   statsStore
	Courses courseStore
	Events  eventStore
	Logger  *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		stats:   deps.Stats,
		courses: deps.Courses,
		events:  deps.Events,
		logger:  deps.Logger,
	}
}

// Dashboard assembles the teacher dashboard for one course. Relational
// figures are mandatory; the recent-activity feed comes from the event log
// and degrades to empty when that store is unreachable.
func (s *service) Dashboard(ctx context.Context, userID int64, role string, courseID int64) (*domain.Dashboard, error) {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleTeacher || course.TeacherID == nil || *course.TeacherID != userID {
		return nil, fmt.Errorf("dashboard is teacher-only: %w", domain.ErrForbidden)
	}

	kpis, err := s.stats.QuickKPIs(ctx, courseID)
	if err != nil {
		return nil, err
	}
	timeline, err := s.stats.EngagementTimeline(ctx, courseID, timelineDays)
	if err != nil {
		return nil, err
	}
	assignmentStats, err := s.stats.AssignmentStats(ctx, courseID)
	if err != nil {
		return nil, err
	}
	difficulty, err := s.stats.Difficulty(ctx, courseID)
	if err != nil {
		return nil, err
	}
	completion, err := s.stats.Completion(ctx, courseID)
	if err != nil {
		return nil, err
	}

	activity, err := s.events.RecentByCourse(ctx, courseID, time.Now().UTC().Add(-recentEventSpan), recentEventLimit)
	if err != nil {
		s.logger.Warn("event log unavailable, dashboard served without recent activity",
			zap.Int64("course_id", courseID),
			zap.Error(err))
		activity = []domain.Event{}
	}

	return &domain.Dashboard{
		KPIs:               kpis,
		EngagementTimeline: timeline,
		AssignmentStats:    assignmentStats,
		Difficulty:         difficulty,
		CourseCompletion:   completion,
		RecentActivity:     activity,
	}, nil
}
