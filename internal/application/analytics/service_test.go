package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classkit/api/internal/domain"
)

type mockStatsStore struct{ mock.Mock }

func (m *mockStatsStore) QuickKPIs(ctx context.Context, courseID int64) (domain.CourseKPIs, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(domain.CourseKPIs), args.Error(1)
}
func (m *mockStatsStore) EngagementTimeline(ctx context.Context, courseID int64, days int) ([]domain.TimelineDay, error) {
	args := m.Called(ctx, courseID, days)
	ts, _ := args.Get(0).([]domain.TimelineDay)
	return ts, args.Error(1)
}
func (m *mockStatsStore) AssignmentStats(ctx context.Context, courseID int64) (domain.AssignmentStats, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(domain.AssignmentStats), args.Error(1)
}
func (m *mockStatsStore) Difficulty(ctx context.Context, courseID int64) ([]domain.AssignmentDifficulty, error) {
	args := m.Called(ctx, courseID)
	ds, _ := args.Get(0).([]domain.AssignmentDifficulty)
	return ds, args.Error(1)
}
func (m *mockStatsStore) Completion(ctx context.Context, courseID int64) (float64, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).(float64), args.Error(1)
}

type mockCourseStore struct{ mock.Mock }

func (m *mockCourseStore) Get(ctx context.Context, courseID int64) (*domain.Course, error) {
	args := m.Called(ctx, courseID)
	if c, _ := args.Get(0).(*domain.Course); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEventStore struct{ mock.Mock }

func (m *mockEventStore) RecentByCourse(ctx context.Context, courseID int64, since time.Time, limit int32, eventTypes ...string) ([]domain.Event, error) {
	args := m.Called(ctx, courseID, since, limit, eventTypes)
	es, _ := args.Get(0).([]domain.Event)
	return es, args.Error(1)
}

func healthyStats(ss *mockStatsStore) {
	ss.On("QuickKPIs", mock.Anything, int64(3)).Return(domain.CourseKPIs{TotalStudents: 12, TotalAssignments: 4}, nil)
	ss.On("EngagementTimeline", mock.Anything, int64(3), timelineDays).Return([]domain.TimelineDay{}, nil)
	ss.On("AssignmentStats", mock.Anything, int64(3)).Return(domain.AssignmentStats{}, nil)
	ss.On("Difficulty", mock.Anything, int64(3)).Return([]domain.AssignmentDifficulty{}, nil)
	ss.On("Completion", mock.Anything, int64(3)).Return(72.5, nil)
}

func newService(ss *mockStatsStore, cs *mockCourseStore, es *mockEventStore) Service {
	return NewService(ServiceDeps{Stats: ss, Courses: cs, Events: es, Logger: zap.NewNop()})
}

func TestDashboard_AssemblesAllSections(t *testing.T) {
	ss, cs, es := &mockStatsStore{}, &mockCourseStore{}, &mockEventStore{}
	teacherID := int64(1)
	cs.On("Get", mock.Anything, int64(3)).Return(&domain.Course{ID: 3, TeacherID: &teacherID}, nil)
	healthyStats(ss)
	es.On("RecentByCourse", mock.Anything, int64(3), mock.Anything, int32(recentEventLimit), mock.Anything).
		Return([]domain.Event{{EventID: "e1", EventType: domain.EventPostCreated}}, nil)

	svc := newService(ss, cs, es)
	d, err := svc.Dashboard(context.Background(), 1, domain.RoleTeacher, 3)

	require.NoError(t, err)
	assert.Equal(t, 12, d.KPIs.TotalStudents)
	assert.Equal(t, 72.5, d.CourseCompletion)
	require.Len(t, d.RecentActivity, 1)
}

func TestDashboard_EventLogDown_ServedWithoutActivity(t *testing.T) {
	ss, cs, es := &mockStatsStore{}, &mockCourseStore{}, &mockEventStore{}
	teacherID := int64(1)
	cs.On("Get", mock.Anything, int64(3)).Return(&domain.Course{ID: 3, TeacherID: &teacherID}, nil)
	healthyStats(ss)
	es.On("RecentByCourse", mock.Anything, int64(3), mock.Anything, int32(recentEventLimit), mock.Anything).
		Return(nil, errors.New("table unavailable"))

	svc := newService(ss, cs, es)
	d, err := svc.Dashboard(context.Background(), 1, domain.RoleTeacher, 3)

	require.NoError(t, err)
	assert.NotNil(t, d.RecentActivity)
	assert.Empty(t, d.RecentActivity)
}

func TestDashboard_RelationalDown_Fails(t *testing.T) {
	ss, cs, es := &mockStatsStore{}, &mockCourseStore{}, &mockEventStore{}
	teacherID := int64(1)
	cs.On("Get", mock.Anything, int64(3)).Return(&domain.Course{ID: 3, TeacherID: &teacherID}, nil)
	ss.On("QuickKPIs", mock.Anything, int64(3)).Return(domain.CourseKPIs{}, errors.New("connection refused"))

	svc := newService(ss, cs, es)
	_, err := svc.Dashboard(context.Background(), 1, domain.RoleTeacher, 3)

	require.Error(t, err)
}

func TestDashboard_NotCourseTeacher_Forbidden(t *testing.T) {
	ss, cs, es := &mockStatsStore{}, &mockCourseStore{}, &mockEventStore{}
	teacherID := int64(1)
	cs.On("Get", mock.Anything, int64(3)).Return(&domain.Course{ID: 3, TeacherID: &teacherID}, nil)

	svc := newService(ss, cs, es)
	_, err := svc.Dashboard(context.Background(), 2, domain.RoleStudent, 3)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}
