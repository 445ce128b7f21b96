package stream

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/classkit/api/internal/application/notification"
	"github.com/classkit/api/internal/domain"
)

type Service interface {
	CreatePost(ctx context.Context, userID int64, role string, req domain.CreatePostRequest) (*domain.Post, error)
	ListPosts(ctx context.Context, userID, courseID int64) ([]domain.Post, error)
	DeletePost(ctx context.Context, userID int64, role string, postID int64) error
	AddComment(ctx context.Context, userID, postID int64, req domain.CreateCommentRequest) (*domain.Comment, error)
	ListComments(ctx context.Context, userID, postID int64) ([]domain.Comment, error)
}

type streamStore interface {
	CreatePost(ctx context.Context, p *domain.Post) (*domain.Post, error)
	GetPost(ctx context.Context, postID int64) (*domain.Post, error)
	DeletePost(ctx context.Context, postID int64) error
	ListPosts(ctx context.Context, courseID int64) ([]domain.Post, error)
	CreateComment(ctx context.Context, c *domain.Comment) (*domain.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]domain.Comment, error)
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
	stream   streamStore
	courses  courseStore
	notifier notifier
	logger   *zap.Logger
}

type ServiceDeps struct {
	Stream   streamStore
	Courses  courseStore
	Notifier notifier
	Logger   *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		stream:   deps.Stream,
		courses:  deps.Courses,
		notifier: deps.Notifier,
		logger:   deps.Logger,
	}
}

// CreatePost publishes to the course stream. Announcements are teacher-only
// and fan out a notification to every other enrolled user; each recipient is
// an independent fan-out, so one failed recipient never blocks the rest.
func (s *service) CreatePost(ctx context.Context, userID int64, role string, req domain.CreatePostRequest) (*domain.Post, error) {
	enrolled, err := s.courses.IsEnrolled(ctx, req.CourseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("not enrolled in course: %w", domain.ErrForbidden)
	}
	if req.Type == domain.PostTypeAnnouncement && role != domain.RoleTeacher {
		return nil, fmt.Errorf("only teachers can post announcements: %w", domain.ErrForbidden)
	}

	p, err := s.stream.CreatePost(ctx, &domain.Post{
		CourseID: req.CourseID,
		UserID:   userID,
		Text:     req.Text,
		Type:     req.Type,
	})
	if err != nil {
		return nil, err
	}

	eventType := domain.EventPostCreated
	if p.Type == domain.PostTypeAnnouncement {
		eventType = domain.EventAnnouncementCreated
		s.fanOutAnnouncement(ctx, p)
	}
	s.notifier.LogEvent(ctx, eventType, userID, p.CourseID, map[string]any{"post_id": p.ID})

	return p, nil
}

func (s *service) fanOutAnnouncement(ctx context.Context, p *domain.Post) {
	course, err := s.courses.Get(ctx, p.CourseID)
	if err != nil {
		s.logger.Warn("announcement fan-out skipped, course lookup failed",
			zap.Int64("course_id", p.CourseID),
			zap.Error(err))
		return
	}
	recipients, err := s.courses.ListEnrolledUserIDs(ctx, p.CourseID)
	if err != nil {
		s.logger.Warn("announcement fan-out skipped, roster lookup failed",
			zap.Int64("course_id", p.CourseID),
			zap.Error(err))
		return
	}

	msg := fmt.Sprintf("New announcement in %s", course.Title)
	for _, uid := range recipients {
		if uid == p.UserID {
			continue
		}
		if _, err := s.notifier.Notify(ctx, notification.NotifyInput{
			UserID:      uid,
			Type:        domain.EventAnnouncementCreated,
			ReferenceID: p.ID,
			Message:     msg,
			Metadata:    map[string]any{"course_id": p.CourseID},
		}); err != nil {
			s.logger.Warn("announcement notification failed for recipient",
				zap.Int64("user_id", uid),
				zap.Int64("post_id", p.ID),
				zap.Error(err))
		}
	}
}

func (s *service) ListPosts(ctx context.Context, userID, courseID int64) ([]domain.Post, error) {
	enrolled, err := s.courses.IsEnrolled(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("not enrolled in course: %w", domain.ErrForbidden)
	}
	return s.stream.ListPosts(ctx, courseID)
}

// DeletePost removes a post. Allowed for the author and for the course
// teacher; comments go with it via the FK cascade.
func (s *service) DeletePost(ctx context.Context, userID int64, role string, postID int64) error {
	p, err := s.stream.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		course, err := s.courses.Get(ctx, p.CourseID)
		if err != nil {
			return err
		}
		if role != domain.RoleTeacher || course.TeacherID == nil || *course.TeacherID != userID {
			return fmt.Errorf("cannot delete another user's post: %w", domain.ErrForbidden)
		}
	}
	if err := s.stream.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.notifier.LogEvent(ctx, domain.EventPostDeleted, userID, p.CourseID, map[string]any{"post_id": postID})
	return nil
}

// AddComment appends to a post's thread and notifies the post author.
func (s *service) AddComment(ctx context.Context, userID, postID int64, req domain.CreateCommentRequest) (*domain.Comment, error) {
	p, err := s.stream.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.courses.IsEnrolled(ctx, p.CourseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("not enrolled in course: %w", domain.ErrForbidden)
	}

	c, err := s.stream.CreateComment(ctx, &domain.Comment{
		PostID: postID,
		UserID: userID,
		Text:   req.Text,
	})
	if err != nil {
		return nil, err
	}

	if p.UserID != userID {
		if _, err := s.notifier.Notify(ctx, notification.NotifyInput{
			UserID:      p.UserID,
			Type:        domain.EventCommentAdded,
			ReferenceID: postID,
			Message:     "New comment on your post",
			Metadata:    map[string]any{"course_id": p.CourseID, "comment_id": c.ID},
		}); err != nil {
			s.logger.Warn("comment notification failed",
				zap.Int64("user_id", p.UserID),
				zap.Int64("post_id", postID),
				zap.Error(err))
		}
	}
	s.notifier.LogEvent(ctx, domain.EventCommentAdded, userID, p.CourseID, map[string]any{
		"post_id":    postID,
		"comment_id": c.ID,
	})

	return c, nil
}

func (s *service) ListComments(ctx context.Context, userID, postID int64) ([]domain.Comment, error) {
	p, err := s.stream.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.courses.IsEnrolled(ctx, p.CourseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, fmt.Errorf("not enrolled in course: %w", domain.ErrForbidden)
	}
	return s.stream.ListComments(ctx, postID)
}
