package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/classkit/api/internal/domain"
	"github.com/classkit/api/internal/pkg/id"
)

const historyPageSize = 50

// NotifyInput describes one notification to fan out.
type NotifyInput struct {
	UserID      int64
	Type        string
	ReferenceID int64
	Message     string
	Metadata    map[string]any
}

// Result reports the outcome of a fan-out. Degraded lists the secondary
// stores that failed after the durable row was committed ("cache",
// "history"); an empty list means every store took the write.
type Result struct {
	Notification *domain.Notification
	Degraded     []string
}

type Service interface {
	Notify(ctx context.Context, in NotifyInput) (*Result, error)
	GetUnread(ctx context.Context, userID int64) ([]domain.CachedNotification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	History(ctx context.Context, userID int64) ([]domain.NotificationHistory, error)
	LogEvent(ctx context.Context, eventType string, userID, courseID int64, details map[string]any)
}

type durableStore interface {
	Insert(ctx context.Context, userID int64, typ string, referenceID int64) (*domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

type unreadCache interface {
	Push(ctx context.Context, userID int64, entry domain.CachedNotification) error
	List(ctx context.Context, userID int64) ([]domain.CachedNotification, error)
	Remove(ctx context.Context, userID, notificationID int64) error
	Clear(ctx context.Context, userID int64) error
}

type historyStore interface {
	Append(ctx context.Context, h *domain.NotificationHistory) error
	RecentByUser(ctx context.Context, userID int64, limit int32) ([]domain.NotificationHistory, error)
}

type eventStore interface {
	Append(ctx context.Context, e *domain.Event) error
}

type service struct {
	durable durableStore
	cache   unreadCache
	history historyStore
	events  eventStore
	logger  *zap.Logger
}

type ServiceDeps struct {
	Durable durableStore
	Cache   unreadCache
	History historyStore
	Events  eventStore
	Logger  *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		durable: deps.Durable,
		cache:   deps.Cache,
		history: deps.History,
		events:  deps.Events,
		logger:  deps.Logger,
	}
}

// Notify writes the notification through the three stores in dependency
// order. The durable insert is the commit point: if it fails, nothing else
// is attempted and the caller gets the error. Cache and history writes after
// that point degrade instead of failing, so a flaky secondary store never
// rolls back a committed notification.
func (s *service) Notify(ctx context.Context, in NotifyInput) (*Result, error) {
	n, err := s.durable.Insert(ctx, in.UserID, in.Type, in.ReferenceID)
	if err != nil {
		return nil, err
	}

	res := &Result{Notification: n}
	entry := domain.CachedNotification{
		ID:          n.ID,
		Type:        n.Type,
		ReferenceID: n.ReferenceID,
		Message:     in.Message,
		Timestamp:   n.Timestamp.UTC().Format(time.RFC3339),
		Metadata:    in.Metadata,
	}
	if err := s.cache.Push(ctx, in.UserID, entry); err != nil {
		s.logger.Warn("unread cache push failed, continuing",
			zap.Int64("user_id", in.UserID),
			zap.Int64("notification_id", n.ID),
			zap.Error(err))
		res.Degraded = append(res.Degraded, "cache")
	}

	h := &domain.NotificationHistory{
		UserID:         in.UserID,
		NotificationID: id.New(),
		Type:           n.Type,
		ReferenceID:    n.ReferenceID,
		Message:        in.Message,
		IsRead:         false,
		CreatedAt:      n.Timestamp,
	}
	if err := s.history.Append(ctx, h); err != nil {
		s.logger.Warn("notification history append failed, continuing",
			zap.Int64("user_id", in.UserID),
			zap.Int64("notification_id", n.ID),
			zap.Error(err))
		res.Degraded = append(res.Degraded, "history")
	}

	return res, nil
}

// GetUnread serves the cached unread list verbatim, with no durable-store
// fallback. The projection may lag the durable rows until the next mutating
// operation reconciles it; an unreachable cache degrades to an empty list.
func (s *service) GetUnread(ctx context.Context, userID int64) ([]domain.CachedNotification, error) {
	entries, err := s.cache.List(ctx, userID)
	if err != nil {
		s.logger.Warn("unread cache read failed, serving empty list",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return []domain.CachedNotification{}, nil
	}
	return entries, nil
}

// MarkRead flips the durable row first, then evicts the cache entry.
// Both steps are idempotent; repeating the call is a no-op.
func (s *service) MarkRead(ctx context.Context, userID, notificationID int64) error {
	if err := s.durable.MarkRead(ctx, userID, notificationID); err != nil {
		return err
	}
	if err := s.cache.Remove(ctx, userID, notificationID); err != nil {
		s.logger.Warn("unread cache eviction failed, entry will linger until capped out",
			zap.Int64("user_id", userID),
			zap.Int64("notification_id", notificationID),
			zap.Error(err))
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID int64) error {
	if err := s.durable.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.Clear(ctx, userID); err != nil {
		s.logger.Warn("unread cache clear failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
	return nil
}

// History reads the per-user fan-out history from the event log side,
// newest first. Unlike the unread list this includes read entries.
func (s *service) History(ctx context.Context, userID int64) ([]domain.NotificationHistory, error) {
	return s.history.RecentByUser(ctx, userID, historyPageSize)
}

// LogEvent appends to the event log. Audit loss is tolerated: failures are
// logged and swallowed so the triggering operation still succeeds.
func (s *service) LogEvent(ctx context.Context, eventType string, userID, courseID int64, details map[string]any) {
	e := &domain.Event{
		EventID:   id.New(),
		EventType: eventType,
		UserID:    userID,
		CourseID:  courseID,
		Details:   details,
		EventTime: time.Now().UTC(),
	}
	if err := s.events.Append(ctx, e); err != nil {
		s.logger.Warn("event log append failed, event dropped",
			zap.String("event_type", eventType),
			zap.Int64("course_id", courseID),
			zap.Error(err))
	}
}
