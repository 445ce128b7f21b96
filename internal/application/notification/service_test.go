package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classkit/api/internal/domain"
)

// --- mocks ---

type mockDurable struct{ mock.Mock }

func (m *mockDurable) Insert(ctx context.Context, userID int64, typ string, referenceID int64) (*domain.Notification, error) {
	args := m.Called(ctx, userID, typ, referenceID)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDurable) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}
func (m *mockDurable) MarkAllRead(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}
type mockCache struct{ mock.Mock }

func (m *mockCache) Push(ctx context.Context, userID int64, entry domain.CachedNotification) error {
	return m.Called(ctx, userID, entry).Error(0)
}
func (m *mockCache) List(ctx context.Context, userID int64) ([]domain.CachedNotification, error) {
	args := m.Called(ctx, userID)
	es, _ := args.Get(0).([]domain.CachedNotification)
	return es, args.Error(1)
}
func (m *mockCache) Remove(ctx context.Context, userID, notificationID int64) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}
func (m *mockCache) Clear(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockHistory struct{ mock.Mock }

func (m *mockHistory) Append(ctx context.Context, h *domain.NotificationHistory) error {
	return m.Called(ctx, h).Error(0)
}

func (m *mockHistory) RecentByUser(ctx context.Context, userID int64, limit int32) ([]domain.NotificationHistory, error) {
	args := m.Called(ctx, userID, limit)
	hs, _ := args.Get(0).([]domain.NotificationHistory)
	return hs, args.Error(1)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) Append(ctx context.Context, e *domain.Event) error {
	return m.Called(ctx, e).Error(0)
}

// --- helpers ---

func newService(d *mockDurable, c *mockCache, h *mockHistory, e *mockEvents) Service {
	return NewService(ServiceDeps{
		Durable: d,
		Cache:   c,
		History: h,
		Events:  e,
		Logger:  zap.NewNop(),
	})
}

func baseInput() NotifyInput {
	return NotifyInput{
		UserID:      7,
		Type:        "new_announcement",
		ReferenceID: 42,
		Message:     "New announcement in Algebra I",
		Metadata:    map[string]any{"course_id": int64(3)},
	}
}

func insertedRow() *domain.Notification {
	return &domain.Notification{ID: 100, UserID: 7, Type: "new_announcement", ReferenceID: 42}
}

// --- Notify tests ---

func TestNotify_AllStoresHealthy(t *testing.T) {
	d, c, h := &mockDurable{}, &mockCache{}, &mockHistory{}
	d.On("Insert", mock.Anything, int64(7), "new_announcement", int64(42)).Return(insertedRow(), nil)
	c.On("Push", mock.Anything, int64(7), mock.Anything).Return(nil)
	h.On("Append", mock.Anything, mock.Anything).Return(nil)

	svc := newService(d, c, h, &mockEvents{})
	res, err := svc.Notify(context.Background(), baseInput())

	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Notification.ID)
	assert.Empty(t, res.Degraded)
	d.AssertExpectations(t)
	c.AssertExpectations(t)
	h.AssertExpectations(t)
}

func TestNotify_DurableInsertFails_Aborts(t *testing.T) {
	d, c, h := &mockDurable{}, &mockCache{}, &mockHistory{}
	d.On("Insert", mock.Anything, int64(7), "new_announcement", int64(42)).
		Return(nil, errors.New("connection refused"))

	svc := newService(d, c, h, &mockEvents{})
	res, err := svc.Notify(context.Background(), baseInput())

	require.Error(t, err)
	assert.Nil(t, res)
	c.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
	h.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestNotify_CachePushFails_Degrades(t *testing.T) {
	d, c, h := &mockDurable{}, &mockCache{}, &mockHistory{}
	d.On("Insert", mock.Anything, int64(7), "new_announcement", int64(42)).Return(insertedRow(), nil)
	c.On("Push", mock.Anything, int64(7), mock.Anything).Return(errors.New("redis down"))
	h.On("Append", mock.Anything, mock.Anything).Return(nil)

	svc := newService(d, c, h, &mockEvents{})
	res, err := svc.Notify(context.Background(), baseInput())

	require.NoError(t, err)
	assert.Equal(t, []string{"cache"}, res.Degraded)
	h.AssertExpectations(t)
}

func TestNotify_HistoryAppendFails_Degrades(t *testing.T) {
	d, c, h := &mockDurable{}, &mockCache{}, &mockHistory{}
	d.On("Insert", mock.Anything, int64(7), "new_announcement", int64(42)).Return(insertedRow(), nil)
	c.On("Push", mock.Anything, int64(7), mock.Anything).Return(nil)
	h.On("Append", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	svc := newService(d, c, h, &mockEvents{})
	res, err := svc.Notify(context.Background(), baseInput())

	require.NoError(t, err)
	assert.Equal(t, []string{"history"}, res.Degraded)
}

func TestNotify_BothSecondariesFail_StillSucceeds(t *testing.T) {
	d, c, h := &mockDurable{}, &mockCache{}, &mockHistory{}
	d.On("Insert", mock.Anything, int64(7), "new_announcement", int64(42)).Return(insertedRow(), nil)
	c.On("Push", mock.Anything, int64(7), mock.Anything).Return(errors.New("redis down"))
	h.On("Append", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	svc := newService(d, c, h, &mockEvents{})
	res, err := svc.Notify(context.Background(), baseInput())

	require.NoError(t, err)
	assert.Equal(t, []string{"cache", "history"}, res.Degraded)
}

// --- GetUnread tests ---

func TestGetUnread_ServesCacheVerbatim(t *testing.T) {
	c := &mockCache{}
	cached := []domain.CachedNotification{{ID: 1, Message: "hi"}}
	c.On("List", mock.Anything, int64(7)).Return(cached, nil)

	svc := newService(&mockDurable{}, c, &mockHistory{}, &mockEvents{})
	got, err := svc.GetUnread(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, cached, got)
}

func TestGetUnread_CacheDown_ServesEmpty(t *testing.T) {
	c := &mockCache{}
	c.On("List", mock.Anything, int64(7)).Return(nil, errors.New("redis down"))

	svc := newService(&mockDurable{}, c, &mockHistory{}, &mockEvents{})
	got, err := svc.GetUnread(context.Background(), 7)

	require.NoError(t, err)
	assert.Empty(t, got)
}

// The unread badge never re-reads durable rows; an empty projection stays
// empty until the next fan-out repopulates it.
func TestGetUnread_EmptyCache_NoDurableRead(t *testing.T) {
	d, c := &mockDurable{}, &mockCache{}
	c.On("List", mock.Anything, int64(7)).Return([]domain.CachedNotification{}, nil)

	svc := newService(d, c, &mockHistory{}, &mockEvents{})
	got, err := svc.GetUnread(context.Background(), 7)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, d.Calls)
}

// --- MarkRead tests ---

func TestMarkRead_DurableFirstThenCache(t *testing.T) {
	d, c := &mockDurable{}, &mockCache{}
	d.On("MarkRead", mock.Anything, int64(7), int64(100)).Return(nil)
	c.On("Remove", mock.Anything, int64(7), int64(100)).Return(nil)

	svc := newService(d, c, &mockHistory{}, &mockEvents{})
	require.NoError(t, svc.MarkRead(context.Background(), 7, 100))
	d.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestMarkRead_DurableFails_CacheUntouched(t *testing.T) {
	d, c := &mockDurable{}, &mockCache{}
	d.On("MarkRead", mock.Anything, int64(7), int64(100)).Return(errors.New("connection refused"))

	svc := newService(d, c, &mockHistory{}, &mockEvents{})
	require.Error(t, svc.MarkRead(context.Background(), 7, 100))
	c.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkRead_CacheEvictionFails_StillSucceeds(t *testing.T) {
	d, c := &mockDurable{}, &mockCache{}
	d.On("MarkRead", mock.Anything, int64(7), int64(100)).Return(nil)
	c.On("Remove", mock.Anything, int64(7), int64(100)).Return(errors.New("redis down"))

	svc := newService(d, c, &mockHistory{}, &mockEvents{})
	require.NoError(t, svc.MarkRead(context.Background(), 7, 100))
}

func TestMarkAllRead(t *testing.T) {
	d, c := &mockDurable{}, &mockCache{}
	d.On("MarkAllRead", mock.Anything, int64(7)).Return(nil)
	c.On("Clear", mock.Anything, int64(7)).Return(nil)

	svc := newService(d, c, &mockHistory{}, &mockEvents{})
	require.NoError(t, svc.MarkAllRead(context.Background(), 7))
	d.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestHistory_ReadsFromEventLogSide(t *testing.T) {
	h := &mockHistory{}
	h.On("RecentByUser", mock.Anything, int64(7), int32(50)).
		Return([]domain.NotificationHistory{{UserID: 7, Type: domain.EventGradeGiven, IsRead: true}}, nil)

	svc := newService(&mockDurable{}, &mockCache{}, h, &mockEvents{})
	entries, err := svc.History(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsRead)
	h.AssertExpectations(t)
}

// --- LogEvent tests ---

func TestLogEvent_AppendFailureSwallowed(t *testing.T) {
	e := &mockEvents{}
	e.On("Append", mock.Anything, mock.Anything).Return(errors.New("table missing"))

	svc := newService(&mockDurable{}, &mockCache{}, &mockHistory{}, e)
	svc.LogEvent(context.Background(), domain.EventPostCreated, 7, 3, map[string]any{"post_id": int64(1)})
	e.AssertExpectations(t)
}

func TestLogEvent_PopulatesEvent(t *testing.T) {
	e := &mockEvents{}
	e.On("Append", mock.Anything, mock.MatchedBy(func(ev *domain.Event) bool {
		return ev.EventType == domain.EventGradeGiven &&
			ev.CourseID == 3 && ev.UserID == 7 &&
			ev.EventID != "" && !ev.EventTime.IsZero()
	})).Return(nil)

	svc := newService(&mockDurable{}, &mockCache{}, &mockHistory{}, e)
	svc.LogEvent(context.Background(), domain.EventGradeGiven, 7, 3, nil)
	e.AssertExpectations(t)
}
