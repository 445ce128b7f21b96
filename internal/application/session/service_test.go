package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/classkit/api/internal/domain"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Save(ctx context.Context, token string, userID int64) error {
	return m.Called(ctx, token, userID).Error(0)
}
func (m *mockSessionStore) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID int64, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func hashedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{ID: 1, Email: "alice@example.com", PasswordHash: string(hash), Role: domain.RoleTeacher}
}

func TestLogin_Success(t *testing.T) {
	us, ss, js := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(hashedUser(t, "password123"), nil)
	js.On("Sign", int64(1), domain.RoleTeacher).Return("signed-token", nil)
	ss.On("Save", mock.Anything, "signed-token", int64(1)).Return(nil)

	svc := NewService(ServiceDeps{Users: us, Sessions: ss, JWT: js})
	token, u, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "password123"})

	require.NoError(t, err)
	assert.Equal(t, "signed-token", token)
	assert.Equal(t, int64(1), u.ID)
	ss.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(hashedUser(t, "password123"), nil)

	svc := NewService(ServiceDeps{Users: us, Sessions: &mockSessionStore{}, JWT: &mockJWTSigner{}})
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "nope"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	svc := NewService(ServiceDeps{Users: us, Sessions: &mockSessionStore{}, JWT: &mockJWTSigner{}})
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "password123"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_SessionSaveFails(t *testing.T) {
	us, ss, js := &mockUserStore{}, &mockSessionStore{}, &mockJWTSigner{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(hashedUser(t, "password123"), nil)
	js.On("Sign", int64(1), domain.RoleTeacher).Return("signed-token", nil)
	ss.On("Save", mock.Anything, "signed-token", int64(1)).Return(errors.New("redis down"))

	svc := NewService(ServiceDeps{Users: us, Sessions: ss, JWT: js})
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "password123"})

	require.Error(t, err)
}

func TestLogout(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Delete", mock.Anything, "signed-token").Return(nil)

	svc := NewService(ServiceDeps{Users: &mockUserStore{}, Sessions: ss, JWT: &mockJWTSigner{}})
	require.NoError(t, svc.Logout(context.Background(), "signed-token"))
	ss.AssertExpectations(t)
}
