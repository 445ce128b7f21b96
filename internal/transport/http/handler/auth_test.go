package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/classkit/api/internal/application/registration"
	"github.com/classkit/api/internal/domain"
)

// --- mock ---

type mockRegSvc struct{ mock.Mock }

func (m *mockRegSvc) Request(ctx context.Context, req domain.CreateUserRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockRegSvc) Confirm(ctx context.Context, token string) (registration.Outcome, *domain.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(1).(*domain.User)
	return args.Get(0).(registration.Outcome), u, args.Error(2)
}

// --- helpers ---

func newAuthRouter(svc registration.Service) http.Handler {
	h := NewAuthHandler(svc)
	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Get("/auth/confirm/{token}", h.Confirm)
	return r
}

func registerBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(domain.CreateUserRequest{
		Name:     "Alice Smith",
		Email:    "alice@example.com",
		Password: "password123",
		Role:     domain.RoleStudent,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// --- Register tests ---

func TestRegister_Accepted(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Request", mock.Anything, mock.MatchedBy(func(req domain.CreateUserRequest) bool {
		return req.Email == "alice@example.com"
	})).Return(nil)

	rr := httptest.NewRecorder()
	newAuthRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/register", registerBody(t)))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	svc.AssertExpectations(t)
}

func TestRegister_InvalidBody(t *testing.T) {
	svc := &mockRegSvc{}

	rr := httptest.NewRecorder()
	newAuthRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{")))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Request", mock.Anything, mock.Anything)
}

func TestRegister_ValidationFailure(t *testing.T) {
	svc := &mockRegSvc{}
	body, err := json.Marshal(domain.CreateUserRequest{
		Name:     "Alice Smith",
		Email:    "not-an-email",
		Password: "short",
		Role:     "principal",
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	newAuthRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBuffer(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Request", mock.Anything, mock.Anything)
}

func TestRegister_EmailTaken(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Request", mock.Anything, mock.Anything).
		Return(fmt.Errorf("email already registered: %w", domain.ErrConflict))

	rr := httptest.NewRecorder()
	newAuthRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/register", registerBody(t)))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

// --- Confirm tests ---

func TestConfirm_Promoted(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Confirm", mock.Anything, "tok").
		Return(registration.OutcomePromoted, &domain.User{ID: 1, Email: "alice@example.com"}, nil)

	rr := httptest.NewRecorder()
	newAuthRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/confirm/tok", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	var u domain.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &u))
	assert.Equal(t, int64(1), u.ID)
}

func TestConfirm_AlreadyExists(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Confirm", mock.Anything, "tok").Return(registration.OutcomeAlreadyExists, nil, nil)

	rr := httptest.NewRecorder()
	newAuthRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/confirm/tok", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestConfirm_Invalid(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Confirm", mock.Anything, "tok").Return(registration.OutcomeInvalid, nil, nil)

	rr := httptest.NewRecorder()
	newAuthRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/confirm/tok", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
