package session

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/classkit/api/internal/domain"
)

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (string, *domain.User, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, userID int64) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type sessionStore interface {
	Save(ctx context.Context, token string, userID int64) error
	Delete(ctx context.Context, token string) error
}

type jwtSigner interface {
	Sign(userID int64, role string) (string, error)
}

type service struct {
	users    userStore
	sessions sessionStore
	jwt      jwtSigner
}

type ServiceDeps struct {
	Users    userStore
	Sessions sessionStore
	JWT      jwtSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{users: deps.Users, sessions: deps.Sessions, jwt: deps.JWT}
}

// Login verifies the credentials and opens a session. The signed token is
// also the cache key, so logout can revoke it before the JWT expires.
func (s *service) Login(ctx context.Context, req LoginRequest) (string, *domain.User, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return "", nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}

	token, err := s.jwt.Sign(u.ID, u.Role)
	if err != nil {
		return "", nil, err
	}
	if err := s.sessions.Save(ctx, token, u.ID); err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *service) CurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}
