package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classkit/api/internal/domain"
	pkgtoken "github.com/classkit/api/internal/pkg/token"
)

// Outcome classifies what a confirmation attempt did.
type Outcome string

const (
	// OutcomePromoted means the pending registration became a durable user.
	OutcomePromoted Outcome = "promoted"
	// OutcomeAlreadyExists means the email was registered between submission
	// and confirmation; the pending entry was discarded.
	OutcomeAlreadyExists Outcome = "already_exists"
	// OutcomeInvalid means the token was unknown, expired, or already used.
	OutcomeInvalid Outcome = "invalid"
)

type Service interface {
	Request(ctx context.Context, req domain.CreateUserRequest) error
	Confirm(ctx context.Context, token string) (Outcome, *domain.User, error)
}

type pendingStore interface {
	Save(ctx context.Context, token string, p domain.PendingRegistration) error
	Get(ctx context.Context, token string) (*domain.PendingRegistration, error)
	Delete(ctx context.Context, token string) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	pending    pendingStore
	users      userStore
	mailer     mailer
	logger     *zap.Logger
	pendingTTL time.Duration
	baseURL    string
}

type ServiceDeps struct {
	Pending    pendingStore
	Users      userStore
	Mailer     mailer
	Logger     *zap.Logger
	PendingTTL time.Duration
	BaseURL    string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		pending:    deps.Pending,
		users:      deps.Users,
		mailer:     deps.Mailer,
		logger:     deps.Logger,
		pendingTTL: deps.PendingTTL,
		baseURL:    deps.BaseURL,
	}
}

// Request parks the submission in the cache and emails a confirmation link.
// The user does not exist durably until the link is followed. If the email
// cannot be dispatched the pending entry is removed so the submission fails
// whole, not half.
func (s *service) Request(ctx context.Context, req domain.CreateUserRequest) error {
	_, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		// Durable store unreachable: fail the submission rather than park a
		// pending entry we could not have checked for duplicates.
		return fmt.Errorf("check email availability: %w", err)
	}

	token, err := pkgtoken.New()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p := domain.PendingRegistration{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.pendingTTL),
	}
	if err := s.pending.Save(ctx, token, p); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/auth/confirm/%s", s.baseURL, token)
	body := fmt.Sprintf("Hi %s,\n\nConfirm your registration by opening the link below within %d hours:\n\n%s\n",
		req.Name, int(s.pendingTTL.Hours()), link)
	if err := s.mailer.SendEmail(req.Email, "Confirm your registration", body); err != nil {
		if delErr := s.pending.Delete(ctx, token); delErr != nil {
			s.logger.Warn("failed to roll back pending registration after mail error",
				zap.String("email", req.Email),
				zap.Error(delErr))
		}
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}

// Confirm promotes a pending registration to a durable user. The token is
// single-use: whatever the outcome, the pending entry is gone afterwards.
// The users.email unique constraint is the arbiter when two confirmations
// or a confirmation and a direct registration race.
func (s *service) Confirm(ctx context.Context, token string) (Outcome, *domain.User, error) {
	p, err := s.pending.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return OutcomeInvalid, nil, nil
		}
		return OutcomeInvalid, nil, err
	}

	if p.Expired(time.Now().UTC()) {
		s.discard(ctx, token)
		return OutcomeInvalid, nil, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return OutcomeInvalid, nil, err
	}
	u, err := s.users.Create(ctx, &domain.User{
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: string(hash),
		Role:         p.Role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.discard(ctx, token)
			return OutcomeAlreadyExists, nil, nil
		}
		// Durable store unavailable: keep the pending entry so the user
		// can retry the same link until the TTL runs out.
		return OutcomeInvalid, nil, err
	}

	s.discard(ctx, token)
	return OutcomePromoted, u, nil
}

func (s *service) discard(ctx context.Context, token string) {
	if err := s.pending.Delete(ctx, token); err != nil {
		s.logger.Warn("failed to delete pending registration, TTL will reap it",
			zap.Error(err))
	}
}
