package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gems-crm/backend/internal/core/domain"
	"github.com/gems-crm/backend/internal/core/ports"
)

// AuthService implements registration, login, session resolution and the
// self-service profile operations.
type AuthService struct {
	repo    ports.AccountRepository
	hasher  ports.PasswordHasher
	tokens  ports.TokenIssuer
	limiter ports.LoginLimiter
	audit   ports.AuditRecorder
	creator *accountCreator
	log     zerolog.Logger
	now     func() time.Time
}

func NewAuthService(deps Deps) *AuthService {
	deps = deps.withDefaults()
	return &AuthService{
		repo:    deps.Accounts,
		hasher:  deps.Hasher,
		tokens:  deps.Tokens,
		limiter: deps.Limiter,
		audit:   deps.Audit,
		creator: &accountCreator{
			repo:            deps.Accounts,
			hasher:          deps.Hasher,
			audit:           deps.Audit,
			defaultPassword: deps.DefaultPassword,
			log:             deps.Log,
			now:             time.Now,
		},
		log: deps.Log,
		now: time.Now,
	}
}

// Register creates an account and signs it in. actor is nil for anonymous
// self-registration.
func (s *AuthService) Register(ctx context.Context, in ports.CreateAccountInput, actor *domain.Account) (*ports.CreateAccountResult, *ports.Session, error) {
	res, err := s.creator.create(ctx, in, actor)
	if err != nil {
		return nil, nil, err
	}

	token, exp, err := s.tokens.Issue(res.Account.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("register: issue token: %w", err)
	}
	return res, &ports.Session{Token: token, ExpiresAt: exp, Account: res.Account}, nil
}

// Login verifies email and password. Unknown email, inactive account and
// wrong password all return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, &domain.ValidationError{Msg: "email and password are required"}
	}

	if s.limiter != nil {
		ok, err := s.limiter.Attempt(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login limiter check failed, continuing")
		} else if !ok {
			return nil, domain.ErrTooManyAttempts
		}
	}

	account, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return nil, s.loginFailed(email, "unknown email")
	case err != nil:
		return nil, fmt.Errorf("login: %w", err)
	}

	if !account.Active {
		return nil, s.loginFailed(email, "account disabled")
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, s.loginFailed(email, "password mismatch")
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to reset login attempts")
		}
	}

	now := s.now().UTC()
	account.LastLogin = &now
	account.PasswordHash = ""
	if err := s.repo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("login: touch last login: %w", err)
	}

	token, exp, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	s.audit.Record(domain.AccountEvent{
		AccountID:  account.ID,
		ActorID:    account.ID,
		Kind:       domain.EventLogin,
		OccurredAt: now,
	})
	return &ports.Session{Token: token, ExpiresAt: exp, Account: account}, nil
}

// loginFailed leaves the attempt counted so the limiter keeps throttling.
func (s *AuthService) loginFailed(email, cause string) error {
	s.log.Info().Str("email", email).Str("cause", cause).Msg("login rejected")
	return domain.ErrInvalidCredentials
}

// Authenticate resolves a bearer token to an active account.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, &domain.AuthenticationError{Reason: domain.ReasonMissingToken}
	}

	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, &domain.AuthenticationError{Reason: domain.ReasonInvalidToken, Cause: err}
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, &domain.AuthenticationError{Reason: domain.ReasonAccountNotFound, Cause: err}
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !account.Active {
		return nil, &domain.AuthenticationError{Reason: domain.ReasonAccountDisabled}
	}
	return account, nil
}

// UpdateProfile changes the caller's own contact details. Role and active
// flag are not reachable from here.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *domain.Account, in ports.ProfileInput) (*domain.Account, error) {
	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, &domain.ValidationError{Msg: "name and email are required"}
	}

	account, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if email != account.Email {
		if err := ensureEmailFree(ctx, s.repo, email, account.ID); err != nil {
			return nil, err
		}
	}

	account.Name = name
	account.Email = email
	account.Phone = strings.TrimSpace(in.Phone)
	account.Department = strings.TrimSpace(in.Department)
	account.Position = strings.TrimSpace(in.Position)
	account.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, err
	}
	s.audit.Record(domain.AccountEvent{
		AccountID:  account.ID,
		ActorID:    account.ID,
		Kind:       domain.EventProfileUpdated,
		OccurredAt: account.UpdatedAt,
	})
	return account, nil
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Account, current, next string) error {
	if current == "" || next == "" {
		return &domain.ValidationError{Msg: "current and new password are required"}
	}
	if len(next) < domain.MinPasswordLength {
		return &domain.ValidationError{
			Field: "new_password",
			Msg:   fmt.Sprintf("must be at least %d characters", domain.MinPasswordLength),
		}
	}

	hash, err := s.repo.FindPasswordHash(ctx, actor.ID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, hash) {
		return domain.ErrWrongPassword
	}

	newHash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, actor.ID, newHash); err != nil {
		return err
	}

	s.audit.Record(domain.AccountEvent{
		AccountID:  actor.ID,
		ActorID:    actor.ID,
		Kind:       domain.EventPasswordChanged,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// Logout only records the event; sessions are stateless.
func (s *AuthService) Logout(_ context.Context, actor *domain.Account) {
	s.audit.Record(domain.AccountEvent{
		AccountID:  actor.ID,
		ActorID:    actor.ID,
		Kind:       domain.EventLogout,
		OccurredAt: s.now().UTC(),
	})
}
