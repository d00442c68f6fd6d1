package ports

import (
	"context"
	"time"

	"github.com/gems-crm/backend/internal/core/domain"
)

// CreateAccountInput carries registration and team-creation data. An empty
// Password falls back to the configured default.
type CreateAccountInput struct {
	Name       string
	Email      string
	Password   string
	Role       domain.Role
	Department string
	Position   string
	Phone      string
}

// CreateAccountResult is returned after an account is persisted.
type CreateAccountResult struct {
	Account         *domain.Account
	DefaultPassword bool
}

// ProfileInput holds the fields an account may change about itself.
type ProfileInput struct {
	Name       string
	Email      string
	Phone      string
	Department string
	Position   string
}

// Session is an issued credential.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

// AuthService covers self-service identity operations.
type AuthService interface {
	Register(ctx context.Context, in CreateAccountInput, actor *domain.Account) (*CreateAccountResult, *Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, actor *domain.Account, in ProfileInput) (*domain.Account, error)
	ChangePassword(ctx context.Context, actor *domain.Account, current, next string) error
	Logout(ctx context.Context, actor *domain.Account)
}
