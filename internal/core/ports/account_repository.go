package ports

import (
	"context"

	"github.com/gems-crm/backend/internal/core/domain"
)

// AccountRepository persists accounts. Every read except FindByEmail and
// FindPasswordHash leaves PasswordHash empty.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// FindByEmail includes the password hash; it backs login only.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindPasswordHash(ctx context.Context, id string) (string, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// Update overwrites the mutable, non-secret fields of account.
	Update(ctx context.Context, account *domain.Account) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Count(ctx context.Context) (int64, error)
	ListActive(ctx context.Context) ([]*domain.Account, error)
	ListAll(ctx context.Context) ([]*domain.Account, error)
}

// AuditRepository stores the account audit trail.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AccountEvent) error
}
