package ports

import (
	"context"

	"github.com/gems-crm/backend/internal/core/domain"
)

// UpdateMemberInput carries an administrative edit. Nil fields are left unchanged.
type UpdateMemberInput struct {
	Name        *string
	Email       *string
	Role        *domain.Role
	Department  *string
	Position    *string
	Phone       *string
	Permissions *domain.PermissionSet
}

// TeamService covers administrative account management.
type TeamService interface {
	List(ctx context.Context) ([]*domain.Account, error)
	Create(ctx context.Context, actor *domain.Account, in CreateAccountInput) (*CreateAccountResult, error)
	Update(ctx context.Context, actor *domain.Account, targetID string, in UpdateMemberInput) (*domain.Account, error)
	Deactivate(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error)
	Reactivate(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error)
	ResetPermissions(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error)
}

// AuditRecorder accepts audit events without blocking the caller.
type AuditRecorder interface {
	Record(event domain.AccountEvent)
}

// LoginLimiter throttles repeated logins per email. Attempt counts the
// attempt atomically before credentials are checked and reports whether it
// is within the limit; Reset clears the count after a successful login.
type LoginLimiter interface {
	Attempt(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
}
