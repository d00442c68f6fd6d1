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

// Deps groups the collaborators shared by AuthService and TeamService.
// Limiter and Audit are optional.
type Deps struct {
	Accounts        ports.AccountRepository
	Hasher          ports.PasswordHasher
	Tokens          ports.TokenIssuer
	Limiter         ports.LoginLimiter
	Audit           ports.AuditRecorder
	DefaultPassword string
	Log             zerolog.Logger
}

type nopAudit struct{}

func (nopAudit) Record(domain.AccountEvent) {}

func (d Deps) withDefaults() Deps {
	if d.Audit == nil {
		d.Audit = nopAudit{}
	}
	return d
}

// accountCreator is the single creation path behind registration and team creation.
type accountCreator struct {
	repo            ports.AccountRepository
	hasher          ports.PasswordHasher
	audit           ports.AuditRecorder
	defaultPassword string
	log             zerolog.Logger
	now             func() time.Time
}

func (c *accountCreator) create(ctx context.Context, in ports.CreateAccountInput, actor *domain.Account) (*ports.CreateAccountResult, error) {
	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Msg: "is required"}
	}
	if email == "" {
		return nil, &domain.ValidationError{Field: "email", Msg: "is required"}
	}

	requested := domain.Role("")
	if in.Role != "" {
		r, ok := domain.ParseRole(string(in.Role))
		if !ok {
			return nil, &domain.ValidationError{Field: "role", Msg: "must be one of: admin manager employee viewer"}
		}
		requested = r
	}

	password := in.Password
	usedDefault := false
	if password == "" {
		password = c.defaultPassword
		usedDefault = true
	}
	if len(password) < domain.MinPasswordLength {
		return nil, &domain.ValidationError{
			Field: "password",
			Msg:   fmt.Sprintf("must be at least %d characters", domain.MinPasswordLength),
		}
	}

	if _, err := c.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("create account: lookup email: %w", err)
	}

	count, err := c.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("create account: count: %w", err)
	}

	role := domain.GuardRoleAssignment(requested, actor, count == 0)
	if requested != "" && role != requested {
		c.log.Warn().
			Str("email", email).
			Str("requested_role", string(requested)).
			Str("effective_role", string(role)).
			Msg("role assignment adjusted")
	}

	hash, err := c.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("create account: hash: %w", err)
	}

	now := c.now().UTC()
	account := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Phone:        strings.TrimSpace(in.Phone),
		Department:   strings.TrimSpace(in.Department),
		Position:     strings.TrimSpace(in.Position),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	account.SetRole(role)

	created, err := c.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	created.PasswordHash = ""

	c.audit.Record(domain.AccountEvent{
		AccountID:  created.ID,
		ActorID:    actorID(actor),
		Kind:       domain.EventAccountCreated,
		Detail:     "role=" + string(created.Role),
		OccurredAt: now,
	})
	c.log.Info().Str("account_id", created.ID).Str("role", string(created.Role)).Msg("account created")

	return &ports.CreateAccountResult{Account: created, DefaultPassword: usedDefault}, nil
}

func actorID(actor *domain.Account) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}

// ensureEmailFree rejects email when another account already owns it.
func ensureEmailFree(ctx context.Context, repo ports.AccountRepository, email, ownerID string) error {
	existing, err := repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("lookup email: %w", err)
	case existing.ID != ownerID:
		return domain.ErrEmailTaken
	}
	return nil
}
