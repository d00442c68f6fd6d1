package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gems-crm/backend/internal/core/domain"
	"github.com/gems-crm/backend/internal/core/ports"
)

// TeamService implements administrative account management. Capability
// checks (team:view, team:edit...) happen in the Authorization Gate before
// these methods run; the service enforces the self-protection rule.
type TeamService struct {
	repo    ports.AccountRepository
	audit   ports.AuditRecorder
	creator *accountCreator
	log     zerolog.Logger
	now     func() time.Time
}

func NewTeamService(deps Deps) *TeamService {
	deps = deps.withDefaults()
	return &TeamService{
		repo:  deps.Accounts,
		audit: deps.Audit,
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

func (s *TeamService) List(ctx context.Context) ([]*domain.Account, error) {
	return s.repo.ListActive(ctx)
}

func (s *TeamService) Create(ctx context.Context, actor *domain.Account, in ports.CreateAccountInput) (*ports.CreateAccountResult, error) {
	return s.creator.create(ctx, in, actor)
}

// Update applies an administrative edit to another account. A role change
// recomputes the permission set; explicit overrides are admin-only and are
// clamped to the target role's canonical set.
func (s *TeamService) Update(ctx context.Context, actor *domain.Account, targetID string, in ports.UpdateMemberInput) (*domain.Account, error) {
	if err := domain.AssertNotSelf(actor.ID, targetID); err != nil {
		return nil, err
	}
	if in.Permissions != nil && !actor.Role.IsAdmin() {
		return nil, &domain.AuthorizationError{Module: domain.ModuleTeam, Action: domain.ActionEdit}
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, &domain.ValidationError{Field: "name", Msg: "cannot be empty"}
		}
		target.Name = name
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, &domain.ValidationError{Field: "email", Msg: "cannot be empty"}
		}
		if email != target.Email {
			if err := ensureEmailFree(ctx, s.repo, email, target.ID); err != nil {
				return nil, err
			}
		}
		target.Email = email
	}
	if in.Phone != nil {
		target.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Department != nil {
		target.Department = strings.TrimSpace(*in.Department)
	}
	if in.Position != nil {
		target.Position = strings.TrimSpace(*in.Position)
	}

	kind := domain.EventAccountUpdated
	detail := ""
	if in.Role != nil {
		requested, ok := domain.ParseRole(string(*in.Role))
		if !ok {
			return nil, &domain.ValidationError{Field: "role", Msg: "must be one of: admin manager employee viewer"}
		}
		effective := domain.GuardRoleAssignment(requested, actor, false)
		if effective != requested {
			s.log.Warn().
				Str("account_id", target.ID).
				Str("actor_id", actor.ID).
				Str("requested_role", string(requested)).
				Str("effective_role", string(effective)).
				Msg("role assignment adjusted")
		}
		if effective != target.Role {
			detail = fmt.Sprintf("role %s -> %s", target.Role, effective)
			kind = domain.EventRoleChanged
			target.SetRole(effective)
		}
	}
	if in.Permissions != nil {
		target.Permissions = in.Permissions.Clamp(target.Role)
	}

	target.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, target); err != nil {
		return nil, err
	}

	s.record(actor, target.ID, kind, detail, target.UpdatedAt)
	return target, nil
}

// Deactivate soft-deletes an account. History keeps referencing its ID.
func (s *TeamService) Deactivate(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	if err := domain.AssertNotSelf(actor.ID, targetID); err != nil {
		return nil, err
	}
	return s.setActive(ctx, actor, targetID, false)
}

func (s *TeamService) Reactivate(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	return s.setActive(ctx, actor, targetID, true)
}

func (s *TeamService) setActive(ctx context.Context, actor *domain.Account, targetID string, active bool) (*domain.Account, error) {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	target.Active = active
	target.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, target); err != nil {
		return nil, err
	}

	kind := domain.EventAccountDeactivated
	if active {
		kind = domain.EventAccountReactivated
	}
	s.record(actor, target.ID, kind, "", target.UpdatedAt)
	return target, nil
}

// ResetPermissions discards any override and restores the canonical set for
// the target's role.
func (s *TeamService) ResetPermissions(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	if err := domain.AssertNotSelf(actor.ID, targetID); err != nil {
		return nil, err
	}
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	target.SetRole(target.Role)
	target.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, target); err != nil {
		return nil, err
	}
	s.record(actor, target.ID, domain.EventPermissionsReset, "", target.UpdatedAt)
	return target, nil
}

// RepairPermissions rewrites every stored set that differs from its role's
// canonical set and returns how many accounts changed.
func (s *TeamService) RepairPermissions(ctx context.Context) (int, error) {
	accounts, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("repair permissions: %w", err)
	}

	changed := 0
	for _, a := range accounts {
		want := domain.PermissionsFor(a.Role)
		if a.Permissions == want {
			continue
		}
		a.Permissions = want
		a.UpdatedAt = s.now().UTC()
		if err := s.repo.Update(ctx, a); err != nil {
			return changed, fmt.Errorf("repair permissions for %s: %w", a.ID, err)
		}
		s.log.Info().Str("account_id", a.ID).Str("role", string(a.Role)).Msg("permissions repaired")
		s.record(nil, a.ID, domain.EventPermissionsReset, "bulk repair", a.UpdatedAt)
		changed++
	}
	return changed, nil
}

func (s *TeamService) record(actor *domain.Account, targetID string, kind domain.AccountEventKind, detail string, at time.Time) {
	s.audit.Record(domain.AccountEvent{
		AccountID:  targetID,
		ActorID:    actorID(actor),
		Kind:       kind,
		Detail:     detail,
		OccurredAt: at,
	})
}
