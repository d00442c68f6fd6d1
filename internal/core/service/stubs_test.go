package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/gems-crm/backend/internal/core/domain"
	"github.com/gems-crm/backend/internal/infrastructure/security"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	byID      map[string]*domain.Account
	seq       int
	updateErr error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	c := cloneAccount(a)
	c.PasswordHash = ""
	return c, nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range r.byID {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindPasswordHash(_ context.Context, id string) (string, error) {
	a, ok := r.byID[id]
	if !ok {
		return "", domain.ErrAccountNotFound
	}
	return a.PasswordHash, nil
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	c := cloneAccount(a)
	c.ID = fmt.Sprintf("acc-%d", r.seq)
	r.byID[c.ID] = cloneAccount(c)
	return c, nil
}

func (r *stubAccountRepo) Update(_ context.Context, a *domain.Account) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	existing, ok := r.byID[a.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	c := cloneAccount(a)
	c.PasswordHash = existing.PasswordHash
	r.byID[a.ID] = c
	return nil
}

func (r *stubAccountRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (r *stubAccountRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byID)), nil
}

func (r *stubAccountRepo) ListActive(ctx context.Context) ([]*domain.Account, error) {
	all, _ := r.ListAll(ctx)
	out := all[:0]
	for _, a := range all {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAccountRepo) ListAll(_ context.Context) ([]*domain.Account, error) {
	out := make([]*domain.Account, 0, len(r.byID))
	for _, a := range r.byID {
		c := cloneAccount(a)
		c.PasswordHash = ""
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubAudit struct {
	mu     sync.Mutex
	events []domain.AccountEvent
}

func (a *stubAudit) Record(e domain.AccountEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *stubAudit) kinds() []domain.AccountEventKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AccountEventKind, len(a.events))
	for i, e := range a.events {
		out[i] = e.Kind
	}
	return out
}

type stubLimiter struct {
	blocked  bool
	max      int
	attempts map[string]int
	resets   int
}

func (l *stubLimiter) Attempt(_ context.Context, email string) (bool, error) {
	if l.attempts == nil {
		l.attempts = map[string]int{}
	}
	l.attempts[email]++
	if l.max > 0 && l.attempts[email] > l.max {
		return false, nil
	}
	return !l.blocked, nil
}

func (l *stubLimiter) Reset(_ context.Context, email string) error {
	delete(l.attempts, email)
	l.resets++
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	repo    *stubAccountRepo
	audit   *stubAudit
	limiter *stubLimiter
	tokens  *security.TokenIssuer
	auth    *AuthService
	team    *TeamService
}

func newFixture() *fixture {
	f := &fixture{
		repo:    newStubAccountRepo(),
		audit:   &stubAudit{},
		limiter: &stubLimiter{},
		tokens:  security.NewTokenIssuer("test-secret", time.Hour),
	}
	deps := Deps{
		Accounts:        f.repo,
		Hasher:          security.NewPasswordHasher(bcrypt.MinCost),
		Tokens:          f.tokens,
		Limiter:         f.limiter,
		Audit:           f.audit,
		DefaultPassword: "gems12-",
		Log:             zerolog.Nop(),
	}
	f.auth = NewAuthService(deps)
	f.team = NewTeamService(deps)
	return f
}
