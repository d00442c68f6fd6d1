package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gems-crm/backend/internal/core/domain"
	"github.com/gems-crm/backend/internal/core/ports"
	"github.com/gems-crm/backend/internal/infrastructure/security"
)

func register(t *testing.T, f *fixture, name, email, password string, role domain.Role, actor *domain.Account) *domain.Account {
	t.Helper()
	res, _, err := f.auth.Register(context.Background(), ports.CreateAccountInput{
		Name: name, Email: email, Password: password, Role: role,
	}, actor)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res.Account
}

func TestAuthService_Register_FirstAccountBecomesAdmin(t *testing.T) {
	f := newFixture()

	a := register(t, f, "Ana", "ana@example.com", "secret1", domain.RoleViewer, nil)

	if a.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %s", a.Role)
	}
	want := domain.Capabilities{View: true, Create: true, Edit: true, Delete: true}
	if a.Permissions.Clients != want {
		t.Fatalf("unexpected clients permissions: %+v", a.Permissions.Clients)
	}
	if a.PasswordHash != "" {
		t.Fatalf("password hash leaked in result")
	}
}

func TestAuthService_Register_ManagerWhileAdminExists(t *testing.T) {
	f := newFixture()
	admin := register(t, f, "Ana", "ana@example.com", "secret1", "", nil)

	b := register(t, f, "Beto", "beto@example.com", "secret2", domain.RoleManager, admin)

	if b.Role != domain.RoleManager {
		t.Fatalf("expected manager, got %s", b.Role)
	}
	want := domain.Capabilities{View: true, Create: true, Edit: true, Delete: false}
	if b.Permissions.Accounting != want {
		t.Fatalf("unexpected accounting permissions: %+v", b.Permissions.Accounting)
	}
	if err := domain.Authorize(b, domain.ModuleAccounting, domain.ActionDelete); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected manager accounting delete forbidden, got %v", err)
	}
	if err := domain.Authorize(admin, domain.ModuleAccounting, domain.ActionDelete); err != nil {
		t.Fatalf("expected admin accounting delete allowed, got %v", err)
	}
}

func TestAuthService_Register_AnonymousAdminRequestDowngraded(t *testing.T) {
	f := newFixture()
	register(t, f, "Ana", "ana@example.com", "secret1", "", nil)

	c := register(t, f, "Caro", "caro@example.com", "secret3", domain.RoleAdmin, nil)
	if c.Role != domain.RoleManager {
		t.Fatalf("expected downgrade to manager, got %s", c.Role)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []ports.CreateAccountInput{
		{Name: "", Email: "a@example.com", Password: "secret1"},
		{Name: "A", Email: "  ", Password: "secret1"},
		{Name: "A", Email: "a@example.com", Password: "123"},
		{Name: "A", Email: "a@example.com", Password: "secret1", Role: "root"},
	}
	for _, in := range cases {
		if _, _, err := f.auth.Register(ctx, in, nil); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("input %+v: expected ErrValidation, got %v", in, err)
		}
	}
}

func TestAuthService_Register_DuplicateEmailCaseInsensitive(t *testing.T) {
	f := newFixture()
	register(t, f, "Ana", "ana@example.com", "secret1", "", nil)

	_, _, err := f.auth.Register(context.Background(), ports.CreateAccountInput{
		Name: "Other", Email: "  ANA@Example.com ", Password: "secret1",
	}, nil)
	if !errors.Is(err, domain.ErrEmailTaken) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrEmailTaken conflict, got %v", err)
	}
}

func TestAuthService_Register_DefaultPassword(t *testing.T) {
	f := newFixture()

	res, session, err := f.auth.Register(context.Background(), ports.CreateAccountInput{
		Name: "Ana", Email: "ana@example.com",
	}, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !res.DefaultPassword {
		t.Fatalf("expected default password flag")
	}
	if session.Token == "" {
		t.Fatalf("expected a session token")
	}
	if _, err := f.auth.Login(context.Background(), "ana@example.com", "gems12-"); err != nil {
		t.Fatalf("login with default password: %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newFixture()
	a := register(t, f, "Ana", "ana@example.com", "secret1", "", nil)

	session, err := f.auth.Login(context.Background(), "ANA@example.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.Account.LastLogin == nil {
		t.Fatalf("expected last login to be set")
	}
	if session.Account.PasswordHash != "" {
		t.Fatalf("password hash leaked in session")
	}
	id, err := f.tokens.Verify(session.Token)
	if err != nil || id != a.ID {
		t.Fatalf("token does not resolve to account: %q %v", id, err)
	}
	stored, _ := f.repo.FindByID(context.Background(), a.ID)
	if stored.LastLogin == nil {
		t.Fatalf("last login not persisted")
	}
	if f.limiter.resets != 1 || f.limiter.attempts["ana@example.com"] != 0 {
		t.Fatalf("expected limiter reset on success")
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture()
	register(t, f, "Ana", "ana@example.com", "secret1", "", nil)
	ctx := context.Background()

	_, wrongPassword := f.auth.Login(ctx, "ana@example.com", "nope-nope")
	_, unknownEmail := f.auth.Login(ctx, "ghost@example.com", "secret1")

	if !errors.Is(wrongPassword, domain.ErrUnauthenticated) || !errors.Is(unknownEmail, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated errors, got %v / %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword.Error(), unknownEmail.Error())
	}
	if f.limiter.attempts["ana@example.com"] != 1 || f.limiter.attempts["ghost@example.com"] != 1 {
		t.Fatalf("expected each failed attempt to stay counted, got %v", f.limiter.attempts)
	}
	if f.limiter.resets != 0 {
		t.Fatalf("failed logins must not reset the limiter")
	}
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	f := newFixture()
	admin := register(t, f, "Ana", "ana@example.com", "secret1", "", nil)
	b := register(t, f, "Beto", "beto@example.com", "secret2", domain.RoleEmployee, admin)
	if _, err := f.team.Deactivate(context.Background(), admin, b.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := f.auth.Login(context.Background(), "beto@example.com", "secret2")
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_Throttled(t *testing.T) {
	f := newFixture()
	register(t, f, "Ana", "ana@example.com", "secret1", "", nil)
	f.limiter.blocked = true

	if _, err := f.auth.Login(context.Background(), "ana@example.com", "secret1"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if f.limiter.resets != 0 {
		t.Fatalf("a throttled login must not reset the limiter even with the right password")
	}
}

func TestAuthService_Login_LockoutHoldsForCorrectPassword(t *testing.T) {
	f := newFixture()
	register(t, f, "Ana", "ana@example.com", "secret1", "", nil)
	f.limiter.max = 3
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.auth.Login(ctx, "ana@example.com", "wrong-pass"); err != domain.ErrInvalidCredentials {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if _, err := f.auth.Login(ctx, "ana@example.com", "secret1"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected lockout after 3 failures, got %v", err)
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	f := newFixture()
	if _, err := f.auth.Login(context.Background(), "", "x"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newFixture()
	admin := register(t, f, "Ana", "ana@example.com", "secret1", "", nil)
	b := register(t, f, "Beto", "beto@example.com", "secret2", domain.RoleEmployee, admin)
	ctx := context.Background()

	good, _, _ := f.tokens.Issue(admin.ID)
	got, err := f.auth.Authenticate(ctx, good)
	if err != nil || got.ID != admin.ID {
		t.Fatalf("expected admin, got %+v %v", got, err)
	}
	if got.PasswordHash != "" {
		t.Fatalf("password hash leaked")
	}

	expiredIssuer := security.NewTokenIssuer("test-secret", time.Nanosecond)
	expired, _, _ := expiredIssuer.Issue(admin.ID)
	time.Sleep(time.Second)

	forged, _, _ := security.NewTokenIssuer("other-secret", time.Hour).Issue(admin.ID)

	disabled, _, _ := f.tokens.Issue(b.ID)
	if _, err := f.team.Deactivate(ctx, admin, b.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	missing, _, _ := f.tokens.Issue("acc-999")

	cases := map[string]struct {
		token  string
		reason domain.AuthFailure
	}{
		"empty":    {"", domain.ReasonMissingToken},
		"expired":  {expired, domain.ReasonInvalidToken},
		"forged":   {forged, domain.ReasonInvalidToken},
		"disabled": {disabled, domain.ReasonAccountDisabled},
		"missing":  {missing, domain.ReasonAccountNotFound},
	}
	for name, tc := range cases {
		_, err := f.auth.Authenticate(ctx, tc.token)
		if !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("%s: expected ErrUnauthenticated, got %v", name, err)
		}
		if err.Error() != domain.ErrUnauthenticated.Error() {
			t.Fatalf("%s: expected generic message, got %q", name, err.Error())
		}
		if r := domain.AuthFailureReason(err); r != tc.reason {
			t.Fatalf("%s: expected reason %s, got %s", name, tc.reason, r)
		}
	}
}

func TestAuthService_Authenticate_SeesRoleChangeImmediately(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := register(t, f, "Ana", "ana@example.com", "secret1", "", nil)
	b := register(t, f, "Beto", "beto@example.com", "secret2", domain.RoleViewer, admin)
	token, _, _ := f.tokens.Issue(b.ID)

	before, _ := f.auth.Authenticate(ctx, token)
	if err := domain.Authorize(before, domain.ModuleAccounting, domain.ActionView); err == nil {
		t.Fatalf("viewer should not see accounting")
	}

	role := domain.RoleManager
	if _, err := f.team.Update(ctx, admin, b.ID, ports.UpdateMemberInput{Role: &role}); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, _ := f.auth.Authenticate(ctx, token)
	if err := domain.Authorize(after, domain.ModuleAccounting, domain.ActionView); err != nil {
		t.Fatalf("same token should now see accounting: %v", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := register(t, f, "Ana", "ana@example.com", "secret1", "", nil)
	b := register(t, f, "Beto", "beto@example.com", "secret2", domain.RoleEmployee, admin)

	updated, err := f.auth.UpdateProfile(ctx, b, ports.ProfileInput{
		Name: " Roberto ", Email: "Roberto@Example.com", Department: "Ops",
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Roberto" || updated.Email != "roberto@example.com" || updated.Department != "Ops" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
	if updated.Role != domain.RoleEmployee || !updated.Active {
		t.Fatalf("self-service update changed role or active flag: %+v", updated)
	}

	if _, err := f.auth.UpdateProfile(ctx, b, ports.ProfileInput{Name: "R", Email: "ana@example.com"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := f.auth.UpdateProfile(ctx, b, ports.ProfileInput{Name: "", Email: "x@example.com"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := register(t, f, "Ana", "ana@example.com", "secret1", "", nil)

	if err := f.auth.ChangePassword(ctx, a, "wrong-one", "newsecret"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected wrong current password rejected, got %v", err)
	}
	if err := f.auth.ChangePassword(ctx, a, "secret1", "123"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected short password rejected, got %v", err)
	}
	if err := f.auth.ChangePassword(ctx, a, "", "newsecret"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected missing current rejected, got %v", err)
	}
	if err := f.auth.ChangePassword(ctx, a, "secret1", "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := f.auth.Login(ctx, "ana@example.com", "secret1"); err == nil {
		t.Fatalf("old password still works")
	}
	if _, err := f.auth.Login(ctx, "ana@example.com", "newsecret"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestAuthService_AuditTrail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := register(t, f, "Ana", "ana@example.com", "secret1", "", nil)
	if _, err := f.auth.Login(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	f.auth.Logout(ctx, a)

	got := f.audit.kinds()
	want := []domain.AccountEventKind{domain.EventAccountCreated, domain.EventLogin, domain.EventLogout}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
