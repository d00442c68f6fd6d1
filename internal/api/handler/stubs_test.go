package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gems-crm/backend/internal/core/domain"
	"github.com/gems-crm/backend/internal/core/ports"
)

type stubAuthService struct {
	registerFn       func(ctx context.Context, in ports.CreateAccountInput, actor *domain.Account) (*ports.CreateAccountResult, *ports.Session, error)
	loginFn          func(ctx context.Context, email, password string) (*ports.Session, error)
	updateProfileFn  func(ctx context.Context, actor *domain.Account, in ports.ProfileInput) (*domain.Account, error)
	changePasswordFn func(ctx context.Context, actor *domain.Account, current, next string) error
	loggedOut        []string
}

func (s *stubAuthService) Register(ctx context.Context, in ports.CreateAccountInput, actor *domain.Account) (*ports.CreateAccountResult, *ports.Session, error) {
	return s.registerFn(ctx, in, actor)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.Account, error) {
	return nil, &domain.AuthenticationError{Reason: domain.ReasonInvalidToken}
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, actor *domain.Account, in ports.ProfileInput) (*domain.Account, error) {
	return s.updateProfileFn(ctx, actor, in)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, actor *domain.Account, current, next string) error {
	return s.changePasswordFn(ctx, actor, current, next)
}

func (s *stubAuthService) Logout(_ context.Context, actor *domain.Account) {
	s.loggedOut = append(s.loggedOut, actor.ID)
}

type stubTeamService struct {
	listFn   func(ctx context.Context) ([]*domain.Account, error)
	createFn func(ctx context.Context, actor *domain.Account, in ports.CreateAccountInput) (*ports.CreateAccountResult, error)
	updateFn func(ctx context.Context, actor *domain.Account, targetID string, in ports.UpdateMemberInput) (*domain.Account, error)
	toggleFn func(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error)
}

func (s *stubTeamService) List(ctx context.Context) ([]*domain.Account, error) {
	return s.listFn(ctx)
}

func (s *stubTeamService) Create(ctx context.Context, actor *domain.Account, in ports.CreateAccountInput) (*ports.CreateAccountResult, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubTeamService) Update(ctx context.Context, actor *domain.Account, targetID string, in ports.UpdateMemberInput) (*domain.Account, error) {
	return s.updateFn(ctx, actor, targetID, in)
}

func (s *stubTeamService) Deactivate(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	return s.toggleFn(ctx, actor, targetID)
}

func (s *stubTeamService) Reactivate(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	return s.toggleFn(ctx, actor, targetID)
}

func (s *stubTeamService) ResetPermissions(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	return s.toggleFn(ctx, actor, targetID)
}

func newContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func account(id string, role domain.Role) *domain.Account {
	a := &domain.Account{ID: id, Name: id, Email: id + "@gems.test", Active: true}
	a.SetRole(role)
	return a
}

func session(a *domain.Account) *ports.Session {
	return &ports.Session{Token: "signed-token", ExpiresAt: time.Now().Add(time.Hour), Account: a}
}
