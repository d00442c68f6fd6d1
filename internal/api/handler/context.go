package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/gems-crm/backend/internal/core/domain"
)

const accountKey = "account"

// SetAccount stores the authenticated account on the request context.
func SetAccount(c echo.Context, a *domain.Account) {
	c.Set(accountKey, a)
}

// AccountFromContext returns the account attached by the Authenticate
// middleware. A route mounted without it gets an authentication failure.
func AccountFromContext(c echo.Context) (*domain.Account, error) {
	a, ok := c.Get(accountKey).(*domain.Account)
	if !ok || a == nil {
		return nil, &domain.AuthenticationError{Reason: domain.ReasonMissingAccount}
	}
	return a, nil
}

// optionalAccount returns the attached account or nil for anonymous requests.
func optionalAccount(c echo.Context) *domain.Account {
	a, _ := c.Get(accountKey).(*domain.Account)
	return a
}
