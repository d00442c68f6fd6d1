package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gems-crm/backend/internal/api/handler"
	"github.com/gems-crm/backend/internal/api/metrics"
	"github.com/gems-crm/backend/internal/core/domain"
)

// RequirePermission lets the request through only when the authenticated
// account holds the capability. It must run after Authenticate. The check
// reads the account loaded for this request, so role changes apply at once.
func RequirePermission(module domain.Module, action domain.Action, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, _ := handler.AccountFromContext(c)
			if err := domain.Authorize(account, module, action); err != nil {
				if errors.Is(err, domain.ErrForbidden) {
					metrics.AuthorizationDeniedTotal.WithLabelValues(string(module), string(action)).Inc()
					log.Info().
						Str("account_id", account.ID).
						Str("role", string(account.Role)).
						Str("module", string(module)).
						Str("action", string(action)).
						Msg("permission denied")
				}
				return err
			}
			return next(c)
		}
	}
}

// RequireRole restricts a route to the listed roles.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
		names = append(names, string(r))
	}
	denied := fmt.Errorf("%w: requires role %s", domain.ErrForbidden, strings.Join(names, " or "))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, err := handler.AccountFromContext(c)
			if err != nil {
				return err
			}
			if _, ok := allowed[account.Role]; !ok {
				return denied
			}
			return next(c)
		}
	}
}
