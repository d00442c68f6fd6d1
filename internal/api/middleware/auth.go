package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gems-crm/backend/internal/api/handler"
	"github.com/gems-crm/backend/internal/api/metrics"
	"github.com/gems-crm/backend/internal/core/domain"
)

// Authenticator resolves a bearer token to an active account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Account, error)
}

// Authenticate rejects the request unless it carries a valid bearer token for
// an active account. The internal reason is logged and counted; the client
// only ever sees the generic message.
func Authenticate(auth Authenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, err := resolve(c, auth)
			if err != nil {
				return reject(c, log, err)
			}
			handler.SetAccount(c, account)
			return next(c)
		}
	}
}

// OptionalAuthenticate attaches the account when an Authorization header is
// present and lets anonymous requests through. A header that fails
// verification is still rejected.
func OptionalAuthenticate(auth Authenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			account, err := resolve(c, auth)
			if err != nil {
				return reject(c, log, err)
			}
			handler.SetAccount(c, account)
			return next(c)
		}
	}
}

func resolve(c echo.Context, auth Authenticator) (*domain.Account, error) {
	token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	return auth.Authenticate(c.Request().Context(), token)
}

// bearerToken extracts the credential from "Bearer <token>".
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", &domain.AuthenticationError{Reason: domain.ReasonMissingToken}
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", &domain.AuthenticationError{Reason: domain.ReasonInvalidToken}
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", &domain.AuthenticationError{Reason: domain.ReasonMissingToken}
	}
	return token, nil
}

func reject(c echo.Context, log zerolog.Logger, err error) error {
	if !errors.Is(err, domain.ErrUnauthenticated) {
		return err
	}
	reason := domain.AuthFailureReason(err)
	metrics.AuthFailuresTotal.WithLabelValues(string(reason)).Inc()

	ev := log.Info().
		Str("reason", string(reason)).
		Str("path", c.Request().URL.Path).
		Str("remote_ip", c.RealIP())
	if cause := errors.Unwrap(err); cause != nil {
		ev = ev.AnErr("cause", cause)
	}
	ev.Msg("authentication failed")
	return err
}
