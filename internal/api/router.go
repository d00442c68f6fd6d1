package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/gems-crm/backend/docs"
	"github.com/gems-crm/backend/internal/api/handler"
	"github.com/gems-crm/backend/internal/api/middleware"
	"github.com/gems-crm/backend/internal/core/domain"
	"github.com/gems-crm/backend/internal/core/ports"
)

// RouterDeps holds everything the HTTP layer needs.
type RouterDeps struct {
	Auth   ports.AuthService
	Team   ports.TeamService
	Health map[string]handler.Pinger
	Log    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddleware("gems"))

	authn := middleware.Authenticate(deps.Auth, deps.Log)
	can := func(m domain.Module, a domain.Action) echo.MiddlewareFunc {
		return middleware.RequirePermission(m, a, deps.Log)
	}

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register, middleware.OptionalAuthenticate(deps.Auth, deps.Log))
	auth.POST("/login", authHandler.Login)
	auth.GET("/profile", authHandler.Profile, authn)
	auth.PUT("/profile", authHandler.UpdateProfile, authn)
	auth.PUT("/change-password", authHandler.ChangePassword, authn)
	auth.POST("/verify-token", authHandler.VerifyToken, authn)
	auth.POST("/logout", authHandler.Logout, authn)

	// --- Team management ---
	teamHandler := handler.NewTeamHandler(deps.Team)
	team := e.Group("/team", authn)
	team.GET("", teamHandler.List, can(domain.ModuleTeam, domain.ActionView))
	team.POST("", teamHandler.Create, can(domain.ModuleTeam, domain.ActionCreate))
	team.PUT("/:id", teamHandler.Update, can(domain.ModuleTeam, domain.ActionEdit))
	team.DELETE("/:id", teamHandler.Deactivate, can(domain.ModuleTeam, domain.ActionDelete))
	team.PUT("/:id/activate", teamHandler.Reactivate, can(domain.ModuleTeam, domain.ActionEdit))
	team.POST("/:id/permissions/reset", teamHandler.ResetPermissions, middleware.RequireRole(domain.RoleAdmin))

	// --- Capability probe ---
	accessHandler := handler.NewAccessHandler()
	e.GET("/v1/access/:module/:action", accessHandler.Check, authn)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Health)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
