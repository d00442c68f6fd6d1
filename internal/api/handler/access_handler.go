package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gems-crm/backend/internal/core/domain"
)

// AccessHandler answers capability probes for the current account so clients
// can hide controls the account cannot use.
type AccessHandler struct{}

func NewAccessHandler() *AccessHandler {
	return &AccessHandler{}
}

// Check reports whether the caller may perform action in module. A denial
// is a normal 200 answer here, not an error.
//
// @Summary      Probe a capability
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Param        module  path      string  true  "Module"
// @Param        action  path      string  true  "Action"
// @Success      200     {object}  accessResponse
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Router       /v1/access/{module}/{action} [get]
func (h *AccessHandler) Check(c echo.Context) error {
	account, err := AccountFromContext(c)
	if err != nil {
		return err
	}

	module, ok := domain.ParseModule(c.Param("module"))
	if !ok {
		return &domain.ValidationError{Field: "module", Msg: "unknown module"}
	}
	action := domain.Action(c.Param("action"))
	switch action {
	case domain.ActionView, domain.ActionCreate, domain.ActionEdit, domain.ActionDelete, domain.ActionExport:
	default:
		return &domain.ValidationError{Field: "action", Msg: "unknown action"}
	}

	return c.JSON(http.StatusOK, accessResponse{
		Module:  module,
		Action:  action,
		Allowed: domain.Authorize(account, module, action) == nil,
	})
}
