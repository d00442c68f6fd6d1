package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gems-crm/backend/internal/api/metrics"
	"github.com/gems-crm/backend/internal/core/ports"
)

// TeamHandler serves the /team routes. Capability checks are applied by
// middleware on each route.
type TeamHandler struct {
	teamService ports.TeamService
}

func NewTeamHandler(teamService ports.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// List returns the active accounts.
//
// @Summary      List team members
// @Tags         team
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  teamListResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /team [get]
func (h *TeamHandler) List(c echo.Context) error {
	accounts, err := h.teamService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, teamListResponse{Users: accounts, Count: len(accounts)})
}

// Create adds a team member on behalf of the caller.
//
// @Summary      Create team member
// @Tags         team
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "Member details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /team [post]
func (h *TeamHandler) Create(c echo.Context) error {
	actor, err := AccountFromContext(c)
	if err != nil {
		return err
	}

	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.teamService.Create(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return err
	}
	metrics.AccountsCreatedTotal.WithLabelValues(string(res.Account.Role)).Inc()

	return c.JSON(http.StatusCreated, accountResponse{User: res.Account, DefaultPassword: res.DefaultPassword})
}

// Update edits another account.
//
// @Summary      Update team member
// @Tags         team
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Account ID"
// @Param        body  body      updateMemberRequest  true  "Fields to change"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /team/{id} [put]
func (h *TeamHandler) Update(c echo.Context) error {
	actor, err := AccountFromContext(c)
	if err != nil {
		return err
	}

	var req updateMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	updated, err := h.teamService.Update(c.Request().Context(), actor, c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{User: updated})
}

// Deactivate soft-deletes another account.
//
// @Summary      Deactivate team member
// @Tags         team
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  accountResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /team/{id} [delete]
func (h *TeamHandler) Deactivate(c echo.Context) error {
	actor, err := AccountFromContext(c)
	if err != nil {
		return err
	}
	updated, err := h.teamService.Deactivate(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{User: updated})
}

// Reactivate restores a deactivated account.
//
// @Summary      Reactivate team member
// @Tags         team
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  accountResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /team/{id}/activate [put]
func (h *TeamHandler) Reactivate(c echo.Context) error {
	actor, err := AccountFromContext(c)
	if err != nil {
		return err
	}
	updated, err := h.teamService.Reactivate(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{User: updated})
}

// ResetPermissions restores the canonical permission set for the member's role.
//
// @Summary      Reset member permissions
// @Tags         team
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  accountResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /team/{id}/permissions/reset [post]
func (h *TeamHandler) ResetPermissions(c echo.Context) error {
	actor, err := AccountFromContext(c)
	if err != nil {
		return err
	}
	updated, err := h.teamService.ResetPermissions(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{User: updated})
}
