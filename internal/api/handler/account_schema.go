package handler

import (
	"time"

	"github.com/gems-crm/backend/internal/core/domain"
	"github.com/gems-crm/backend/internal/core/ports"
)

// registerRequest is shared by POST /auth/register and POST /team.
// Role is parsed case-insensitively by the service.
type registerRequest struct {
	Name       string `json:"name"       validate:"required,max=120"`
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"omitempty,min=6"`
	Role       string `json:"role"`
	Department string `json:"department" validate:"max=120"`
	Position   string `json:"position"   validate:"max=120"`
	Phone      string `json:"phone"      validate:"max=40"`
}

func (r registerRequest) toInput() ports.CreateAccountInput {
	return ports.CreateAccountInput{
		Name:       r.Name,
		Email:      r.Email,
		Password:   r.Password,
		Role:       domain.Role(r.Role),
		Department: r.Department,
		Position:   r.Position,
		Phone:      r.Phone,
	}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// profileRequest has no role or is_active field, so neither can be changed
// through the self-service path.
type profileRequest struct {
	Name       string `json:"name"       validate:"required,max=120"`
	Email      string `json:"email"      validate:"required,email"`
	Phone      string `json:"phone"      validate:"max=40"`
	Department string `json:"department" validate:"max=120"`
	Position   string `json:"position"   validate:"max=120"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6"`
}

type updateMemberRequest struct {
	Name        *string               `json:"name"        validate:"omitempty,max=120"`
	Email       *string               `json:"email"       validate:"omitempty,email"`
	Role        *string               `json:"role"`
	Department  *string               `json:"department"  validate:"omitempty,max=120"`
	Position    *string               `json:"position"    validate:"omitempty,max=120"`
	Phone       *string               `json:"phone"       validate:"omitempty,max=40"`
	Permissions *domain.PermissionSet `json:"permissions"`
}

func (r updateMemberRequest) toInput() ports.UpdateMemberInput {
	in := ports.UpdateMemberInput{
		Name:        r.Name,
		Email:       r.Email,
		Department:  r.Department,
		Position:    r.Position,
		Phone:       r.Phone,
		Permissions: r.Permissions,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		in.Role = &role
	}
	return in
}

type sessionResponse struct {
	Token           string          `json:"token"`
	ExpiresAt       time.Time       `json:"expires_at"`
	User            *domain.Account `json:"user"`
	DefaultPassword bool            `json:"default_password,omitempty"`
}

type accountResponse struct {
	User            *domain.Account `json:"user"`
	DefaultPassword bool            `json:"default_password,omitempty"`
}

type teamListResponse struct {
	Users []*domain.Account `json:"users"`
	Count int               `json:"count"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type verifyTokenResponse struct {
	Valid bool            `json:"valid"`
	User  *domain.Account `json:"user"`
}

type accessResponse struct {
	Module  domain.Module `json:"module"`
	Action  domain.Action `json:"action"`
	Allowed bool          `json:"allowed"`
}
