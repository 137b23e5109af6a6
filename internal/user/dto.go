// AngelaMos | 2026
// dto.go

package user

import "time"

type UpdateMeRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended banned"`
}

type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type UserEnvelope struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

type UserListEnvelope struct {
	Success bool           `json:"success"`
	Users   []UserResponse `json:"users"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}

type ListParams struct {
	Page    int
	PerPage int
	Role    string
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func toUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
