package dto

import (
	"time"

	"github.com/patrimoine-ma/patrimoine-api/internal/models"
)

// UserResponse is the serialized staff account.
type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	IsSuperuser bool      `json:"is_superuser"`
	Groups      []string  `json:"groups"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupToggleResponse reports the membership state after a toggle.
type GroupToggleResponse struct {
	UserID uint   `json:"user_id"`
	Group  string `json:"group"`
	Member bool   `json:"member"`
}

// NewUserResponse converts a model into a DTO; role is supplied by the caller
// since resolution lives in the roles package.
func NewUserResponse(model models.User, role string) UserResponse {
	groups := make([]string, 0, len(model.Groups))
	for _, group := range model.Groups {
		groups = append(groups, group.Name)
	}

	return UserResponse{
		ID:          model.ID,
		Username:    model.Username,
		Email:       model.Email,
		FullName:    model.FullName,
		IsSuperuser: model.IsSuperuser,
		Groups:      groups,
		Role:        role,
		CreatedAt:   model.CreatedAt,
	}
}
