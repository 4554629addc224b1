package dto

import (
	"time"

	"github.com/fixit/helpdesk-service/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Telephone  string `json:"telephone"`
	Department string `json:"department"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Telephone  string      `json:"telephone,omitempty"`
	Department string      `json:"department,omitempty"`
	Role       domain.Role `json:"role"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// NewUserResponse converts a domain user.
func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Telephone:  u.Telephone,
		Department: u.Department,
		Role:       u.EffectiveRole(),
		CreatedAt:  u.CreatedAt,
	}
}

// NewUserResponses converts a list of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}
