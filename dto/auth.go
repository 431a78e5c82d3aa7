package dto

import (
	"time"

	"scholar-blog/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenResponse is returned by POST /auth/refresh-token.
// accessToken sits at the top level of the body, next to success.
type RefreshTokenResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
}

// UserProfileDTO is the cached user profile blob kept next to the tokens.
type UserProfileDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResponseDTO is the data section of /auth/login and /auth/register.
type LoginResponseDTO struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         UserProfileDTO `json:"user"`
}

func NewUserProfileDTO(u models.User) UserProfileDTO {
	return UserProfileDTO{
		ID:        u.ID.Hex(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
