package handler

import "github.com/codilore/codilore/internal/domain"

// createdAtLayout renders timestamps as ISO 8601 UTC with millisecond precision.
const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

type errorResponse struct {
	Error string `json:"error"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ProfileDTO is the JSON representation of a session profile.
type ProfileDTO struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toProfileDTO(p domain.Profile) ProfileDTO {
	return ProfileDTO{Email: p.Email, Name: p.DisplayName}
}

// UserDTO is the JSON representation of a stored identity. It never carries
// the password hash.
type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.DisplayName,
		CreatedAt: u.CreatedAt.UTC().Format(createdAtLayout),
	}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success bool       `json:"success"`
	User    ProfileDTO `json:"user"`
	Token   string     `json:"token"`
}

// MeResponse is returned by GET /api/auth/me. KiloCodeAPIKey is always null.
type MeResponse struct {
	Success        bool    `json:"success"`
	User           UserDTO `json:"user"`
	KiloCodeAPIKey *string `json:"kiloCodeApiKey"`
}

type successResponse struct {
	Success bool `json:"success"`
}
