package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/codilore/codilore/internal/domain"
	"github.com/codilore/codilore/internal/service"
)

// Generic failure messages for unexpected errors. Details are logged only.
const (
	msgRegistrationFailed = "Registration failed"
	msgLoginFailed        = "Login failed"
	msgGetUserFailed      = "Failed to get user information"
	msgPasswordFailed     = "Password change failed"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleRegister processes a JSON registration request.
// POST /api/auth/register
// Request:  {"email":"...","password":"...","name":"..."}
// Response: {"success":true,"user":{"email":"...","name":"..."},"token":"..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	profile, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		// Duplicate emails are reported as 400, not 409.
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrConflict) {
			writePublicError(w, http.StatusBadRequest, err, msgRegistrationFailed)
			return
		}
		slog.Error("register user", "error", err)
		writeError(w, http.StatusInternalServerError, msgRegistrationFailed)
		return
	}

	token, err := h.auth.GenerateToken(profile)
	if err != nil {
		slog.Error("generate token after register", "error", err)
		writeError(w, http.StatusInternalServerError, msgRegistrationFailed)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		User:    toProfileDTO(profile),
		Token:   token,
	})
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"success":true,"user":{"email":"...","name":"..."},"token":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	profile, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writePublicError(w, http.StatusBadRequest, err, msgLoginFailed)
		case errors.Is(err, domain.ErrUnauthorized):
			writePublicError(w, http.StatusUnauthorized, err, msgLoginFailed)
		default:
			slog.Error("login user", "error", err)
			writeError(w, http.StatusInternalServerError, msgLoginFailed)
		}
		return
	}

	token, err := h.auth.GenerateToken(profile)
	if err != nil {
		slog.Error("generate token after login", "error", err)
		writeError(w, http.StatusInternalServerError, msgLoginFailed)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		User:    toProfileDTO(profile),
		Token:   token,
	})
}

// HandleMe returns the identity behind the bearer token. Must be wrapped in
// RequireAuth.
// GET /api/auth/me
// Response: {"success":true,"user":{"id":"...","email":"...","name":"...","createdAt":"..."},"kiloCodeApiKey":null}
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	profile, ok := ProfileFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgTokenRequired)
		return
	}

	user, found, err := h.auth.GetUserByEmail(r.Context(), profile.Email)
	if err != nil {
		slog.Error("get user by email", "error", err)
		writeError(w, http.StatusInternalServerError, msgGetUserFailed)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, service.MsgUserNotFound)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{
		Success: true,
		User:    toUserDTO(user),
	})
}

// HandleChangePassword rotates the caller's password. Must be wrapped in
// RequireAuth. Existing tokens stay valid until they expire.
// POST /api/auth/password
// Request:  {"currentPassword":"...","newPassword":"..."}
// Response: {"success":true}
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	profile, ok := ProfileFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgTokenRequired)
		return
	}

	var req changePasswordRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	err := h.auth.ChangePassword(r.Context(), profile.Email, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			writePublicError(w, http.StatusBadRequest, err, msgPasswordFailed)
		case errors.Is(err, domain.ErrUnauthorized):
			writePublicError(w, http.StatusUnauthorized, err, msgPasswordFailed)
		case errors.Is(err, domain.ErrNotFound):
			writePublicError(w, http.StatusNotFound, err, msgPasswordFailed)
		default:
			slog.Error("change password", "error", err)
			writeError(w, http.StatusInternalServerError, msgPasswordFailed)
		}
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// writePublicError writes the user-safe message carried by err, or fallback.
func writePublicError(w http.ResponseWriter, status int, err error, fallback string) {
	msg, ok := domain.PublicMessage(err)
	if !ok {
		msg = fallback
	}
	writeError(w, status, msg)
}
