package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"web3nav/internal/auth"
	"web3nav/internal/service"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	authService  service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler. cookieSecure forces the Secure
// flag even when the request did not arrive over TLS.
func NewAuthHandler(authService service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieSecure: cookieSecure}
}

// LoginRequest represents an admin login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// ChangePasswordRequest represents a credential change by the signed-in admin.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	NewUsername     string `json:"newUsername" validate:"omitempty,max=100"`
}

// TokenResponse is returned when a session cookie is set.
type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// AdminUserResponse is the public view of an admin account.
type AdminUserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          AdminUserResponse `json:"user"`
	ExpiresAt     time.Time         `json:"expiresAt"`
}

// Login godoc
// @Summary Admin login
// @Description Verifies credentials and sets the admin_token session cookie.
// @Tags admin-auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {string} string "too many login attempts"
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return mapError(err)
	}

	c.SetCookie(auth.NewSessionCookie(session.Token, session.ExpiresAt, h.secure(c)))
	return c.JSON(http.StatusOK, TokenResponse{Success: true, Token: session.Token})
}

// Logout godoc
// @Summary Admin logout
// @Description Clears the session cookie. Tokens are stateless and stay valid until they expire.
// @Tags admin-auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/admin/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(auth.ClearSessionCookie(h.secure(c)))
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Session godoc
// @Summary Current admin session
// @Tags admin-auth
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Success 200 {object} SessionResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/admin/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return mapError(err)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return c.JSON(http.StatusOK, SessionResponse{
		Authenticated: true,
		User:          AdminUserResponse{ID: user.ID, Username: user.Username},
		ExpiresAt:     expiresAt,
	})
}

// ChangePassword godoc
// @Summary Change admin password
// @Description Verifies the current password, stores the new one and optionally renames the admin. A new session cookie is issued.
// @Tags admin-auth
// @Accept json
// @Produce json
// @Security CookieAuth
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Credential change"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	claims, err := sessionClaims(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.ChangePassword(c.Request().Context(), claims.UserID, service.ChangeCredentialsInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		NewUsername:     req.NewUsername,
	})
	if err != nil {
		return mapError(err)
	}

	c.SetCookie(auth.NewSessionCookie(session.Token, session.ExpiresAt, h.secure(c)))
	return c.JSON(http.StatusOK, TokenResponse{Success: true, Token: session.Token})
}

// secure reports whether the session cookie should carry the Secure flag.
// echo's Scheme honours X-Forwarded-Proto from a TLS-terminating proxy.
func (h *AuthHandler) secure(c echo.Context) bool {
	return h.cookieSecure || c.Scheme() == "https"
}
