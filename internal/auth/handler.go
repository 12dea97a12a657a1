package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/middleware"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/logger"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/metrics"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/response"
)

// Handler exposes authentication over HTTP
type Handler struct {
	svc *Service
}

// NewHandler creates the auth handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublic mounts the unauthenticated auth routes
func (h *Handler) RegisterPublic(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/reset-password", h.ResetPassword)
}

// RegisterProtected mounts the routes behind JWT auth
func (h *Handler) RegisterProtected(g *echo.Group) {
	g.POST("/logout", h.Logout)
	g.POST("/change-password", h.ChangePassword)
	g.GET("/me", h.Me)
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		metrics.RecordAuthError("invalid_request")
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RecordAuthError("incomplete_registration")
		return response.Error(c, http.StatusBadRequest, "valid email and password are required")
	}

	result, err := h.svc.Register(c.Request().Context(), RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, middleware.TenantID(c))
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			log.Warn("Email already registered", zap.String("email", req.Email))
			metrics.RecordAuthError("email_already_exists")
			return response.Error(c, http.StatusConflict, "email already registered")
		}
		log.Error("Failed to register user", zap.Error(err))
		metrics.RecordAuthError("registration_failed")
		return response.Error(c, http.StatusInternalServerError, "registration failed")
	}

	log.Info("User registered", zap.String("email", req.Email))
	return response.Created(c, loginPayload(result))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login. Failure is always the generic
// "invalid credentials", never distinguishing unknown email from wrong
// password.
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		metrics.RecordAuthError("invalid_request")
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RecordAuthError("incomplete_login")
		return response.Error(c, http.StatusBadRequest, "email and password are required")
	}

	result, err := h.svc.Login(c.Request().Context(), req.Email, req.Password, middleware.TenantID(c))
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			log.Warn("Login failed", zap.String("email", req.Email))
			metrics.RecordAuthError("invalid_credentials")
			return response.Error(c, http.StatusUnauthorized, "invalid credentials")
		}
		log.Error("Login error", zap.Error(err))
		metrics.RecordAuthError("login_failed")
		return response.Error(c, http.StatusInternalServerError, "login failed")
	}

	log.Info("User logged in", zap.String("email", req.Email))
	return response.OK(c, loginPayload(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Refresh handles POST /api/auth/refresh; the old refresh token is
// invalidated by rotation
func (h *Handler) Refresh(c echo.Context) error {
	log := logger.FromEcho(c)

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		metrics.RecordAuthError("invalid_request")
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RecordAuthError("missing_refresh_token")
		return response.Error(c, http.StatusBadRequest, "refreshToken is required")
	}

	result, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		log.Warn("Refresh token rejected", zap.Error(err))
		metrics.RecordAuthError("invalid_refresh_token")
		return response.Error(c, http.StatusUnauthorized, "invalid or expired token")
	}

	return response.OK(c, loginPayload(result))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword handles POST /api/auth/change-password
func (h *Handler) ChangePassword(c echo.Context) error {
	log := logger.FromEcho(c)

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "current and new password are required")
	}

	err := h.svc.ChangePassword(c.Request().Context(), middleware.UserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			metrics.RecordAuthError("invalid_credentials")
			return response.Error(c, http.StatusUnauthorized, "invalid credentials")
		}
		if errors.Is(err, apperr.ErrNotFound) {
			return response.Error(c, http.StatusNotFound, "user not found")
		}
		log.Error("Failed to change password", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "password change failed")
	}

	return response.Message(c, "password changed")
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword handles POST /api/auth/forgot-password. The reply is the
// same whether or not the email exists.
func (h *Handler) ForgotPassword(c echo.Context) error {
	log := logger.FromEcho(c)

	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "valid email is required")
	}

	token, err := h.svc.ForgotPassword(c.Request().Context(), req.Email, middleware.TenantID(c))
	if err != nil {
		log.Error("Failed to issue reset token", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "internal error")
	}
	if token != "" {
		// delivery is out of band; the token is only logged server-side
		log.Info("Password reset token issued", zap.String("email", req.Email))
	}

	return response.Message(c, "if the account exists, a reset token has been issued")
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPassword handles POST /api/auth/reset-password
func (h *Handler) ResetPassword(c echo.Context) error {
	log := logger.FromEcho(c)

	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "token and new password are required")
	}

	if err := h.svc.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			metrics.RecordAuthError("invalid_reset_token")
			return response.Error(c, http.StatusUnauthorized, "invalid or expired token")
		}
		log.Error("Failed to reset password", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "password reset failed")
	}

	return response.Message(c, "password reset")
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(c echo.Context) error {
	log := logger.FromEcho(c)

	if err := h.svc.Logout(c.Request().Context(), middleware.UserID(c)); err != nil {
		log.Error("Failed to log out", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "logout failed")
	}

	return response.Message(c, "logged out")
}

// Me handles GET /api/auth/me
func (h *Handler) Me(c echo.Context) error {
	log := logger.FromEcho(c)

	user, err := h.svc.Me(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return response.Error(c, http.StatusNotFound, "user not found")
		}
		log.Error("Failed to load profile", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "internal error")
	}

	return response.OK(c, user)
}

func loginPayload(result *Result) echo.Map {
	return echo.Map{
		"user":         result.User,
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	}
}
