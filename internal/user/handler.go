package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/middleware"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/logger"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/response"
)

// Handler exposes tenant-scoped users over HTTP
type Handler struct {
	svc *Service
}

// NewHandler creates the user handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the user routes on the given group
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type createRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Create handles POST /api/users
func (h *Handler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	var req createRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user creation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "valid email and password are required")
	}

	user, err := h.svc.Create(c.Request().Context(), CreateInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	}, middleware.TenantID(c))
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			log.Warn("Email already registered in tenant", zap.String("email", req.Email))
			return response.Error(c, http.StatusConflict, "email already registered")
		}
		log.Error("Failed to create user", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "user creation failed")
	}

	log.Info("User created", zap.Uint("id", user.ID), zap.String("email", user.Email))
	return response.Created(c, user)
}

// Get handles GET /api/users/:id
func (h *Handler) Get(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	user, err := h.svc.Get(c.Request().Context(), id, middleware.TenantID(c))
	if err != nil {
		return h.mapError(c, err, "Failed to get user")
	}
	return response.OK(c, user)
}

// List handles GET /api/users
func (h *Handler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	page, limit := pageParams(c)
	users, total, err := h.svc.List(c.Request().Context(), middleware.TenantID(c), page, limit)
	if err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve users")
	}

	return response.List(c, users, total, page, limit)
}

type updateRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Role      *string `json:"role,omitempty"`
	Status    *string `json:"status,omitempty"`
	Password  *string `json:"password,omitempty"`
}

// Update handles PUT /api/users/:id
func (h *Handler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	user, err := h.svc.Update(c.Request().Context(), id, middleware.TenantID(c), UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Status:    req.Status,
		Password:  req.Password,
	})
	if err != nil {
		return h.mapError(c, err, "Failed to update user")
	}
	return response.OK(c, user)
}

// Delete handles DELETE /api/users/:id
func (h *Handler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid user ID")
	}

	if err := h.svc.Delete(c.Request().Context(), id, middleware.TenantID(c)); err != nil {
		return h.mapError(c, err, "Failed to delete user")
	}

	log.Info("User deleted", zap.Uint("id", id))
	return response.Message(c, "user deleted")
}

func (h *Handler) mapError(c echo.Context, err error, msg string) error {
	log := logger.FromEcho(c)
	if errors.Is(err, apperr.ErrNotFound) {
		return response.Error(c, http.StatusNotFound, "user not found")
	}
	log.Error(msg, zap.Error(err))
	return response.Error(c, http.StatusInternalServerError, "internal error")
}

func paramUint(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(v), err
}

func pageParams(c echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
