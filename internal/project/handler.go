package project

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/middleware"
	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/logger"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/metrics"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/response"
)

// Handler exposes projects and memberships over HTTP. Tenant scope and the
// acting user come from the x-tenant-id / x-user-id headers set upstream.
type Handler struct {
	svc *Service
}

// NewHandler creates the project handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the project routes on the given group
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/members", h.AddMember)
	g.PUT("/:id/members/:memberId", h.UpdateMember)
	g.DELETE("/:id/members/:memberId", h.RemoveMember)
}

type createRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	Members     []uint     `json:"members,omitempty"`
}

// Create handles POST /api/projects. The caller becomes the owner; extra
// members from the request join with the default member role.
func (h *Handler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordProjectOperation("create")

	var req createRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse project creation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "name is required")
	}

	tenantID := middleware.TenantID(c)
	ownerID := middleware.UserID(c)

	proj, err := h.svc.Create(c.Request().Context(), CreateInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Tags:        req.Tags,
		Budget:      req.Budget,
		Members:     req.Members,
	}, tenantID, ownerID)
	if err != nil {
		log.Error("Failed to create project", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "project creation failed")
	}

	log.Info("Project created",
		zap.Uint("id", proj.ID),
		zap.Uint("tenant_id", tenantID),
		zap.Uint("owner_id", ownerID),
		zap.Int("members", len(proj.Members)))

	return response.Created(c, proj)
}

// Get handles GET /api/projects/:id
func (h *Handler) Get(c echo.Context) error {
	metrics.RecordProjectOperation("get")

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}

	proj, err := h.svc.Get(c.Request().Context(), id, middleware.TenantID(c))
	if err != nil {
		return h.mapError(c, err, "Failed to get project")
	}
	return response.OK(c, proj)
}

// List handles GET /api/projects
func (h *Handler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordProjectOperation("list")

	page, limit := pageParams(c)
	status := model.ProjectStatus(c.QueryParam("status"))

	projects, total, err := h.svc.List(c.Request().Context(), middleware.TenantID(c), status, page, limit)
	if err != nil {
		log.Error("Failed to list projects", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve projects")
	}

	return response.List(c, projects, total, page, limit)
}

type updateRequest struct {
	Name        *string              `json:"name,omitempty"`
	Description *string              `json:"description,omitempty"`
	Status      *model.ProjectStatus `json:"status,omitempty"`
	StartDate   *time.Time           `json:"start_date,omitempty"`
	EndDate     *time.Time           `json:"end_date,omitempty"`
	Tags        []string             `json:"tags,omitempty"`
	Budget      *float64             `json:"budget,omitempty"`
}

// Update handles PUT /api/projects/:id
func (h *Handler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordProjectOperation("update")

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse project update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	proj, err := h.svc.Update(c.Request().Context(), id, middleware.TenantID(c), UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Tags:        req.Tags,
		Budget:      req.Budget,
	})
	if err != nil {
		return h.mapError(c, err, "Failed to update project")
	}
	return response.OK(c, proj)
}

// Delete handles DELETE /api/projects/:id
func (h *Handler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordProjectOperation("delete")

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}

	if err := h.svc.Delete(c.Request().Context(), id, middleware.TenantID(c)); err != nil {
		return h.mapError(c, err, "Failed to delete project")
	}

	log.Info("Project deleted", zap.Uint("id", id))
	return response.Message(c, "project deleted")
}

type memberRequest struct {
	UserID      uint             `json:"user_id" validate:"required"`
	Role        model.MemberRole `json:"role,omitempty"`
	Permissions []string         `json:"permissions,omitempty"`
}

// AddMember handles POST /api/projects/:id/members
func (h *Handler) AddMember(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordProjectOperation("add_member")

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}

	var req memberRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "user_id is required")
	}

	member, err := h.svc.AddMember(c.Request().Context(), id, middleware.TenantID(c), req.UserID, req.Role, req.Permissions)
	if err != nil {
		return h.mapError(c, err, "Failed to add project member")
	}

	log.Info("Project member added",
		zap.Uint("project_id", id),
		zap.Uint("user_id", req.UserID),
		zap.String("role", string(member.Role)))

	return response.Created(c, member)
}

type updateMemberRequest struct {
	Role        model.MemberRole `json:"role,omitempty"`
	Permissions []string         `json:"permissions,omitempty"`
}

// UpdateMember handles PUT /api/projects/:id/members/:memberId
func (h *Handler) UpdateMember(c echo.Context) error {
	metrics.RecordProjectOperation("update_member")

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}
	memberID, err := paramUint(c, "memberId")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid member ID")
	}

	var req updateMemberRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	err = h.svc.UpdateMember(c.Request().Context(), id, middleware.TenantID(c), memberID, req.Role, req.Permissions)
	if err != nil {
		return h.mapError(c, err, "Failed to update project member")
	}
	return response.Message(c, "member updated")
}

// RemoveMember handles DELETE /api/projects/:id/members/:memberId.
// Removing the project owner is always refused.
func (h *Handler) RemoveMember(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordProjectOperation("remove_member")

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid project ID")
	}
	memberID, err := paramUint(c, "memberId")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid member ID")
	}

	err = h.svc.RemoveMember(c.Request().Context(), id, middleware.TenantID(c), memberID)
	if err != nil {
		if errors.Is(err, apperr.ErrProtectedOwner) {
			log.Warn("Attempted to remove project owner",
				zap.Uint("project_id", id),
				zap.Uint("user_id", memberID))
			return response.Error(c, http.StatusBadRequest, "cannot remove project owner")
		}
		return h.mapError(c, err, "Failed to remove project member")
	}

	log.Info("Project member removed",
		zap.Uint("project_id", id),
		zap.Uint("user_id", memberID))

	return response.Message(c, "member removed")
}

func (h *Handler) mapError(c echo.Context, err error, msg string) error {
	log := logger.FromEcho(c)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return response.Error(c, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrConflict):
		return response.Error(c, http.StatusConflict, "user is already a member of this project")
	default:
		log.Error(msg, zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "internal error")
	}
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
