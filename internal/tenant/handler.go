package tenant

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/logger"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/metrics"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/response"
)

// Handler exposes tenant provisioning over HTTP
type Handler struct {
	svc *Service
}

// NewHandler creates the tenant handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the tenant routes on the given group
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PUT("/:id/upgrade-plan", h.UpgradePlan)
	g.PUT("/:id/activate", h.Activate)
	g.PUT("/:id/suspend", h.Suspend)
	g.DELETE("/:id", h.Delete)
}

type createRequest struct {
	Name      string                     `json:"name" validate:"required"`
	Domain    string                     `json:"domain" validate:"required"`
	Subdomain *string                    `json:"subdomain,omitempty"`
	OwnerID   uint                       `json:"owner_id" validate:"required"`
	Plan      model.PlanTier             `json:"plan,omitempty"`
	Settings  map[string]json.RawMessage `json:"settings,omitempty"`
}

// Create handles POST /api/tenants
func (h *Handler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordTenantOperation("create")

	var req createRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "name, domain and owner_id are required")
	}

	tenant, err := h.svc.Create(c.Request().Context(), CreateInput{
		Name:      req.Name,
		Domain:    req.Domain,
		Subdomain: req.Subdomain,
		OwnerID:   req.OwnerID,
		Plan:      req.Plan,
		Settings:  req.Settings,
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			log.Warn("Tenant domain already taken", zap.String("domain", req.Domain))
			return response.Error(c, http.StatusConflict, "domain or subdomain already in use")
		}
		log.Error("Failed to create tenant", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "tenant creation failed")
	}

	log.Info("Tenant created",
		zap.Uint("id", tenant.ID),
		zap.String("domain", tenant.Domain),
		zap.String("plan", string(tenant.Plan)))

	return response.Created(c, tenant)
}

type updateRequest struct {
	Name        *string                    `json:"name,omitempty"`
	Domain      *string                    `json:"domain,omitempty"`
	Subdomain   *string                    `json:"subdomain,omitempty"`
	Status      *model.TenantStatus        `json:"status,omitempty"`
	Plan        *model.PlanTier            `json:"plan,omitempty"`
	Settings    map[string]json.RawMessage `json:"settings,omitempty"`
	MaxUsers    *int                       `json:"max_users,omitempty"`
	MaxProjects *int                       `json:"max_projects,omitempty"`
	MaxStorage  *int                       `json:"max_storage_gb,omitempty"`
	Features    []string                   `json:"features,omitempty"`
}

// Update handles PUT /api/tenants/:id
func (h *Handler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordTenantOperation("update")

	id, err := paramID(c)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	tenant, err := h.svc.Update(c.Request().Context(), id, UpdateInput{
		Name:        req.Name,
		Domain:      req.Domain,
		Subdomain:   req.Subdomain,
		Status:      req.Status,
		Plan:        req.Plan,
		Settings:    req.Settings,
		MaxUsers:    req.MaxUsers,
		MaxProjects: req.MaxProjects,
		MaxStorage:  req.MaxStorage,
		Features:    req.Features,
	})
	if err != nil {
		return h.mapError(c, err, "Failed to update tenant", id)
	}

	return response.OK(c, tenant)
}

type upgradePlanRequest struct {
	Plan model.PlanTier `json:"plan" validate:"required"`
}

// UpgradePlan handles PUT /api/tenants/:id/upgrade-plan
func (h *Handler) UpgradePlan(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordTenantOperation("upgrade_plan")

	id, err := paramID(c)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	var req upgradePlanRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "plan is required")
	}

	tenant, err := h.svc.UpgradePlan(c.Request().Context(), id, req.Plan)
	if err != nil {
		return h.mapError(c, err, "Failed to upgrade tenant plan", id)
	}

	log.Info("Tenant plan upgraded",
		zap.Uint("id", id),
		zap.String("plan", string(req.Plan)))

	return response.OK(c, tenant)
}

// Activate handles PUT /api/tenants/:id/activate
func (h *Handler) Activate(c echo.Context) error {
	metrics.RecordTenantOperation("activate")

	id, err := paramID(c)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	tenant, err := h.svc.Activate(c.Request().Context(), id)
	if err != nil {
		return h.mapError(c, err, "Failed to activate tenant", id)
	}
	return response.OK(c, tenant)
}

// Suspend handles PUT /api/tenants/:id/suspend
func (h *Handler) Suspend(c echo.Context) error {
	metrics.RecordTenantOperation("suspend")

	id, err := paramID(c)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	tenant, err := h.svc.Suspend(c.Request().Context(), id)
	if err != nil {
		return h.mapError(c, err, "Failed to suspend tenant", id)
	}
	return response.OK(c, tenant)
}

// Delete handles DELETE /api/tenants/:id (soft delete)
func (h *Handler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordTenantOperation("delete")

	id, err := paramID(c)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return h.mapError(c, err, "Failed to delete tenant", id)
	}

	log.Info("Tenant cancelled", zap.Uint("id", id))
	return response.Message(c, "tenant cancelled")
}

// Get handles GET /api/tenants/:id
func (h *Handler) Get(c echo.Context) error {
	metrics.RecordTenantOperation("get")

	id, err := paramID(c)
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid tenant ID")
	}

	tenant, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.mapError(c, err, "Failed to get tenant", id)
	}
	return response.OK(c, tenant)
}

// List handles GET /api/tenants
func (h *Handler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordTenantOperation("list")

	page, limit := pageParams(c)
	status := model.TenantStatus(c.QueryParam("status"))

	tenants, total, err := h.svc.List(c.Request().Context(), status, page, limit)
	if err != nil {
		log.Error("Failed to list tenants", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve tenants")
	}

	return response.List(c, tenants, total, page, limit)
}

func (h *Handler) mapError(c echo.Context, err error, msg string, id uint) error {
	log := logger.FromEcho(c)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return response.Error(c, http.StatusNotFound, "tenant not found")
	case errors.Is(err, apperr.ErrConflict):
		return response.Error(c, http.StatusConflict, "domain or subdomain already in use")
	default:
		log.Error(msg, zap.Uint("id", id), zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "internal error")
	}
}

func paramID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
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
