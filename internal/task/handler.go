package task

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

// Handler exposes tasks over HTTP
type Handler struct {
	svc *Service
}

// NewHandler creates the task handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the task routes on the given group
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

type createRequest struct {
	Title          string             `json:"title" validate:"required"`
	Description    string             `json:"description,omitempty"`
	ProjectID      uint               `json:"project_id" validate:"required"`
	Priority       model.TaskPriority `json:"priority,omitempty"`
	AssigneeID     *uint              `json:"assignee_id,omitempty"`
	DueDate        *time.Time         `json:"due_date,omitempty"`
	Tags           []string           `json:"tags,omitempty"`
	EstimatedHours *float64           `json:"estimated_hours,omitempty"`
	ParentTaskID   *uint              `json:"parent_task_id,omitempty"`
}

// Create handles POST /api/tasks. Status is forced to todo; priority
// defaults to medium; the tenant comes from the request header.
func (h *Handler) Create(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordTaskOperation("create")

	var req createRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task creation request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "title and project_id are required")
	}

	task, err := h.svc.Create(c.Request().Context(), CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		AssigneeID:     req.AssigneeID,
		ProjectID:      req.ProjectID,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
		EstimatedHours: req.EstimatedHours,
		ParentTaskID:   req.ParentTaskID,
	}, middleware.TenantID(c), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return response.Error(c, http.StatusNotFound, "project not found")
		}
		log.Error("Failed to create task", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "task creation failed")
	}

	log.Info("Task created",
		zap.Uint("id", task.ID),
		zap.Uint("project_id", task.ProjectID),
		zap.String("priority", string(task.Priority)))

	return response.Created(c, task)
}

// Get handles GET /api/tasks/:id
func (h *Handler) Get(c echo.Context) error {
	metrics.RecordTaskOperation("get")

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid task ID")
	}

	task, err := h.svc.Get(c.Request().Context(), id, middleware.TenantID(c))
	if err != nil {
		return h.mapError(c, err, "Failed to get task")
	}
	return response.OK(c, task)
}

// List handles GET /api/tasks with optional filters
func (h *Handler) List(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordTaskOperation("list")

	page, limit := pageParams(c)
	filter := ListFilter{
		Status:   model.TaskStatus(c.QueryParam("status")),
		Priority: model.TaskPriority(c.QueryParam("priority")),
	}
	if v := c.QueryParam("project_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			projectID := uint(id)
			filter.ProjectID = &projectID
		}
	}
	if v := c.QueryParam("assignee_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			assigneeID := uint(id)
			filter.AssigneeID = &assigneeID
		}
	}
	if v := c.QueryParam("parent_task_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			parentID := uint(id)
			filter.ParentTaskID = &parentID
		}
	}

	tasks, total, err := h.svc.List(c.Request().Context(), middleware.TenantID(c), filter, page, limit)
	if err != nil {
		log.Error("Failed to list tasks", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve tasks")
	}

	return response.List(c, tasks, total, page, limit)
}

type updateRequest struct {
	Title          *string             `json:"title,omitempty"`
	Description    *string             `json:"description,omitempty"`
	Status         *model.TaskStatus   `json:"status,omitempty"`
	Priority       *model.TaskPriority `json:"priority,omitempty"`
	AssigneeID     *uint               `json:"assignee_id,omitempty"`
	DueDate        *time.Time          `json:"due_date,omitempty"`
	Tags           []string            `json:"tags,omitempty"`
	EstimatedHours *float64            `json:"estimated_hours,omitempty"`
	ActualHours    *float64            `json:"actual_hours,omitempty"`
}

// Update handles PUT /api/tasks/:id
func (h *Handler) Update(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordTaskOperation("update")

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid task ID")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task update request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	task, err := h.svc.Update(c.Request().Context(), id, middleware.TenantID(c), UpdateInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		AssigneeID:     req.AssigneeID,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
	})
	if err != nil {
		return h.mapError(c, err, "Failed to update task")
	}
	return response.OK(c, task)
}

// Delete handles DELETE /api/tasks/:id
func (h *Handler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)
	metrics.RecordTaskOperation("delete")

	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid task ID")
	}

	if err := h.svc.Delete(c.Request().Context(), id, middleware.TenantID(c)); err != nil {
		return h.mapError(c, err, "Failed to delete task")
	}

	log.Info("Task deleted", zap.Uint("id", id))
	return response.Message(c, "task deleted")
}

func (h *Handler) mapError(c echo.Context, err error, msg string) error {
	log := logger.FromEcho(c)
	if errors.Is(err, apperr.ErrNotFound) {
		return response.Error(c, http.StatusNotFound, "task not found")
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
