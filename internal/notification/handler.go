package notification

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/IhSAaaa/TaskFlow-sub000/internal/middleware"
	"github.com/IhSAaaa/TaskFlow-sub000/internal/model"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/apperr"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/logger"
	"github.com/IhSAaaa/TaskFlow-sub000/pkg/response"
)

// Handler exposes notifications and the realtime websocket endpoint
type Handler struct {
	svc      *Service
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates the notification handler
func NewHandler(svc *Service, hub *Hub) *Handler {
	return &Handler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks belong to the gateway, as with the identity headers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts the notification routes on the given group
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/unread-count", h.UnreadCount)
	g.PUT("/:id/read", h.MarkRead)
	g.PUT("/read-all", h.MarkAllRead)
	g.DELETE("/:id", h.Delete)
	g.GET("/preferences", h.GetPreferences)
	g.PUT("/preferences", h.UpdatePreferences)
	g.GET("/ws", h.WebSocket)
}

type createRequest struct {
	UserID    uint                   `json:"user_id" validate:"required"`
	Title     string                 `json:"title" validate:"required"`
	Message   string                 `json:"message,omitempty"`
	Type      string                 `json:"type" validate:"required"`
	Data      map[string]interface{} `json:"data,omitempty"`
	ExpiresAt *time.Time             `json:"expires_at,omitempty"`
}

// Create handles POST /api/notifications
func (h *Handler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	var req createRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse notification request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, http.StatusBadRequest, "user_id, title and type are required")
	}

	notif, err := h.svc.Create(c.Request().Context(), CreateInput{
		UserID:    req.UserID,
		Title:     req.Title,
		Message:   req.Message,
		Type:      model.NotificationType(req.Type),
		Data:      req.Data,
		ExpiresAt: req.ExpiresAt,
	}, middleware.TenantID(c))
	if err != nil {
		log.Error("Failed to create notification", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "notification creation failed")
	}

	log.Info("Notification created",
		zap.Uint("id", notif.ID),
		zap.Uint("user_id", notif.UserID),
		zap.String("type", string(notif.Type)))
	return response.Created(c, notif)
}

// List handles GET /api/notifications
func (h *Handler) List(c echo.Context) error {
	log := logger.FromEcho(c)

	var filter ListFilter
	if v := c.QueryParam("status"); v != "" {
		status := model.NotificationStatus(v)
		filter.Status = &status
	}
	if v := c.QueryParam("type"); v != "" {
		typ := model.NotificationType(v)
		filter.Type = &typ
	}

	page, limit := pageParams(c)
	notifs, total, err := h.svc.List(c.Request().Context(),
		middleware.UserID(c), middleware.TenantID(c), filter, page, limit)
	if err != nil {
		log.Error("Failed to list notifications", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "failed to retrieve notifications")
	}

	return response.List(c, notifs, total, page, limit)
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *Handler) UnreadCount(c echo.Context) error {
	log := logger.FromEcho(c)

	count, err := h.svc.UnreadCount(c.Request().Context(), middleware.UserID(c), middleware.TenantID(c))
	if err != nil {
		log.Error("Failed to count unread notifications", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "internal error")
	}

	return response.OK(c, echo.Map{"unread": count})
}

// MarkRead handles PUT /api/notifications/:id/read
func (h *Handler) MarkRead(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid notification ID")
	}

	err = h.svc.MarkRead(c.Request().Context(), id, middleware.UserID(c), middleware.TenantID(c))
	if err != nil {
		return h.mapError(c, err, "Failed to mark notification read")
	}
	return response.Message(c, "notification marked as read")
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *Handler) MarkAllRead(c echo.Context) error {
	log := logger.FromEcho(c)

	updated, err := h.svc.MarkAllRead(c.Request().Context(), middleware.UserID(c), middleware.TenantID(c))
	if err != nil {
		log.Error("Failed to mark notifications read", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "internal error")
	}

	return response.OK(c, echo.Map{"updated": updated})
}

// Delete handles DELETE /api/notifications/:id
func (h *Handler) Delete(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.Error(c, http.StatusBadRequest, "invalid notification ID")
	}

	err = h.svc.Delete(c.Request().Context(), id, middleware.UserID(c), middleware.TenantID(c))
	if err != nil {
		return h.mapError(c, err, "Failed to delete notification")
	}
	return response.Message(c, "notification deleted")
}

// GetPreferences handles GET /api/notifications/preferences
func (h *Handler) GetPreferences(c echo.Context) error {
	log := logger.FromEcho(c)

	prefs, err := h.svc.GetPreferences(c.Request().Context(), middleware.UserID(c), middleware.TenantID(c))
	if err != nil {
		log.Error("Failed to load notification preferences", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "internal error")
	}

	return response.OK(c, prefs)
}

type preferencesRequest struct {
	Email map[model.NotificationType]bool `json:"email,omitempty"`
	Push  map[model.NotificationType]bool `json:"push,omitempty"`
	InApp map[model.NotificationType]bool `json:"in_app,omitempty"`
}

// UpdatePreferences handles PUT /api/notifications/preferences
func (h *Handler) UpdatePreferences(c echo.Context) error {
	log := logger.FromEcho(c)

	var req preferencesRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse preferences request", zap.Error(err))
		return response.Error(c, http.StatusBadRequest, "invalid request")
	}

	prefs, err := h.svc.UpdatePreferences(c.Request().Context(),
		middleware.UserID(c), middleware.TenantID(c), PreferencesInput{
			Email: req.Email,
			Push:  req.Push,
			InApp: req.InApp,
		})
	if err != nil {
		log.Error("Failed to update notification preferences", zap.Error(err))
		return response.Error(c, http.StatusInternalServerError, "internal error")
	}

	return response.OK(c, prefs)
}

// WebSocket handles GET /api/notifications/ws. The connection is registered
// with the hub until the client disconnects; inbound frames are read only to
// detect the close.
func (h *Handler) WebSocket(c echo.Context) error {
	log := logger.FromEcho(c)
	userID := middleware.UserID(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error("Websocket upgrade failed", zap.Error(err))
		return err
	}

	connID := h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, connID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Websocket closed unexpectedly",
					zap.Uint("user_id", userID),
					zap.Error(err))
			}
			return nil
		}
	}
}

func (h *Handler) mapError(c echo.Context, err error, msg string) error {
	log := logger.FromEcho(c)
	if errors.Is(err, apperr.ErrNotFound) {
		return response.Error(c, http.StatusNotFound, "notification not found")
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
