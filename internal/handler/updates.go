package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecomstack/ecommerce-api/internal/middleware"
	"github.com/ecomstack/ecommerce-api/internal/model"
	"github.com/ecomstack/ecommerce-api/internal/poll"
	"github.com/ecomstack/ecommerce-api/internal/repository"
	"github.com/ecomstack/ecommerce-api/internal/service"
)

// UpdatesHandler serves the client polling endpoints. Clients supply their
// last-seen timestamp and receive everything newer plus a suggested next
// poll interval; "no updates" is a normal successful empty result, never
// an error.
type UpdatesHandler struct {
	Engine        *poll.Engine
	Orders        *repository.OrderRepo
	Notifications *repository.NotificationRepo
	Notifier      *service.Notifier
}

func NewUpdatesHandler(e *poll.Engine, o *repository.OrderRepo, n *repository.NotificationRepo, s *service.Notifier) *UpdatesHandler {
	return &UpdatesHandler{Engine: e, Orders: o, Notifications: n, Notifier: s}
}

// updateItem is the wire form of one notification.
type updateItem struct {
	ID        uint64          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
	Read      bool            `json:"read"`
	Priority  string          `json:"priority"`
}

func toUpdateItem(n model.Notification) updateItem {
	data := json.RawMessage(n.Payload)
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	priority := "normal"
	if n.Type == model.NotificationSystemAlert {
		priority = "high"
	}
	return updateItem{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      data,
		Timestamp: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		Read:      n.IsRead,
		Priority:  priority,
	}
}

func pollEnvelope(res poll.Result) echo.Map {
	items := make([]updateItem, 0, len(res.Events))
	for _, ev := range res.Events {
		items = append(items, toUpdateItem(ev))
	}
	var lastUpdate *string
	if res.Watermark != nil {
		s := res.Watermark.UTC().Format(time.RFC3339Nano)
		lastUpdate = &s
	}
	return echo.Map{
		"success": true,
		"data": echo.Map{
			"updates":          items,
			"last_update":      lastUpdate,
			"has_updates":      res.HasUpdates,
			"polling_interval": res.IntervalSeconds,
		},
	}
}

// parseSince reads the optional last_update query parameter. A missing
// parameter means "beginning of time"; a present but unparseable one is a
// caller error.
func parseSince(c echo.Context) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam("last_update"))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func parseTypes(c echo.Context) []string {
	raw := strings.TrimSpace(c.QueryParam("types"))
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetUpdates handles GET /v1/updates?last_update=<RFC3339>&types=<comma-list>.
func (h *UpdatesHandler) GetUpdates(c echo.Context) error {
	since, err := parseSince(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid last_update timestamp"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Engine.GetUpdates(ctx, middleware.UserID(c), since, parseTypes(c))
	if err != nil {
		if errors.Is(err, poll.ErrBadTypeFilter) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown notification type"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, pollEnvelope(res))
}

// GetOrderUpdates handles GET /v1/orders/:id/updates. The order must be
// owned by the caller unless the caller holds an admin role.
func (h *UpdatesHandler) GetOrderUpdates(c echo.Context) error {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	since, err := parseSince(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid last_update timestamp"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if err := repository.VisibleTo(order, middleware.UserID(c), middleware.Role(c)); errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	// Events for an order belong to its owner's timeline even when an
	// admin is watching.
	res, err := h.Engine.GetOrderUpdates(ctx, order.UserID, orderID, since)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, pollEnvelope(res))
}

type markReadReq struct {
	NotificationIDs []uint64 `json:"notification_ids"`
}

// MarkRead handles POST /v1/notifications/read. Ids not owned by the
// caller are silently ignored; the response does not reveal which ids
// existed.
func (h *UpdatesHandler) MarkRead(c echo.Context) error {
	var req markReadReq
	if err := c.Bind(&req); err != nil || len(req.NotificationIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "notification_ids required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Notifications.MarkRead(ctx, middleware.UserID(c), req.NotificationIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type createNotificationReq struct {
	UserID  uint64                 `json:"user_id"`
	Type    string                 `json:"type"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// CreateNotification handles POST /v1/notifications (admin only). It goes
// through the notifier so the stored notification is mirrored to the audit
// queue like every domain-path one, but unlike the best-effort domain
// write path an explicit admin creation reports its failure.
func (h *UpdatesHandler) CreateNotification(c echo.Context) error {
	var req createNotificationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.UserID == 0 || strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and title required"})
	}
	if !model.ValidNotificationType(req.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown notification type"})
	}

	payload, err := json.Marshal(req.Data)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid data payload"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stored, err := h.Notifier.Create(ctx, model.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   strings.TrimSpace(req.Title),
		Message: req.Message,
		Payload: payload,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create notification failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": toUpdateItem(stored)})
}

// UnreadCount handles GET /v1/notifications/unread-count, a cheap badge
// endpoint for clients that do not want a full poll.
func (h *UpdatesHandler) UnreadCount(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Notifications.CountUnread(ctx, middleware.UserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"unread": n}})
}
