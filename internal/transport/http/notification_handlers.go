package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/beamchat/server/internal/core"
	"github.com/beamchat/server/internal/store"
)

// NotificationHandlers serves the admin announcement endpoints.
type NotificationHandlers struct {
	store         store.NotificationStore
	hub           *core.Hub
	adminUsername string
	log           *zerolog.Logger
}

// NewNotificationHandlers creates notification handlers.
func NewNotificationHandlers(st store.NotificationStore, hub *core.Hub, adminUsername string, logger *zerolog.Logger) *NotificationHandlers {
	return &NotificationHandlers{
		store:         st,
		hub:           hub,
		adminUsername: adminUsername,
		log:           logger,
	}
}

// SendNotificationRequest is the request body for an announcement.
// TargetUser narrows delivery to one username; empty means broadcast.
type SendNotificationRequest struct {
	Title      string `json:"title" binding:"required"`
	Message    string `json:"message" binding:"required"`
	TargetUser string `json:"targetUser"`
}

// NotificationResponse is one persisted announcement.
type NotificationResponse struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	From    string `json:"from"`
	Date    string `json:"date"`
}

// Send handles POST /api/admin/send-notification.
func (h *NotificationHandlers) Send(c *gin.Context) {
	sender := usernameFromContext(c)
	if sender != h.adminUsername {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin access required"})
		return
	}

	var req SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title and message are required"})
		return
	}

	rec := &store.Notification{
		Title:     req.Title,
		Body:      req.Message,
		Sender:    sender,
		Target:    req.TargetUser,
		CreatedAt: time.Now(),
	}
	if err := h.store.SaveNotification(c.Request.Context(), rec); err != nil {
		h.log.Error().Err(err).Msg("save notification")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to save notification"})
		return
	}

	h.hub.PublishNotification(&core.Notification{
		ID:        rec.ID,
		Title:     rec.Title,
		Body:      rec.Body,
		Sender:    rec.Sender,
		Target:    rec.Target,
		CreatedAt: rec.CreatedAt,
	})

	h.log.Info().Str("target", req.TargetUser).Msg("notification sent")
	c.JSON(http.StatusOK, NotificationResponse{
		ID:      rec.ID,
		Title:   rec.Title,
		Message: rec.Body,
		From:    rec.Sender,
		Date:    rec.CreatedAt.Format(time.RFC3339),
	})
}

// List handles GET /api/notifications.
func (h *NotificationHandlers) List(c *gin.Context) {
	self := usernameFromContext(c)

	notifications, err := h.store.ListNotifications(c.Request.Context(), self)
	if err != nil {
		h.log.Error().Err(err).Msg("list notifications")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load notifications"})
		return
	}

	out := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, NotificationResponse{
			ID:      n.ID,
			Title:   n.Title,
			Message: n.Body,
			From:    n.Sender,
			Date:    n.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}
