package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-llm/internal/notify"
)

// NotificationHandler expone la lista de notificaciones y su descarte.
type NotificationHandler struct {
	logger   *zap.Logger
	notifier *notify.Notifier
}

func NewNotificationHandler(logger *zap.Logger, notifier *notify.Notifier) *NotificationHandler {
	return &NotificationHandler{logger: logger, notifier: notifier}
}

// List maneja GET /notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.notifier.List()})
}

// Dismiss maneja DELETE /notifications/:id.
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	if !h.notifier.Dismiss(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
