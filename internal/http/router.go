package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chat-llm/internal/metrics"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	chatH *ChatHandler,
	attachmentH *AttachmentHandler,
	notificationH *NotificationHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares básicos: logging, métricas, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), metricsMiddleware(), gin.Recovery(), jsonContentTypeMiddleware())

	chats := r.Group("/chats")
	chats.POST("", chatH.CreateChat)
	chats.GET("", chatH.ListChats)
	chats.GET("/:id", chatH.GetChat)
	chats.PUT("/:id", chatH.RenameChat)
	chats.DELETE("/:id", chatH.DeleteChat)
	chats.POST("/:id/messages", chatH.PostMessage)
	chats.POST("/:id/attachments", attachmentH.Upload)

	r.GET("/queue/status", chatH.QueueStatus)

	r.DELETE("/attachments/:id", attachmentH.Release)

	r.GET("/notifications", notificationH.List)
	r.DELETE("/notifications/:id", notificationH.Dismiss)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// metricsMiddleware registra contadores y latencias por ruta.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
