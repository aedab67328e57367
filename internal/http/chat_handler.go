package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-llm/internal/attachment"
	"chat-llm/internal/domain"
	"chat-llm/internal/repository"
	"chat-llm/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de conversaciones y envíos.
type ChatHandler struct {
	logger     *zap.Logger
	chats      repository.ChatRepository
	dispatcher *service.Dispatcher
}

func NewChatHandler(logger *zap.Logger, chats repository.ChatRepository, dispatcher *service.Dispatcher) *ChatHandler {
	return &ChatHandler{
		logger:     logger,
		chats:      chats,
		dispatcher: dispatcher,
	}
}

// CreateChat maneja POST /chats.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid create chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Title == "" {
		req.Title = "Nueva conversación"
	}

	now := time.Now().UTC()
	chat := domain.Chat{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.chats.Create(c.Request.Context(), chat); err != nil {
		h.logger.Error("create chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// ListChats maneja GET /chats.
func (h *ChatHandler) ListChats(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	chats, err := h.chats.List(c.Request.Context(), skip, limit)
	if err != nil {
		h.logger.Error("list chats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChat maneja GET /chats/:id.
func (h *ChatHandler) GetChat(c *gin.Context) {
	chat, err := h.chats.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		h.logger.Error("get chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// RenameChat maneja PUT /chats/:id.
func (h *ChatHandler) RenameChat(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.chats.Rename(c.Request.Context(), c.Param("id"), req.Title); err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		h.logger.Error("rename chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteChat maneja DELETE /chats/:id (baja lógica).
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	if err := h.chats.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		h.logger.Error("delete chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostMessage maneja POST /chats/:id/messages: valida y encola el envío.
// La respuesta del asistente llega al historial cuando el turno se procesa.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Content      string `json:"content" binding:"required"`
		WebSearch    bool   `json:"web_search"`
		SystemPrompt string `json:"system_prompt"`
		Attachments  []struct {
			FileName string `json:"file_name"`
			MimeType string `json:"mime_type"`
			Data     []byte `json:"data"`
		} `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	opts := service.SendOptions{
		WebSearch:    req.WebSearch,
		SystemPrompt: req.SystemPrompt,
	}
	for _, a := range req.Attachments {
		opts.Attachments = append(opts.Attachments, attachment.Input{
			FileName: a.FileName,
			MimeType: a.MimeType,
			Data:     a.Data,
		})
	}

	send, err := h.dispatcher.Submit(c.Request.Context(), c.Param("id"), req.Content, opts)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent), errors.Is(err, service.ErrContentTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrChatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		default:
			h.logger.Error("submit failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue message"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"send": send})
}

// QueueStatus maneja GET /queue/status.
func (h *ChatHandler) QueueStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.dispatcher.Status())
}
