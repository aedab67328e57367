package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-llm/internal/attachment"
)

// AttachmentHandler expone la ingesta directa de archivos adjuntos.
type AttachmentHandler struct {
	logger   *zap.Logger
	ingestor *attachment.Ingestor
}

func NewAttachmentHandler(logger *zap.Logger, ingestor *attachment.Ingestor) *AttachmentHandler {
	return &AttachmentHandler{logger: logger, ingestor: ingestor}
}

// Upload maneja POST /chats/:id/attachments (multipart, campo "file").
func (h *AttachmentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("read upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read file"})
		return
	}

	att, err := h.ingestor.Ingest(c.Request.Context(), c.Param("id"), attachment.Input{
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		switch {
		case errors.Is(err, attachment.ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		case errors.Is(err, attachment.ErrUnsupportedType), errors.Is(err, attachment.ErrCorruptFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("ingest failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process file"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"attachment": att})
}

// Release maneja DELETE /attachments/:id; liberar dos veces es no-op.
func (h *AttachmentHandler) Release(c *gin.Context) {
	if err := h.ingestor.Release(c.Param("id")); err != nil {
		h.logger.Error("release failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not release attachment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
