package attachment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-llm/internal/domain"
	"chat-llm/internal/metrics"
)

// Input es un archivo crudo entregado por el usuario, aún sin validar.
type Input struct {
	FileName string
	MimeType string
	Data     []byte
}

// allowedTypes mapea los media types declarados admitidos a su familia.
var allowedTypes = map[string]string{
	"image/jpeg":         domain.AttachmentKindImage,
	"image/png":          domain.AttachmentKindImage,
	"image/gif":          domain.AttachmentKindImage,
	"image/webp":         domain.AttachmentKindImage,
	"application/pdf":    domain.AttachmentKindDocument,
	"application/msword": domain.AttachmentKindDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.AttachmentKindDocument,
	"text/plain": domain.AttachmentKindDocument,
}

// signatures son los magic numbers conocidos por media type.
var signatures = []struct {
	prefix []byte
	mime   string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
	{[]byte("GIF8"), "image/gif"},
	{[]byte("%PDF"), "application/pdf"},
}

// Ingestor valida, almacena y deriva miniaturas de archivos adjuntos.
type Ingestor struct {
	store   *Store
	maxSize int64
	logger  *zap.Logger

	mu      sync.Mutex
	handles map[string]*Handle
}

func NewIngestor(store *Store, maxSize int64, logger *zap.Logger) *Ingestor {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &Ingestor{
		store:   store,
		maxSize: maxSize,
		logger:  logger,
		handles: make(map[string]*Handle),
	}
}

// Ingest corre la validación en orden (tamaño, tipo declarado, firma de
// contenido) y corta en el primer fallo. Solo un adjunto completamente
// validado llega a "ready".
func (ing *Ingestor) Ingest(ctx context.Context, chatID string, in Input) (domain.Attachment, error) {
	att := domain.Attachment{
		ID:        uuid.NewString(),
		FileName:  in.FileName,
		MimeType:  in.MimeType,
		Size:      int64(len(in.Data)),
		Status:    domain.AttachmentStatusUploading,
		CreatedAt: time.Now().UTC(),
	}

	kind, err := ing.validate(in)
	if err != nil {
		metrics.AttachmentsIngested.WithLabelValues(outcomeLabel(err)).Inc()
		att.Status = domain.AttachmentStatusError
		return att, err
	}
	att.Kind = kind
	att.Status = domain.AttachmentStatusProcessing

	if err := ctx.Err(); err != nil {
		att.Status = domain.AttachmentStatusError
		return att, err
	}

	filePath, err := ing.store.Save(chatID, in.FileName, in.Data)
	if err != nil {
		metrics.AttachmentsIngested.WithLabelValues("store_error").Inc()
		att.Status = domain.AttachmentStatusError
		return att, fmt.Errorf("%w: %v", ErrProcessing, err)
	}
	att.FilePath = filePath
	paths := []string{filePath}

	if kind == domain.AttachmentKindImage {
		thumb, err := buildThumbnail(in.Data, in.MimeType)
		if err != nil {
			_ = ing.store.Remove(filePath)
			metrics.AttachmentsIngested.WithLabelValues("processing_error").Inc()
			att.Status = domain.AttachmentStatusError
			return att, err
		}
		thumbPath, err := ing.store.SaveThumbnail(filePath, thumb)
		if err != nil {
			_ = ing.store.Remove(filePath)
			metrics.AttachmentsIngested.WithLabelValues("store_error").Inc()
			att.Status = domain.AttachmentStatusError
			return att, fmt.Errorf("%w: %v", ErrProcessing, err)
		}
		att.ThumbnailPath = thumbPath
		paths = append(paths, thumbPath)
	}

	att.Status = domain.AttachmentStatusReady
	metrics.AttachmentsIngested.WithLabelValues("ok").Inc()

	ing.mu.Lock()
	ing.handles[att.ID] = newHandle(ing.store, paths...)
	ing.mu.Unlock()

	if ing.logger != nil {
		ing.logger.Info("attachment ingested",
			zap.String("attachment_id", att.ID),
			zap.String("kind", att.Kind),
			zap.Int64("size", att.Size),
		)
	}
	return att, nil
}

func (ing *Ingestor) validate(in Input) (string, error) {
	if in.Data == nil {
		in.Data = []byte{}
	}

	if int64(len(in.Data)) > ing.maxSize {
		return "", fmt.Errorf("%w: %d bytes (máximo %d)", ErrTooLarge, len(in.Data), ing.maxSize)
	}

	declared := strings.ToLower(strings.TrimSpace(in.MimeType))
	kind, ok := allowedTypes[declared]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, declared)
	}

	// La firma resuelve primero la familia real del contenido; un tipo
	// declarado que no pertenece a esa familia queda rechazado como no
	// soportado antes de evaluar corrupción.
	detected := detectSignature(in.Data)
	switch {
	case detected != "" && detected != declared:
		return "", fmt.Errorf("%w: declarado %s pero el contenido es %s", ErrUnsupportedType, declared, detected)
	case detected == "" && hasKnownSignature(declared):
		return "", fmt.Errorf("%w: la firma no coincide con %s", ErrCorruptFile, declared)
	case detected == "" && len(in.Data) == 0:
		return "", fmt.Errorf("%w: archivo vacío", ErrCorruptFile)
	}

	return kind, nil
}

// Release libera el locator del adjunto; es idempotente y desconocido es no-op.
func (ing *Ingestor) Release(attachmentID string) error {
	ing.mu.Lock()
	h := ing.handles[attachmentID]
	ing.mu.Unlock()
	return h.Release()
}

// Handle expone el locator de un adjunto ya ingerido.
func (ing *Ingestor) Handle(attachmentID string) *Handle {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	return ing.handles[attachmentID]
}

func detectSignature(data []byte) string {
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.prefix) {
			return sig.mime
		}
	}
	return ""
}

func hasKnownSignature(mime string) bool {
	for _, sig := range signatures {
		if sig.mime == mime {
			return true
		}
	}
	return false
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrCorruptFile):
		return "corrupt_file"
	default:
		return "error"
	}
}
