package domain

import "time"

const (
	AttachmentKindImage    = "image"
	AttachmentKindDocument = "document"
	AttachmentKindAudio    = "audio"
)

// Estados del ciclo de vida de un adjunto. Solo un adjunto "ready" puede
// terminar enlazado a un mensaje.
const (
	AttachmentStatusUploading  = "uploading"
	AttachmentStatusProcessing = "processing"
	AttachmentStatusReady      = "ready"
	AttachmentStatusError      = "error"
)

type Attachment struct {
	ID            string    `json:"id"`
	MessageID     string    `json:"message_id,omitempty"`
	Kind          string    `json:"kind"`
	FileName      string    `json:"file_name"`
	FilePath      string    `json:"file_path"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	Size          int64     `json:"size"`
	MimeType      string    `json:"mime_type"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
