package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID          string           `json:"id"`
	ChatID      string           `json:"chat_id"`
	Role        string           `json:"role"`
	Content     string           `json:"content"`
	Attachments []Attachment     `json:"attachments,omitempty"`
	Metadata    *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MessageMetadata acompaña a los mensajes del asistente con datos de la generación.
type MessageMetadata struct {
	Model        string   `json:"model,omitempty"`
	StopReason   string   `json:"stop_reason,omitempty"`
	WebSearch    bool     `json:"web_search"`
	Sources      []string `json:"sources,omitempty"`
	ProcessingMS int64    `json:"processing_ms,omitempty"`
}
