package domain

import "time"

const (
	NotificationSuccess = "success"
	NotificationError   = "error"
	NotificationInfo    = "info"
	NotificationWarning = "warning"
)

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
