package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"chat-llm/internal/domain"
)

// Notifier mantiene la lista de notificaciones visibles para el usuario.
// Cada evento se agrega al final y se descarta individualmente por id.
type Notifier struct {
	mu    sync.Mutex
	items []domain.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Push agrega una notificación y la devuelve con id y timestamp asignados.
func (n *Notifier) Push(kind, message string) domain.Notification {
	notification := domain.Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	n.mu.Lock()
	n.items = append(n.items, notification)
	n.mu.Unlock()
	return notification
}

func (n *Notifier) Success(message string) domain.Notification {
	return n.Push(domain.NotificationSuccess, message)
}

func (n *Notifier) Error(message string) domain.Notification {
	return n.Push(domain.NotificationError, message)
}

func (n *Notifier) Info(message string) domain.Notification {
	return n.Push(domain.NotificationInfo, message)
}

func (n *Notifier) Warning(message string) domain.Notification {
	return n.Push(domain.NotificationWarning, message)
}

// Dismiss elimina la notificación con el id dado; devuelve si existía.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

// List devuelve una copia de las notificaciones vigentes en orden de llegada.
func (n *Notifier) List() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.Notification, len(n.items))
	copy(out, n.items)
	return out
}
