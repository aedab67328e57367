package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"chat-llm/internal/domain"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
)

// ChatRepository define el acceso a conversaciones y sus mensajes. La lista
// de mensajes de un chat es append-only durante la sesión.
type ChatRepository interface {
	Create(ctx context.Context, chat domain.Chat) error
	GetByID(ctx context.Context, id string) (domain.Chat, error)
	List(ctx context.Context, skip, limit int) ([]domain.Chat, error)
	Rename(ctx context.Context, id, title string) error
	Deactivate(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, chatID string, msg domain.Message) error
	AttachFiles(ctx context.Context, chatID, messageID string, attachments []domain.Attachment) error
	ListMessages(ctx context.Context, chatID string) ([]domain.Message, error)
}

// MemoryChatRepository guarda el historial en memoria; el servicio no
// persiste conversaciones.
type MemoryChatRepository struct {
	mu    sync.Mutex
	chats map[string]*chatRecord
}

type chatRecord struct {
	chat     domain.Chat
	messages []domain.Message
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{chats: make(map[string]*chatRecord)}
}

func (r *MemoryChatRepository) Create(_ context.Context, chat domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[chat.ID] = &chatRecord{chat: chat}
	return nil
}

func (r *MemoryChatRepository) GetByID(_ context.Context, id string) (domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.chats[id]
	if !ok || !rec.chat.Active {
		return domain.Chat{}, ErrChatNotFound
	}
	chat := rec.chat
	chat.Messages = copyMessages(rec.messages)
	return chat, nil
}

func (r *MemoryChatRepository) List(_ context.Context, skip, limit int) ([]domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chats := make([]domain.Chat, 0, len(r.chats))
	for _, rec := range r.chats {
		if rec.chat.Active {
			chats = append(chats, rec.chat)
		}
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})

	if skip < 0 {
		skip = 0
	}
	if skip >= len(chats) {
		return []domain.Chat{}, nil
	}
	chats = chats[skip:]
	if limit > 0 && limit < len(chats) {
		chats = chats[:limit]
	}
	return chats, nil
}

func (r *MemoryChatRepository) Rename(_ context.Context, id, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.chats[id]
	if !ok || !rec.chat.Active {
		return ErrChatNotFound
	}
	rec.chat.Title = title
	rec.chat.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryChatRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.chats[id]
	if !ok || !rec.chat.Active {
		return ErrChatNotFound
	}
	rec.chat.Active = false
	rec.chat.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryChatRepository) AppendMessage(_ context.Context, chatID string, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.chats[chatID]
	if !ok || !rec.chat.Active {
		return ErrChatNotFound
	}
	rec.messages = append(rec.messages, msg)
	rec.chat.UpdatedAt = time.Now().UTC()
	return nil
}

// AttachFiles enlaza adjuntos ya validados a un mensaje existente; no
// modifica el contenido del mensaje.
func (r *MemoryChatRepository) AttachFiles(_ context.Context, chatID, messageID string, attachments []domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.chats[chatID]
	if !ok || !rec.chat.Active {
		return ErrChatNotFound
	}
	for i := range rec.messages {
		if rec.messages[i].ID == messageID {
			for _, att := range attachments {
				att.MessageID = messageID
				rec.messages[i].Attachments = append(rec.messages[i].Attachments, att)
			}
			return nil
		}
	}
	return ErrMessageNotFound
}

func (r *MemoryChatRepository) ListMessages(_ context.Context, chatID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.chats[chatID]
	if !ok || !rec.chat.Active {
		return nil, ErrChatNotFound
	}
	return copyMessages(rec.messages), nil
}

func copyMessages(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	copy(out, messages)
	return out
}
