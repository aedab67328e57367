package service

import (
	"context"
	"fmt"

	"chat-llm/internal/domain"
	"chat-llm/internal/llm"
	"chat-llm/internal/repository"
)

// ContextService define contrato para armar el contexto conversacional
// que se envía al modelo.
type ContextService interface {
	BuildTurns(ctx context.Context, chatID string) ([]llm.Turn, error)
}

// WindowContextService toma los últimos mensajes del chat y los convierte
// en turnos con rol para el modelo.
type WindowContextService struct {
	chats  repository.ChatRepository
	window int
}

func NewWindowContextService(chats repository.ChatRepository, window int) *WindowContextService {
	if window <= 0 {
		window = 10
	}
	return &WindowContextService{chats: chats, window: window}
}

func (s *WindowContextService) BuildTurns(ctx context.Context, chatID string) ([]llm.Turn, error) {
	messages, err := s.chats.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if len(messages) > s.window {
		messages = messages[len(messages)-s.window:]
	}

	turns := make([]llm.Turn, 0, len(messages))
	for _, m := range messages {
		role := domain.RoleUser
		if m.Role == domain.RoleAssistant {
			role = domain.RoleAssistant
		}
		turns = append(turns, llm.Turn{Role: role, Content: m.Content})
	}
	return turns, nil
}
