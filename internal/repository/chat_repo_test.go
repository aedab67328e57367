package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat-llm/internal/domain"
)

func newChat(id, title string, updated time.Time) domain.Chat {
	return domain.Chat{
		ID:        id,
		Title:     title,
		Active:    true,
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestMemoryChatRepositoryCRUD(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newChat("c1", "Primera", time.Now())); err != nil {
		t.Fatalf("create: %v", err)
	}

	chat, err := repo.GetByID(ctx, "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if chat.Title != "Primera" || !chat.Active {
		t.Fatalf("unexpected chat: %+v", chat)
	}

	if err := repo.Rename(ctx, "c1", "Renombrada"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	chat, _ = repo.GetByID(ctx, "c1")
	if chat.Title != "Renombrada" {
		t.Fatalf("expected renamed title, got %q", chat.Title)
	}

	if _, err := repo.GetByID(ctx, "inexistente"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestMemoryChatRepositoryDeactivateHidesChat(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, newChat("c1", "Uno", time.Now()))
	if err := repo.Deactivate(ctx, "c1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := repo.GetByID(ctx, "c1"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected deactivated chat to be hidden, got %v", err)
	}
	if err := repo.Deactivate(ctx, "c1"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected second deactivate to fail, got %v", err)
	}
	if err := repo.AppendMessage(ctx, "c1", domain.Message{ID: "m1"}); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected append on deactivated chat to fail, got %v", err)
	}
}

func TestMemoryChatRepositoryListOrderAndPagination(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	base := time.Now().UTC()
	_ = repo.Create(ctx, newChat("c1", "Vieja", base.Add(-2*time.Hour)))
	_ = repo.Create(ctx, newChat("c2", "Media", base.Add(-time.Hour)))
	_ = repo.Create(ctx, newChat("c3", "Nueva", base))
	_ = repo.Create(ctx, newChat("c4", "Inactiva", base))
	_ = repo.Deactivate(ctx, "c4")

	chats, err := repo.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chats) != 3 {
		t.Fatalf("expected 3 active chats, got %d", len(chats))
	}
	if chats[0].ID != "c3" || chats[1].ID != "c2" || chats[2].ID != "c1" {
		t.Fatalf("expected newest-first order, got %v", []string{chats[0].ID, chats[1].ID, chats[2].ID})
	}

	page, err := repo.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "c2" {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, err := repo.List(ctx, 10, 5)
	if err != nil {
		t.Fatalf("list beyond: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}

func TestMemoryChatRepositoryMessages(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, newChat("c1", "Uno", time.Now()))
	_ = repo.AppendMessage(ctx, "c1", domain.Message{ID: "m1", Role: domain.RoleUser, Content: "hola"})
	_ = repo.AppendMessage(ctx, "c1", domain.Message{ID: "m2", Role: domain.RoleAssistant, Content: "buenas"})

	msgs, err := repo.ListMessages(ctx, "c1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Fatalf("expected append order preserved, got %+v", msgs)
	}

	// La copia devuelta no debe exponer el estado interno.
	msgs[0].Content = "mutado"
	again, _ := repo.ListMessages(ctx, "c1")
	if again[0].Content != "hola" {
		t.Fatalf("expected internal state untouched, got %q", again[0].Content)
	}
}

func TestMemoryChatRepositoryAttachFiles(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	_ = repo.Create(ctx, newChat("c1", "Uno", time.Now()))
	_ = repo.AppendMessage(ctx, "c1", domain.Message{ID: "m1", Role: domain.RoleUser, Content: "mira esto"})

	atts := []domain.Attachment{{ID: "a1", Kind: domain.AttachmentKindImage, Status: domain.AttachmentStatusReady}}
	if err := repo.AttachFiles(ctx, "c1", "m1", atts); err != nil {
		t.Fatalf("attach: %v", err)
	}

	msgs, _ := repo.ListMessages(ctx, "c1")
	if len(msgs[0].Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(msgs[0].Attachments))
	}
	if msgs[0].Attachments[0].MessageID != "m1" {
		t.Fatalf("expected attachment linked to message, got %q", msgs[0].Attachments[0].MessageID)
	}

	if err := repo.AttachFiles(ctx, "c1", "inexistente", atts); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}
