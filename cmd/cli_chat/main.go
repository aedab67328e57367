package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chat-llm/internal/config"
	"chat-llm/internal/domain"
	"chat-llm/internal/llm"
	"chat-llm/internal/notify"
	"chat-llm/internal/repository"
	"chat-llm/internal/search"
	"chat-llm/internal/service"
)

// Chat interactivo por terminal contra el dispatcher, sin levantar el server.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	chatRepo := repository.NewMemoryChatRepository()
	notifier := notify.NewNotifier()

	llmClient := llm.NewHTTPClient(
		cfg.LLMBaseURL,
		cfg.LLMAPIKey,
		cfg.LLMModel,
		cfg.LLMTemperature,
		cfg.LLMMaxTokens,
		cfg.LLMTopP,
		logger,
	)

	cacheTTL := time.Duration(cfg.SearchCacheMinutes) * time.Minute
	searchClient := search.NewDuckDuckGoClient(cfg.SearchBaseURL, nil)
	searchSvc := search.NewService(searchClient, search.NewMemoryResultCache(cacheTTL), cfg.SearchMaxResults, logger)

	contextSvc := service.NewWindowContextService(chatRepo, 10)
	dispatcher := service.NewDispatcher(logger, chatRepo, llmClient, contextSvc, searchSvc, nil, notifier, cfg.MaxMessageLength)

	now := time.Now().UTC()
	chat := domain.Chat{
		ID:        uuid.NewString(),
		Title:     "Sesión CLI",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := chatRepo.Create(ctx, chat); err != nil {
		log.Fatal(err)
	}

	fmt.Println("===== Chat CLI =====")
	fmt.Println("Escribe tu mensaje; prefija con /buscar para plegar búsqueda web; /salir termina.")

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "/salir") {
			return
		}

		opts := service.SendOptions{}
		if rest, ok := strings.CutPrefix(line, "/buscar "); ok {
			opts.WebSearch = true
			line = rest
		}

		if _, err := dispatcher.Submit(ctx, chat.ID, line, opts); err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if err := dispatcher.WaitIdle(ctx); err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		messages, err := chatRepo.ListMessages(ctx, chat.ID)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if len(messages) > 0 {
			last := messages[len(messages)-1]
			if last.Role == domain.RoleAssistant {
				fmt.Printf("assistant: %s\n", last.Content)
				continue
			}
		}
		for _, n := range notifier.List() {
			if n.Type == domain.NotificationError {
				fmt.Printf("error: %s\n", n.Message)
				notifier.Dismiss(n.ID)
			}
		}
	}
}
