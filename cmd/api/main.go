package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chat-llm/internal/attachment"
	"chat-llm/internal/config"
	apihttp "chat-llm/internal/http"
	"chat-llm/internal/llm"
	"chat-llm/internal/notify"
	"chat-llm/internal/repository"
	"chat-llm/internal/search"
	"chat-llm/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
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
	resultCache := search.NewMemoryResultCache(cacheTTL)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			resultCache = search.NewRedisResultCache(redisClient, cacheTTL)
		}
		cancel()
	}
	searchClient := search.NewDuckDuckGoClient(cfg.SearchBaseURL, nil)
	searchSvc := search.NewService(searchClient, resultCache, cfg.SearchMaxResults, logger)

	store, err := attachment.NewStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("upload dir init", zap.Error(err))
	}
	ingestor := attachment.NewIngestor(store, cfg.MaxUploadSize, logger)

	contextSvc := service.NewWindowContextService(chatRepo, 10)
	dispatcher := service.NewDispatcher(logger, chatRepo, llmClient, contextSvc, searchSvc, ingestor, notifier, cfg.MaxMessageLength)

	chatHandler := apihttp.NewChatHandler(logger, chatRepo, dispatcher)
	attachmentHandler := apihttp.NewAttachmentHandler(logger, ingestor)
	notificationHandler := apihttp.NewNotificationHandler(logger, notifier)
	router := apihttp.NewRouter(logger, chatHandler, attachmentHandler, notificationHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
