package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"spandi-backend/internal/config"
	"spandi-backend/internal/conversation"
	"spandi-backend/internal/database"
	"spandi-backend/internal/flows"
	"spandi-backend/internal/handlers"
	"spandi-backend/internal/llm"
	"spandi-backend/internal/logger"
	"spandi-backend/internal/middleware"
	"spandi-backend/internal/router"
	"spandi-backend/internal/services"
	"spandi-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log := logger.New(cfg.Debug, cfg.IsProduction())
	defer log.Sync()

	log.Info("🚀 Starting Spandi Bot backend...")
	log.Info("✓ Environment variables loaded", zap.String("env", cfg.Env), zap.String("provider", cfg.Provider))

	ctx := context.Background()

	// ──── Step 2: Initialize Model Provider ────
	provider, closeProvider, err := newProvider(ctx, cfg, log)
	if err != nil {
		log.Fatal("✗ Model provider initialization failed", zap.Error(err))
	}
	defer closeProvider()

	var (
		chat    flows.Runner[flows.ChatInput, flows.ChatReply]
		readers services.ReadingRunners
	)
	if provider != nil {
		set := flows.NewSet(provider, log)
		chat = set.Chat
		readers = services.ReadingRunnersFromSet(set)
		log.Info("✓ Model provider initialized", zap.String("provider", provider.Name()))
	} else {
		log.Warn("✗ No API key for provider, serving the error view", zap.String("provider", cfg.Provider))
	}

	// ──── Step 3: Initialize Session Store ────
	var (
		store     conversation.Store
		pubsubRDB *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("✗ Redis connection failed", zap.Error(err))
		}
		defer redisClients.Close()
		store = conversation.NewRedisStore(redisClients.Store, cfg.SessionTTL)
		pubsubRDB = redisClients.PubSub
		log.Info("✓ Redis connected")
	} else {
		store = conversation.NewMemoryStore(cfg.SessionTTL)
		log.Info("✓ In-memory session store ready")
	}

	// ──── Step 4: Initialize Session Tokens ────
	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
		log.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	sessionAuth := middleware.NewSessionAuth(secret, cfg.SessionTTL)

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(pubsubRDB, sessionAuth, log)
	defer wsHub.Close()
	log.Info("✓ WebSocket hub started")

	// ──── Initialize Services & Handlers ────
	chatService := services.NewChatService(store, chat, wsHub, sessionAuth, cfg.FlowTimeout, log)
	readingService := services.NewReadingService(readers, cfg.FlowTimeout)

	statusHandler := handlers.NewStatusHandler(provider != nil, cfg.Provider)
	chatHandler := handlers.NewChatHandler(chatService)
	readingHandler := handlers.NewReadingHandler(readingService)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		statusHandler,
		chatHandler,
		readingHandler,
		wsHub.HandleWebSocket,
		cfg.FrontendURL,
		log,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FlowTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info(fmt.Sprintf("✓ Spandi Bot backend ready on http://localhost:%s", cfg.Port))
	log.Info(fmt.Sprintf("  API: http://localhost:%s/api/v1", cfg.Port))
	log.Info(fmt.Sprintf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("Server error", zap.Error(err))
	}
}

// newProvider returns nil without error when the selected provider has no
// API key.
func newProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (llm.Provider, func(), error) {
	noop := func() {}
	if !cfg.Ready() {
		return nil, noop, nil
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.ModelTemperature), noop, nil
	case config.ProviderGemini:
		p, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ModelTemperature, log)
		if err != nil {
			return nil, noop, err
		}
		return p, func() { p.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
