// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/appbuilder/internal/config"
	"github.com/capitalize-ai/appbuilder/internal/handler"
	"github.com/capitalize-ai/appbuilder/internal/llm"
	natsclient "github.com/capitalize-ai/appbuilder/internal/nats"
	"github.com/capitalize-ai/appbuilder/internal/service"
	"github.com/capitalize-ai/appbuilder/internal/store"
	"github.com/capitalize-ai/appbuilder/pkg/logger"
	"github.com/capitalize-ai/appbuilder/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "appbuilder-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	// Events are optional
	var (
		natsClient *natsclient.Client
		publisher  service.EventPublisher = service.NopPublisher{}
	)
	if cfg.NATSURL != "" {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		events := natsclient.NewEventPublisher(natsClient, log)
		if err := events.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		publisher = events
	} else {
		log.Info("NATS_URL not set, event publishing disabled")
	}

	llmClient, err := llm.NewClient(llm.Provider(cfg.LLMProvider), cfg.LLMAPIKey())
	if err != nil {
		log.Fatal("failed to create LLM client", zap.String("provider", cfg.LLMProvider), zap.Error(err))
	}
	generator := llm.NewRetryingGenerator(llmClient, cfg.LLMModel,
		llm.WithMaxAttempts(cfg.LLMMaxAttempts),
		llm.WithBaseDelay(cfg.LLMRetryBaseDelay),
		llm.WithMaxTokens(cfg.LLMMaxTokens),
		llm.WithLogger(log),
	)

	conversationSvc := service.NewConversationService(st, publisher, log)
	generationSvc := service.NewGenerationService(conversationSvc, generator, publisher, log)

	router := handler.NewRouter(handler.RouterConfig{
		Logger:            log,
		JWTSecret:         cfg.JWTSecret,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		Health:            handler.NewHealthHandler(st, natsClient, log),
		Conversations:     handler.NewConversationHandler(conversationSvc, log),
		Messages:          handler.NewMessageHandler(conversationSvc, log),
		Generate:          handler.NewGenerateHandler(generationSvc, log),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening",
			zap.String("port", cfg.ServerPort),
			zap.String("llm_provider", llmClient.Name()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// openStore connects to Postgres when DATABASE_URL is set and falls back to memory.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pg, err := store.NewPostgres(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.DBAutoMigrate {
		if err := pg.Migrate(connectCtx); err != nil {
			pg.Close()
			return nil, err
		}
		log.Info("database schema applied")
	}

	return pg, nil
}
