package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"adscope/adapters/dataset"
	"adscope/adapters/llm"
	"adscope/adapters/memory"
	"adscope/adapters/postgres"
	"adscope/ai"
	"adscope/app"
	"adscope/internal/api"
	"adscope/internal/config"
	"adscope/internal/retry"
	"adscope/models"
	"adscope/ports"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx, appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize run store: %v", err)
	}
	defer cleanup()

	aiConfig := &models.AIConfig{
		OpenAIKey:     appConfig.AI.OpenAIKey,
		OpenAIModel:   appConfig.AI.OpenAIModel,
		SystemContext: appConfig.AI.SystemContext,
		MaxTokens:     appConfig.AI.MaxTokens,
		PromptsDir:    appConfig.AI.PromptsDir,
	}
	client, err := llm.NewClient(aiConfig)
	if err != nil {
		log.Fatalf("Failed to create model client: %v", err)
	}
	invoker := ai.NewInvoker(client, aiConfig)

	summarizer := &dataset.Summarizer{
		Path:            appConfig.Data.DatasetPath,
		SampleMode:      appConfig.Data.SampleMode,
		SampleSize:      appConfig.Data.SampleSize,
		LowCTRThreshold: appConfig.Data.LowCTRThreshold,
	}

	orchestrator := app.NewOrchestrator(invoker, summarizer,
		retry.Policy{
			MaxAttempts: appConfig.Retry.MaxAttempts,
			BaseDelay:   appConfig.Retry.BaseDelay,
			MaxDelay:    appConfig.Retry.MaxDelay,
			Multiplier:  appConfig.Retry.Multiplier,
		},
		app.Thresholds{
			Hypothesis: appConfig.Filter.HypothesisThreshold,
			Validation: appConfig.Filter.ValidationThreshold,
		})

	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewServer(orchestrator, store).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[API] listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[API] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] shutdown error: %v", err)
	}
}

// buildStore prefers postgres when DATABASE_URL is set, falling back to
// the in-memory store otherwise.
func buildStore(ctx context.Context, appConfig *config.Config) (ports.RunStore, func(), error) {
	if appConfig.Database.URL == "" {
		log.Println("[API] DATABASE_URL not set, using in-memory run store")
		return memory.NewRunStore(), func() {}, nil
	}

	db, err := postgres.Connect(appConfig.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewRunRepository(db), func() { db.Close() }, nil
}
