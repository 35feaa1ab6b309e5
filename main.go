package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"adscope/adapters/dataset"
	"adscope/adapters/llm"
	"adscope/adapters/postgres"
	"adscope/ai"
	"adscope/app"
	"adscope/domain/analysis"
	"adscope/internal/config"
	"adscope/internal/retry"
	"adscope/models"
)

const defaultQuery = "Why did our ROAS decline over the period, and which campaigns need new creative?"

func main() {
	query := flag.String("query", defaultQuery, "analysis question to answer")
	dataPath := flag.String("data", "", "dataset path (overrides DATASET_PATH)")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dataPath != "" {
		appConfig.Data.DatasetPath = *dataPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := buildOrchestrator(appConfig)

	run, runErr := orchestrator.Run(ctx, *query)
	if run != nil {
		persistRun(ctx, appConfig, run)
		if run.State != analysis.StateHalted {
			writer := app.NewReportWriter(appConfig.Output.ReportsDir)
			dir, err := writer.Write(run)
			if err != nil {
				log.Printf("Failed to write report artifacts: %v", err)
			} else {
				fmt.Printf("Report artifacts: %s\n", dir)
			}
		}
		printSummary(run)
	}
	if runErr != nil {
		log.Fatalf("Run failed: %v", runErr)
	}
}

// buildOrchestrator wires the pipeline from configuration.
func buildOrchestrator(appConfig *config.Config) *app.Orchestrator {
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

	policy := retry.Policy{
		MaxAttempts: appConfig.Retry.MaxAttempts,
		BaseDelay:   appConfig.Retry.BaseDelay,
		MaxDelay:    appConfig.Retry.MaxDelay,
		Multiplier:  appConfig.Retry.Multiplier,
	}
	thresholds := app.Thresholds{
		Hypothesis: appConfig.Filter.HypothesisThreshold,
		Validation: appConfig.Filter.ValidationThreshold,
	}

	return app.NewOrchestrator(invoker, summarizer, policy, thresholds)
}

// persistRun stores the run in postgres when DATABASE_URL is configured.
func persistRun(ctx context.Context, appConfig *config.Config, run *analysis.Context) {
	if appConfig.Database.URL == "" {
		return
	}
	db, err := postgres.Connect(appConfig.Database.URL)
	if err != nil {
		log.Printf("Skipping run persistence: %v", err)
		return
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Printf("Skipping run persistence: %v", err)
		return
	}
	if err := postgres.NewRunRepository(db).SaveRun(ctx, run); err != nil {
		log.Printf("Failed to persist run: %v", err)
	}
}

func printSummary(run *analysis.Context) {
	fmt.Printf("\nRun %s: %s\n", run.RunID, run.State)
	if run.State == analysis.StateHalted {
		fmt.Printf("Halted: %s\n", run.HaltReason)
		return
	}
	fmt.Printf("Hypotheses: %d generated, %d actionable findings\n", len(run.Hypotheses), len(run.Findings))
	for _, f := range run.Findings {
		fmt.Printf("  - %s [%s, confidence %.2f]\n", f.HypothesisTitle, f.Status, f.Confidence)
	}
	fmt.Printf("Creative recommendations: %d\n", len(run.Recommendations))
	for _, rec := range run.Recommendations {
		fmt.Printf("  - %s: %q (%s)\n", rec.Campaign, rec.Headline, rec.PredictedLift)
	}
	fmt.Printf("Trace: %d attempts recorded\n", run.Trace.Len())
}
