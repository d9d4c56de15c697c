package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"rubricon/internal/config"
	"rubricon/internal/corpus"
	"rubricon/internal/enhance"
	"rubricon/internal/logging"
	"rubricon/internal/promptgen"
	"rubricon/internal/rubric"
	"rubricon/internal/server"
	"rubricon/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:   "rubricon",
		Short: "Rubric analysis and assessment prompt generation",
	}
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
}

// initPipeline loads config and wires the analyzer with its corpus library
// and optional enhancement client.
func initPipeline(ctx context.Context) (*config.Config, *rubric.Analyzer, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, nil, nil, err
	}

	library := corpus.NewLibrary(corpus.NewFSSource(cfg.Corpus.Paths, logger), logger)

	enhancer, err := enhance.New(ctx, enhance.Options{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		Endpoint: cfg.AI.Endpoint,
		Timeout:  cfg.AITimeout(),
	}, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to configure enhancement: %w", err)
	}
	if enhancer == nil {
		fmt.Println("ℹ️  No AI API key configured, running pattern-based analysis only.")
	}

	return cfg, rubric.NewAnalyzer(library, enhancer, logger), logger, nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a rubric file and print the extracted criteria as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		_, analyzer, _, err := initPipeline(ctx)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read input file: %v", err)
		}

		fmt.Printf("🔍 Analyzing %s...\n", args[0])
		result, err := analyzer.Analyze(ctx, rubric.Input{Text: string(raw)})
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode result: %v", err)
		}
		fmt.Println(string(out))
		fmt.Printf("✅ Extracted %d sections, %d total points.\n", len(result.Sections), result.TotalPoints)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Analyze a rubric file and print the assessment prompt YAML",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		_, analyzer, _, err := initPipeline(ctx)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read input file: %v", err)
		}

		result, err := analyzer.Analyze(ctx, rubric.Input{Text: string(raw)})
		if err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}

		fmt.Print(promptgen.Render(result.Criteria()))
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, analyzer, logger, err := initPipeline(ctx)
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}

		store, err := storage.NewSQLiteStore(cfg.Server.DBPath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		srv := server.New(analyzer, store, logger)

		fmt.Printf("🚀 Listening on %s (database: %s)\n", cfg.Server.Addr, cfg.Server.DBPath)
		if err := http.ListenAndServe(cfg.Server.Addr, srv.Handler()); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	},
}
