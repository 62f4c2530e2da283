package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/swenlabs/newswire/internal/config"
	"github.com/swenlabs/newswire/internal/database"
	"github.com/swenlabs/newswire/internal/enrich"
	"github.com/swenlabs/newswire/internal/feed"
	"github.com/swenlabs/newswire/internal/logging"
	"github.com/swenlabs/newswire/internal/media"
	"github.com/swenlabs/newswire/internal/news"
	"github.com/swenlabs/newswire/internal/pipeline"
	"github.com/swenlabs/newswire/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newswire",
	Short:   "AI-enriched news ingestion",
	Long:    "Newswire ingests raw news items, enriches them with an AI provider, resolves related media, and serves the results.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = gotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "DEBUG"
		}
		logging.Init(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(ingestFeedCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newswire", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newswire/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to choose an enrichment provider and set API key variables.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		total, err := db.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting records: %w", err)
		}

		fmt.Printf("Database: %s\n", db.Path())
		fmt.Printf("Records:  %d\n", total)
		fmt.Printf("Provider: %s\n", cfg.Enrichment.Provider)
		return nil
	},
}

// --- ingest command ---

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest one raw news item from a JSON file or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		var reader io.Reader = os.Stdin
		if ingestFile != "" {
			f, err := os.Open(ingestFile)
			if err != nil {
				return err
			}
			defer f.Close()
			reader = f
		}

		var raw news.RawInput
		if err := json.NewDecoder(reader).Decode(&raw); err != nil {
			return fmt.Errorf("decoding input: %w", err)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := buildPipeline(cmd.Context(), db)
		if err != nil {
			return err
		}

		rec, err := pipe.Ingest(cmd.Context(), raw)
		if err != nil {
			return err
		}

		fmt.Printf("Ingested: %s\n", rec.ID)
		fmt.Printf("  Summary:   %s\n", truncateLine(rec.Summary, 100))
		fmt.Printf("  Tags:      %v\n", rec.Tags)
		fmt.Printf("  Relevance: %.2f\n", rec.RelevanceScore)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "JSON file to ingest (default: stdin)")
}

// --- ingest-feed command ---

var (
	feedLimit    int
	feedFullText bool
)

var ingestFeedCmd = &cobra.Command{
	Use:   "ingest-feed [url]",
	Short: "Ingest entries from an RSS/Atom feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := buildPipeline(cmd.Context(), db)
		if err != nil {
			return err
		}

		puller := feed.NewPuller(feed.Options{
			Limit:         feedLimit,
			FetchFullText: feedFullText,
		})

		inputs, err := puller.Pull(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("pulling feed: %w", err)
		}
		fmt.Printf("Feed yielded %d entries\n", len(inputs))

		ingested, failed := 0, 0
		for _, raw := range inputs {
			rec, err := pipe.Ingest(cmd.Context(), raw)
			if err != nil {
				failed++
				fmt.Printf("  skipped %q: %v\n", truncateLine(raw.Title, 60), err)
				continue
			}
			ingested++
			fmt.Printf("  ingested %s\n", rec.ID)
		}

		fmt.Printf("\nDone: %d ingested, %d failed\n", ingested, failed)
		return nil
	},
}

func init() {
	ingestFeedCmd.Flags().IntVar(&feedLimit, "limit", 20, "Maximum entries to take from the feed")
	ingestFeedCmd.Flags().BoolVar(&feedFullText, "full-text", true, "Fetch full article text for thin entries")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, err := buildPipeline(cmd.Context(), db)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, pipe, port, version)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.GetDBPath())
}

// buildPipeline wires the configured enricher and media finder into a pipeline.
func buildPipeline(ctx context.Context, db *database.DB) (*pipeline.Pipeline, error) {
	var base enrich.Enricher
	switch cfg.Enrichment.Provider {
	case "", "mock":
		base = enrich.NewMock()
	case "gemini":
		apiKey := os.Getenv(cfg.Enrichment.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("enrichment provider %q requires %s to be set", cfg.Enrichment.Provider, cfg.Enrichment.APIKeyEnv)
		}
		g, err := enrich.NewGemini(ctx, enrich.GeminiConfig{
			APIKey: apiKey,
			Model:  cfg.Enrichment.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating gemini client: %w", err)
		}
		base = g
	default:
		return nil, fmt.Errorf("unknown enrichment provider: %s", cfg.Enrichment.Provider)
	}

	enricher := enrich.NewRetrier(base, enrich.RetryOptions{
		MaxAttempts:    cfg.Enrichment.MaxAttempts,
		RequestTimeout: time.Duration(cfg.Enrichment.TimeoutSeconds) * time.Second,
		RateLimitRPS:   cfg.Enrichment.RateLimitRPS,
	})

	finder := media.NewBrave(media.BraveConfig{
		APIKey:        os.Getenv(cfg.Media.APIKeyEnv),
		ImageEndpoint: cfg.Media.ImageEndpoint,
		VideoEndpoint: cfg.Media.VideoEndpoint,
		ResultCount:   cfg.Media.ResultCount,
		MaxConcurrent: cfg.Media.MaxConcurrent,
	})

	return pipeline.New(enricher, finder, db, pipeline.Options{
		MediaTimeout: time.Duration(cfg.Media.TimeoutSeconds) * time.Second,
		SlugAttempts: cfg.Pipeline.SlugAttempts,
	}), nil
}

func truncateLine(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
