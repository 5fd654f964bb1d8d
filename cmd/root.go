package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/mm-search-bot/internal"
	"github.com/huythanhnguyen/mm-search-bot/internal/client"
	"github.com/huythanhnguyen/mm-search-bot/internal/config"
	"github.com/huythanhnguyen/mm-search-bot/internal/metrics"
)

var (
	verbose     bool
	configPath  string
	apiBase     string
	storagePath string
	metricsFile string
	streaming   bool
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"

	// cfg is resolved before every command runs
	cfg = config.Default()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mm-search-bot",
	Short: "Terminal client for the MM product advisory assistant",
	Long: `A terminal client for the MM Mega Market product advisory assistant.

It talks to the multi-agent backend, renders product recommendations, and
keeps a local history of conversations.

Features:
  • Chat in one shot or interactively, with streaming or plain responses
  • Product cards with prices, discounts and links
  • Session history with smart names, tags, search and filters
  • Export history as JSON, JSONL, Markdown or YAML
  • Replay recorded backend responses for debugging

Quick Start:
  mm-search-bot chat "Giá thịt bò Úc hôm nay?"   # Ask one question
  mm-search-bot chat                            # Interactive chat
  mm-search-bot sessions list                   # Browse history
  mm-search-bot export --format md              # Export as Markdown`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		return loadConfig(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsFile == "" {
			return nil
		}
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		internal.LogDebug("Wrote metrics to %s", metricsFile)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig layers the config file, the environment and explicit flags.
// Without --config, a config.yaml next to the local database is used when
// present.
func loadConfig(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		if paths, err := internal.GetStoragePaths(storagePath); err == nil && paths.ConfigExists() {
			path = paths.ConfigPath
		}
	}

	c, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-base") {
		c.APIBase = apiBase
	}
	if flags.Changed("storage") {
		c.StoragePath = storagePath
	}
	if flags.Changed("streaming") {
		c.Streaming = streaming
	}
	cfg = c
	internal.LogDebug("Config: api=%s storage=%q streaming=%v", cfg.APIBase, cfg.StoragePath, cfg.Streaming)
	return nil
}

// openSessionStore opens the local database and the session list kept in it.
// The caller closes the returned storage.
func openSessionStore() (*internal.LocalStorage, *internal.SessionStore, error) {
	paths, err := internal.GetStoragePaths(cfg.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get storage paths: %w", err)
	}
	ls, err := internal.OpenLocalStorage(paths.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local storage: %w", err)
	}
	return ls, internal.NewSessionStore(ls), nil
}

func newClient() *client.Client {
	return client.New(
		client.WithBaseURL(cfg.APIBase),
		client.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		client.WithRetryPolicy(client.RetryPolicy{
			MaxAttempts: uint(cfg.Retry.MaxAttempts),
			Initial:     cfg.Retry.Initial,
			Max:         cfg.Retry.Max,
			Budget:      cfg.Retry.Budget,
		}),
	)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiBase, "api-base", "", "Backend base URL (default http://localhost:8000)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom storage location (path to database file or storage directory)")
	rootCmd.PersistentFlags().BoolVar(&streaming, "streaming", false, "Request streamed (SSE) responses")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
