package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/profile"
	"github.com/IshaanNene/sitebrief/internal/storage"
	"github.com/IshaanNene/sitebrief/internal/types"
	"github.com/IshaanNene/sitebrief/pkg/sitebrief"
)

var (
	profileMaxPages  int
	profileProvider  string
	profileModel     string
	profileEndpoint  string
	profileStrategy  string
	profileFormat    string
	profileOutputDir string
)

// profileCmd creates the "profile" subcommand.
func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [url]",
		Short: "Crawl a company website and build its profile",
		Long: `Crawl the site at the given URL, summarize its text with an LLM and
store a validated company profile (title, summary, company name, industry,
people, value proposition, competition).

Small sites are sent to the model in one request; sites above the token
threshold are summarized chunk by chunk first.

Supports Ollama (local), OpenAI, or any compatible API.`,
		Args: cobra.ExactArgs(1),
		RunE: runProfile,
	}

	cmd.Flags().IntVarP(&profileMaxPages, "max-pages", "m", 0, "maximum pages to fetch (0 = config default)")
	cmd.Flags().StringVar(&profileProvider, "llm", "", "LLM provider: ollama, openai, custom")
	cmd.Flags().StringVar(&profileModel, "model", "", "LLM model name")
	cmd.Flags().StringVar(&profileEndpoint, "llm-endpoint", "", "LLM endpoint URL")
	cmd.Flags().StringVar(&profileStrategy, "strategy", "", "single-pass strategy for small sites: stuff, refine")
	cmd.Flags().StringVarP(&profileFormat, "format", "f", "", "storage type: json, jsonl, csv, markdown, mongodb")
	cmd.Flags().StringVarP(&profileOutputDir, "output", "o", "", "output directory")

	return cmd
}

func profileOverrides(cfg *config.Config) {
	if profileMaxPages > 0 {
		cfg.Crawl.MaxPages = profileMaxPages
	}
	if profileProvider != "" {
		cfg.Summarize.Provider = strings.ToLower(profileProvider)
	}
	if profileModel != "" {
		cfg.Summarize.Model = profileModel
	}
	if profileEndpoint != "" {
		cfg.Summarize.Endpoint = profileEndpoint
	}
	if profileStrategy != "" {
		cfg.Summarize.Strategy = strings.ToLower(profileStrategy)
	}
	if profileFormat != "" {
		cfg.Storage.Type = strings.ToLower(profileFormat)
	}
	if profileOutputDir != "" {
		cfg.Storage.OutputPath = profileOutputDir
	}
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(profileOverrides)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	if err := config.ValidateURL(args[0]); err != nil {
		return fmt.Errorf("invalid URL %q: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("storage close failed", "error", err)
		}
	}()

	client, err := sitebrief.New(
		sitebrief.WithConfig(cfg),
		sitebrief.WithLogger(logger),
		sitebrief.WithMetrics(startMetrics(ctx, cfg.Metrics, logger)),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "🔎 SiteBrief\n")
	fmt.Fprintf(cmd.ErrOrStderr(), "   LLM: %s/%s @ %s\n", cfg.Summarize.Provider, cfg.Summarize.Model, cfg.Summarize.Endpoint)
	fmt.Fprintf(cmd.ErrOrStderr(), "   Crawl: %s, max %d pages\n\n", args[0], cfg.Crawl.MaxPages)

	start := time.Now()
	report, err := client.Profile(ctx, args[0])
	if err != nil {
		return explainProfileError(err)
	}

	if err := store.Store([]*profile.Report{report}); err != nil {
		return err
	}
	if err := storage.WriteMarkdownReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\n✅ Profile complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(cmd.ErrOrStderr(), "   Pages crawled: %d\n", report.PagesCrawled)
	fmt.Fprintf(cmd.ErrOrStderr(), "   Strategy: %s (%d tokens)\n", report.Strategy, report.Tokens)
	fmt.Fprintf(cmd.ErrOrStderr(), "   Stored: %s → %s\n", store.Name(), cfg.Storage.OutputPath)
	return nil
}

// explainProfileError turns pipeline errors into user-facing messages.
func explainProfileError(err error) error {
	var (
		se *types.SummarizationError
		ve *types.ValidationError
	)
	switch {
	case errors.Is(err, types.ErrNoContent):
		return fmt.Errorf("no content found: the site returned no readable text")
	case errors.As(err, &se):
		return fmt.Errorf("summarization failed: %s", se.Reason)
	case errors.As(err, &ve):
		return fmt.Errorf("model output was not a valid profile (missing %s)", strings.Join(ve.Fields, ", "))
	default:
		return err
	}
}
