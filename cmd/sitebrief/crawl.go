package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/storage"
	"github.com/IshaanNene/sitebrief/pkg/sitebrief"
)

var (
	crawlMaxPages    int
	crawlConcurrency int
	crawlFormat      string
	crawlOutput      string
	crawlSubdomains  bool
)

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl a site and export its text corpus",
		Long: `Crawl up to --max-pages pages of the site at the given URL without leaving
its domain and export the extracted text, one fragment per page.`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawl,
	}

	cmd.Flags().IntVarP(&crawlMaxPages, "max-pages", "m", 0, "maximum pages to fetch (0 = config default)")
	cmd.Flags().IntVarP(&crawlConcurrency, "concurrency", "n", 0, "number of concurrent workers (0 = config default)")
	cmd.Flags().StringVarP(&crawlFormat, "format", "f", "json", "output format: json, jsonl, csv, markdown")
	cmd.Flags().StringVarP(&crawlOutput, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&crawlSubdomains, "subdomains", false, "also crawl subdomains of the start host")

	return cmd
}

func crawlOverrides(cfg *config.Config) {
	if crawlMaxPages > 0 {
		cfg.Crawl.MaxPages = crawlMaxPages
	}
	if crawlConcurrency > 0 {
		cfg.Crawl.Concurrency = crawlConcurrency
	}
	if crawlSubdomains {
		cfg.Crawl.IncludeSubdomains = true
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(crawlOverrides)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	if err := config.ValidateURL(args[0]); err != nil {
		return fmt.Errorf("invalid URL %q: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := sitebrief.New(
		sitebrief.WithConfig(cfg),
		sitebrief.WithLogger(logger),
		sitebrief.WithMetrics(startMetrics(ctx, cfg.Metrics, logger)),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	start := time.Now()
	corpus, err := client.Crawl(ctx, args[0])
	if err != nil && corpus == nil {
		return err
	}
	if err != nil {
		logger.Warn("crawl interrupted, exporting partial corpus", "error", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if crawlOutput != "" {
		if err := os.MkdirAll(filepath.Dir(crawlOutput), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		f, err := os.Create(crawlOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := storage.WriteCorpus(out, strings.ToLower(crawlFormat), corpus); err != nil {
		return err
	}

	s := corpus.Stats
	fmt.Fprintf(cmd.ErrOrStderr(), "\n✅ Crawl complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(cmd.ErrOrStderr(), "   Pages:     %d fetched, %d failed, %d without text\n", s.PagesFetched, s.PagesFailed, s.PagesEmpty)
	fmt.Fprintf(cmd.ErrOrStderr(), "   Links:     %d discovered, %d off-domain\n", s.LinksDiscovered, s.LinksOffDomain)
	fmt.Fprintf(cmd.ErrOrStderr(), "   Fragments: %d\n", corpus.Len())
	if s.FallbackUsed {
		fmt.Fprintln(cmd.ErrOrStderr(), "   Fallback:  seed anchors scraped directly")
	}
	if corpus.Empty() {
		fmt.Fprintln(cmd.ErrOrStderr(), "\n💡 No text was found. The site may render its content with JavaScript.")
	}
	return nil
}
