package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/search"
)

var (
	searchNum  int
	searchJSON bool
)

// searchCmd creates the "search" subcommand.
func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Look up a query with Google Custom Search",
		Long: `Query the Google Custom Search JSON API. Credentials come from
search.api_key / search.engine_id or GOOGLE_SEARCH_API_KEY /
GOOGLE_SEARCH_ENGINE_ID.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVarP(&searchNum, "num", "n", 0, "number of results, 1-10 (0 = config default)")
	cmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(func(cfg *config.Config) {
		if searchNum > 0 {
			cfg.Search.NumResults = searchNum
		}
	})
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	query := strings.Join(args, " ")
	results := search.NewClient(cfg.Search, logger).Search(ctx, query, cfg.Search.NumResults)

	out := cmd.OutOrStdout()
	if searchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if search.IsDiagnostic(results) {
		fmt.Fprintln(out, results[0].Diagnostic)
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(out, "%d. %s\n   %s\n", r.Index+1, r.Title, r.Link)
		if r.Snippet != "" {
			fmt.Fprintf(out, "   %s\n", strings.ReplaceAll(r.Snippet, "\n", " "))
		}
		fmt.Fprintln(out, "----")
	}
	return nil
}
