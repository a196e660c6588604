package storage

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/nao1215/markdown"

	"github.com/IshaanNene/sitebrief/internal/profile"
	"github.com/IshaanNene/sitebrief/internal/types"
)

// MarkdownStorage renders all reports into one Markdown document on Close.
type MarkdownStorage struct {
	path    string
	reports []*profile.Report
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewMarkdownStorage creates a Markdown report file storage.
func NewMarkdownStorage(outputPath string, logger *slog.Logger) (*MarkdownStorage, error) {
	f, err := createFile(outputPath)
	if err != nil {
		return nil, storageErr("markdown", err)
	}
	f.Close()

	return &MarkdownStorage{
		path:   outputPath,
		logger: logger.With("component", "markdown_storage"),
	}, nil
}

func (s *MarkdownStorage) Name() string { return "markdown" }

func (s *MarkdownStorage) Store(reports []*profile.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, reports...)
	return nil
}

func (s *MarkdownStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return storageErr("markdown", err)
	}
	defer f.Close()

	for _, r := range s.reports {
		if err := WriteMarkdownReport(f, r); err != nil {
			return storageErr("markdown", err)
		}
	}
	s.logger.Info("Markdown written", "path", s.path, "reports", len(s.reports))
	return nil
}

// WriteMarkdownReport renders one report as Markdown.
func WriteMarkdownReport(w io.Writer, r *profile.Report) error {
	p := r.Profile
	if p == nil {
		p = &profile.Profile{}
	}

	md := markdown.NewMarkdown(w)
	md.H1(p.CompanyName)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Website", r.StartURL},
			{"Title", p.Title},
			{"Industry", orDash(p.Industry)},
			{"Pages Crawled", strconv.Itoa(r.PagesCrawled)},
			{"Strategy", r.Strategy},
			{"Generated", r.FinishedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.PlainText(p.Summary)
	md.PlainText("")

	if p.ValueProposition != "" {
		md.H2("Value Proposition")
		md.PlainText("")
		md.PlainText(p.ValueProposition)
		md.PlainText("")
	}

	if len(p.Employees) > 0 {
		md.H2("People")
		md.PlainText("")
		rows := make([][]string, 0, len(p.Employees))
		for _, e := range p.Employees {
			rows = append(rows, []string{e.Name, orDash(e.Title), orDash(e.Position), orDash(e.Location)})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Name", "Title", "Position", "Location"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(p.Competition) > 0 {
		md.H2("Competition")
		md.PlainText("")
		md.BulletList(p.Competition...)
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("")
	return md.Build()
}

// writeCorpusMarkdown renders a corpus with one section per page.
func writeCorpusMarkdown(w io.Writer, c *types.Corpus) error {
	md := markdown.NewMarkdown(w)
	md.H1("Crawl of " + c.StartURL)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Pages Fetched", "Pages Failed", "Fragments", "Fallback Used"},
		Rows: [][]string{{
			strconv.Itoa(c.Stats.PagesFetched),
			strconv.Itoa(c.Stats.PagesFailed),
			strconv.Itoa(c.Len()),
			strconv.FormatBool(c.Stats.FallbackUsed),
		}},
	})
	md.PlainText("")

	for _, f := range c.Fragments {
		heading := f.Title
		if heading == "" {
			heading = f.URL
		}
		md.H2(heading)
		md.PlainText("")
		md.PlainTextf("Source: %s (stage %s, %d words)", f.URL, f.Stage, f.Words)
		md.PlainText("")
		md.PlainText(strings.TrimSpace(f.Text))
		md.PlainText("")
	}
	return md.Build()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
