// Package extract turns fetched page markup into clean visible text.
//
// Extraction runs a chain of stages and returns the first non-empty result:
// main-content extraction with trafilatura, article extraction with
// readability, then a generic walk over every visible text node.
package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/types"
)

// Outcome classifies an extraction result.
type Outcome int

const (
	// OutcomeEmpty means every stage ran but none produced text.
	OutcomeEmpty Outcome = iota
	// OutcomeText means a stage produced non-empty text.
	OutcomeText
	// OutcomeFailed means every stage errored.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeText:
		return "text"
	case OutcomeFailed:
		return "failed"
	default:
		return "empty"
	}
}

// Stage names.
const (
	StageTrafilatura = "trafilatura"
	StageReadability = "readability"
	StageGeneric     = "generic"
)

// Result is the outcome of extracting one page.
type Result struct {
	Outcome Outcome
	Text    string
	Title   string
	Date    string
	Stage   string

	// Errors lists the stages that failed before Stage succeeded.
	Errors []*types.ExtractionError
}

// Extractor runs the extraction chain. It is safe for concurrent use.
type Extractor struct {
	cfg      config.ExtractConfig
	markdown *markdownConverter
	logger   *slog.Logger
}

// New creates an Extractor.
func New(cfg config.ExtractConfig, logger *slog.Logger) *Extractor {
	e := &Extractor{
		cfg:    cfg,
		logger: logger.With("component", "extractor"),
	}
	if cfg.Format == "markdown" {
		e.markdown = newMarkdownConverter()
	}
	return e
}

// Extract never panics and never returns an error; failures are reported
// through the Result.
func (e *Extractor) Extract(body []byte, sourceURL string) Result {
	var res Result
	if len(bytes.TrimSpace(body)) == 0 {
		res.Stage = StageGeneric
		return res
	}

	pageURL, _ := url.Parse(sourceURL)
	docTitle := documentTitle(body)

	type stage struct {
		name    string
		enabled bool
		run     func([]byte, *url.URL) (stageOutput, error)
	}
	stages := []stage{
		{StageTrafilatura, e.cfg.UseTrafilatura, e.trafilaturaStage},
		{StageReadability, e.cfg.UseReadability, e.readabilityStage},
		{StageGeneric, true, genericStage},
	}

	ran := 0
	for _, st := range stages {
		if !st.enabled {
			continue
		}
		ran++
		out, err := safeRun(st.run, body, pageURL)
		if err != nil {
			ee := &types.ExtractionError{Stage: st.name, URL: sourceURL, Err: err}
			res.Errors = append(res.Errors, ee)
			e.logger.Debug("extraction stage failed", "stage", st.name, "url", sourceURL, "error", err)
			continue
		}
		if res.Title == "" {
			res.Title = out.title
		}
		if res.Date == "" {
			res.Date = out.date
		}
		if out.text != "" && isTitleOnly(out.text, out.title, docTitle) {
			e.logger.Debug("extraction stage returned only the page title", "stage", st.name, "url", sourceURL)
			out.text = ""
		}
		if out.text != "" {
			res.Outcome = OutcomeText
			res.Text = out.text
			res.Stage = st.name
			return res
		}
		e.logger.Debug("extraction stage produced no text", "stage", st.name, "url", sourceURL)
	}

	res.Stage = StageGeneric
	if len(res.Errors) == ran {
		res.Outcome = OutcomeFailed
	}
	return res
}

// isTitleOnly reports whether text is nothing but the page title, which
// main-content extractors fall back to when a page has no body text.
func isTitleOnly(text string, titles ...string) bool {
	t := cleanText(strings.TrimLeft(strings.TrimSpace(text), "# "))
	if t == "" {
		return true
	}
	for _, title := range titles {
		if title != "" && strings.EqualFold(t, cleanText(title)) {
			return true
		}
	}
	return false
}

// documentTitle returns the text of the first <title> element.
func documentTitle(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) != "title" {
				continue
			}
			if z.Next() == html.TextToken {
				return cleanText(html.UnescapeString(string(z.Text())))
			}
			return ""
		}
	}
}

type stageOutput struct {
	text  string
	title string
	date  string
}

// safeRun converts a panicking stage into an error.
func safeRun(run func([]byte, *url.URL) (stageOutput, error), body []byte, u *url.URL) (out stageOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return run(body, u)
}

func (e *Extractor) trafilaturaStage(body []byte, u *url.URL) (stageOutput, error) {
	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{
		OriginalURL:     u,
		ExcludeComments: e.cfg.ExcludeComments,
	})
	if err != nil {
		return stageOutput{}, err
	}
	if result == nil {
		return stageOutput{}, nil
	}

	out := stageOutput{title: strings.TrimSpace(result.Metadata.Title)}
	if !result.Metadata.Date.IsZero() {
		out.date = result.Metadata.Date.Format(time.DateOnly)
	}

	if e.markdown != nil && result.ContentNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, result.ContentNode); err == nil {
			if md, err := e.markdown.convert(buf.String(), u); err == nil && md != "" {
				out.text = md
				return out, nil
			}
		}
	}

	out.text = cleanText(result.ContentText)
	return out, nil
}

func (e *Extractor) readabilityStage(body []byte, u *url.URL) (stageOutput, error) {
	if u == nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return stageOutput{}, err
	}

	out := stageOutput{title: strings.TrimSpace(article.Title)}

	if e.markdown != nil && strings.TrimSpace(article.Content) != "" {
		if md, err := e.markdown.convert(article.Content, u); err == nil && md != "" {
			out.text = md
			return out, nil
		}
	}

	out.text = cleanText(article.TextContent)
	return out, nil
}
