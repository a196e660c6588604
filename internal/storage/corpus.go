package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/IshaanNene/sitebrief/internal/types"
)

// WriteCorpus exports a crawl corpus in the given format: json, jsonl
// (one fragment per line), csv or markdown.
func WriteCorpus(w io.Writer, format string, c *types.Corpus) error {
	var err error
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(c)
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, f := range c.Fragments {
			if err = enc.Encode(f); err != nil {
				break
			}
		}
	case "csv":
		err = writeCorpusCSV(w, c)
	case "markdown":
		err = writeCorpusMarkdown(w, c)
	default:
		err = errUnsupported(format)
	}
	if err != nil {
		return storageErr(format, err)
	}
	return nil
}

func writeCorpusCSV(w io.Writer, c *types.Corpus) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"seq", "depth", "url", "title", "stage", "words", "text"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, f := range c.Fragments {
		row := []string{
			strconv.Itoa(f.Seq),
			strconv.Itoa(f.Depth),
			f.URL,
			f.Title,
			f.Stage,
			strconv.Itoa(f.Words),
			f.Text,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
