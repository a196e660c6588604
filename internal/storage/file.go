package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/IshaanNene/sitebrief/internal/profile"
	"github.com/IshaanNene/sitebrief/internal/types"
)

func storageErr(backend string, err error) error {
	return &types.StorageError{Backend: backend, Err: err}
}

func errUnsupported(storageType string) error {
	return fmt.Errorf("unsupported storage type: %s", storageType)
}

func createFile(outputPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

// --- JSON Storage ---

// JSONStorage writes reports as a JSON array to a file on Close.
type JSONStorage struct {
	path    string
	reports []*profile.Report
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, storageErr("json", fmt.Errorf("create output dir: %w", err))
	}

	return &JSONStorage{
		path:    outputPath,
		reports: make([]*profile.Report, 0),
		logger:  logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(reports []*profile.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, reports...)
	s.logger.Debug("reports buffered", "count", len(reports), "total", len(s.reports))
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return storageErr("json", fmt.Errorf("create output file: %w", err))
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.reports); err != nil {
		return storageErr("json", fmt.Errorf("encode JSON: %w", err))
	}

	s.logger.Info("JSON written", "path", s.path, "reports", len(s.reports))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage writes reports as newline-delimited JSON (one per line).
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage (streaming writes).
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	f, err := createFile(outputPath)
	if err != nil {
		return nil, storageErr("jsonl", err)
	}

	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(reports []*profile.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reports {
		if err := s.enc.Encode(r); err != nil {
			return storageErr("jsonl", fmt.Errorf("encode JSONL: %w", err))
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "reports", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// --- CSV Storage ---

var csvHeaders = []string{
	"start_url", "company_name", "title", "industry", "summary",
	"value_proposition", "employees", "competition",
	"strategy", "tokens", "pages_crawled", "finished_at",
}

// CSVStorage writes one row per report.
type CSVStorage struct {
	path          string
	file          *os.File
	writer        *csv.Writer
	headerWritten bool
	mu            sync.Mutex
	count         int
	logger        *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	f, err := createFile(outputPath)
	if err != nil {
		return nil, storageErr("csv", err)
	}

	return &CSVStorage{
		path:   outputPath,
		file:   f,
		writer: csv.NewWriter(f),
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(reports []*profile.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.headerWritten {
		if err := s.writer.Write(csvHeaders); err != nil {
			return storageErr("csv", fmt.Errorf("write CSV header: %w", err))
		}
		s.headerWritten = true
	}

	for _, r := range reports {
		if err := s.writer.Write(reportRow(r)); err != nil {
			return storageErr("csv", fmt.Errorf("write CSV row: %w", err))
		}
		s.count++
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return storageErr("csv", err)
	}
	return nil
}

func (s *CSVStorage) Close() error {
	s.logger.Info("CSV written", "path", s.path, "reports", s.count)
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

func reportRow(r *profile.Report) []string {
	p := r.Profile
	if p == nil {
		p = &profile.Profile{}
	}
	employees := make([]string, 0, len(p.Employees))
	for _, e := range p.Employees {
		employees = append(employees, employeeLabel(e))
	}
	return []string{
		r.StartURL,
		p.CompanyName,
		p.Title,
		p.Industry,
		p.Summary,
		p.ValueProposition,
		strings.Join(employees, "; "),
		strings.Join(p.Competition, "; "),
		r.Strategy,
		strconv.Itoa(r.Tokens),
		strconv.Itoa(r.PagesCrawled),
		r.FinishedAt.Format(time.RFC3339),
	}
}

func employeeLabel(e profile.Employee) string {
	role := e.Position
	if role == "" {
		role = e.Title
	}
	if role == "" {
		return e.Name
	}
	return e.Name + " (" + role + ")"
}
