package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/IshaanNene/sitebrief/internal/config"
	"github.com/IshaanNene/sitebrief/internal/profile"
	"github.com/IshaanNene/sitebrief/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func sampleReport() *profile.Report {
	return &profile.Report{
		Profile: &profile.Profile{
			Title:       "Acme Rockets",
			Summary:     "Acme builds rockets.",
			CompanyName: "Acme",
			Industry:    "Aerospace",
			Employees: []profile.Employee{
				{Name: "Wile E.", Position: "CEO"},
				{Name: "Road Runner"},
			},
			Competition: profile.StringList{"Beep Co", "Roadrunner Inc"},
		},
		StartURL:     "https://acme.example/",
		PagesCrawled: 3,
		Strategy:     "stuff",
		Tokens:       1200,
		FinishedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func sampleCorpus() *types.Corpus {
	c := types.NewCorpus("https://acme.example/")
	f1 := types.NewFragment("https://acme.example/", 0, 0)
	f1.Text, f1.Title, f1.Stage, f1.Words = "Welcome to Acme", "Home", "generic", 3
	f2 := types.NewFragment("https://acme.example/about", 1, 1)
	f2.Text, f2.Stage, f2.Words = "About, \"quoted\" text", "trafilatura", 3
	c.Add(f1)
	c.Add(f2)
	c.Stats.PagesFetched = 2
	return c
}

func TestJSONStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage("json", dir, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store([]*profile.Report{sampleReport(), sampleReport()}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "profiles.json"))
	if err != nil {
		t.Fatal(err)
	}
	var got []profile.Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 2 || got[0].Profile.CompanyName != "Acme" {
		t.Errorf("unexpected reports %+v", got)
	}
}

func TestJSONLStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage("jsonl", dir, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	s.Store([]*profile.Report{sampleReport()})
	s.Store([]*profile.Report{sampleReport()})
	s.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "profiles.jsonl"))
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"company_name":"Acme"`) {
		t.Errorf("unexpected line %s", lines[0])
	}
}

func TestCSVStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage("csv", dir, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	s.Store([]*profile.Report{sampleReport()})
	s.Close()

	f, _ := os.Open(filepath.Join(dir, "profiles.csv"))
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(rows))
	}
	if rows[1][6] != "Wile E. (CEO); Road Runner" {
		t.Errorf("employees column = %q", rows[1][6])
	}
	if rows[1][11] != "2026-01-02T03:04:05Z" {
		t.Errorf("finished_at column = %q", rows[1][11])
	}
}

func TestMarkdownStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage("markdown", dir, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	s.Store([]*profile.Report{sampleReport()})
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "profiles.md"))
	out := string(data)
	for _, want := range []string{"# Acme", "## Summary", "Acme builds rockets.", "Wile E.", "Beep Co"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestUnsupportedStorage(t *testing.T) {
	_, err := NewFileStorage("parquet", t.TempDir(), testLogger)
	var se *types.StorageError
	if !errors.As(err, &se) || se.Backend != "parquet" {
		t.Errorf("expected StorageError, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Storage
	cfg.OutputPath = t.TempDir()
	s, err := New(cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Name() != "json" {
		t.Errorf("default backend = %q", s.Name())
	}
}

func TestWriteCorpus(t *testing.T) {
	c := sampleCorpus()

	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{"json", func(t *testing.T, out string) {
			var got types.Corpus
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatal(err)
			}
			if len(got.Fragments) != 2 || got.Stats.PagesFetched != 2 {
				t.Errorf("unexpected corpus %+v", got)
			}
		}},
		{"jsonl", func(t *testing.T, out string) {
			if n := strings.Count(out, "\n"); n != 2 {
				t.Errorf("expected 2 lines, got %d", n)
			}
		}},
		{"csv", func(t *testing.T, out string) {
			rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(rows) != 3 || rows[2][6] != `About, "quoted" text` {
				t.Errorf("unexpected rows %v", rows)
			}
		}},
		{"markdown", func(t *testing.T, out string) {
			if !strings.Contains(out, "## Home") || !strings.Contains(out, "## https://acme.example/about") {
				t.Errorf("unexpected markdown:\n%s", out)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteCorpus(&buf, tt.format, c); err != nil {
				t.Fatal(err)
			}
			tt.check(t, buf.String())
		})
	}

	if err := WriteCorpus(&bytes.Buffer{}, "xml", c); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestMongoUpsertModel(t *testing.T) {
	m, ok := upsertModel(sampleReport()).(*mongo.ReplaceOneModel)
	if !ok {
		t.Fatal("expected a ReplaceOneModel")
	}
	if m.Upsert == nil || !*m.Upsert {
		t.Error("report writes must upsert")
	}
	filter, ok := m.Filter.(bson.M)
	if !ok || filter["start_url"] != "https://acme.example/" {
		t.Errorf("unexpected filter %v", m.Filter)
	}

	raw, err := bson.Marshal(m.Replacement)
	if err != nil {
		t.Fatalf("report is not BSON-encodable: %v", err)
	}
	var doc bson.M
	bson.Unmarshal(raw, &doc)
	if doc["start_url"] != "https://acme.example/" {
		t.Errorf("unexpected document %v", doc)
	}
}

type recordingStorage struct {
	name   string
	stored int
	closed bool
	err    error
}

func (r *recordingStorage) Store(reports []*profile.Report) error {
	r.stored += len(reports)
	return r.err
}
func (r *recordingStorage) Close() error { r.closed = true; return nil }
func (r *recordingStorage) Name() string { return r.name }

func TestMultiStorage(t *testing.T) {
	a := &recordingStorage{name: "a", err: errors.New("disk full")}
	b := &recordingStorage{name: "b"}
	m := NewMultiStorage([]Storage{a, b}, testLogger)

	if err := m.Store([]*profile.Report{sampleReport()}); err == nil {
		t.Error("expected first backend error")
	}
	if b.stored != 1 {
		t.Error("failure in one backend must not stop the others")
	}
	m.Close()
	if !a.closed || !b.closed {
		t.Error("all backends should be closed")
	}
}
