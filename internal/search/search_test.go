package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/IshaanNene/sitebrief/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testClient(endpoint string) *Client {
	cfg := config.DefaultConfig().Search
	cfg.Endpoint = endpoint
	cfg.APIKey = "key-123"
	cfg.EngineID = "cx-456"
	return NewClient(cfg, testLogger)
}

func TestSearchResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "key-123" || q.Get("cx") != "cx-456" || q.Get("q") != "acme rockets" || q.Get("num") != "2" {
			t.Errorf("unexpected query %v", q)
		}
		fmt.Fprint(w, `{"items":[
			{"title":"Acme","link":"https://acme.example/","snippet":"Rockets"},
			{"title":"Acme About","link":"https://acme.example/about"}
		]}`)
	}))
	defer srv.Close()

	results := testClient(srv.URL).Search(context.Background(), "acme rockets", 2)
	if IsDiagnostic(results) {
		t.Fatalf("unexpected diagnostic %q", results[0].Diagnostic)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Index != 1 || results[1].Link != "https://acme.example/about" || results[1].Snippet != "" {
		t.Errorf("unexpected second result %+v", results[1])
	}
}

func TestSearchDefaultsNumResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("num"); got != "5" {
			t.Errorf("num = %q, want 5", got)
		}
		fmt.Fprint(w, `{"items":[{"title":"x","link":"https://x.example/"}]}`)
	}))
	defer srv.Close()

	testClient(srv.URL).Search(context.Background(), "x", 0)
}

func TestSearchDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"error":{"code":403,"message":"API key not valid"}}`)
			},
			want: "No results found due to error: API key not valid",
		},
		{
			name: "no items",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"searchInformation":{"totalResults":"0"}}`)
			},
			want: "No results found",
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>oops</html>`)
			},
			want: "No results found due to error: decode response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			results := testClient(srv.URL).Search(context.Background(), "q", 3)
			if !IsDiagnostic(results) {
				t.Fatalf("expected diagnostic, got %+v", results)
			}
			if !strings.HasPrefix(results[0].Diagnostic, tt.want) {
				t.Errorf("diagnostic = %q, want prefix %q", results[0].Diagnostic, tt.want)
			}
		})
	}
}

func TestSearchUnreachable(t *testing.T) {
	results := testClient("http://127.0.0.1:1/customsearch").Search(context.Background(), "q", 1)
	if !IsDiagnostic(results) || !strings.HasPrefix(results[0].Diagnostic, errorPrefix) {
		t.Errorf("expected transport diagnostic, got %+v", results)
	}
}
