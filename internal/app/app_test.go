package app

import (
	"testing"
	"time"

	"github.com/riskibarqy/club-stats/internal/config"
	"github.com/riskibarqy/club-stats/internal/platform/logging"
)

func baseConfig() config.Config {
	return config.Config{
		HTTPAddr:           ":0",
		CORSAllowedOrigins: []string{"*"},
		ReadTimeout:        time.Second,
		WriteTimeout:       time.Second,
		Location:           time.UTC,
		Seasons:            []string{"2024", "2025"},
		DefaultSeason:      "2025",
		SeasonBatchSize:    5,
		SeasonFetchTimeout: time.Second,
		SeasonFileBaseURL:  "http://localhost:8081/seasons",
		SheetsBaseURL:      "https://docs.google.com/spreadsheets/d",
		SheetsTimeout:      time.Second,
		SheetsSeasonTables: map[string]config.SheetTables{
			"2025": {Matches: "1", Players: "2", Schedules: "3", Regional: "4"},
		},
	}
}

func TestSeasonSources_FileOnlyByDefault(t *testing.T) {
	sources := seasonSources(baseConfig(), logging.NewNop())
	if len(sources) != 1 || sources[0].Name() != "file" {
		t.Fatalf("expected only the file source, got %d sources", len(sources))
	}
	if !sources[0].Retryable() {
		t.Fatalf("expected file source to be retryable")
	}
}

func TestSeasonSources_SheetsFirstWhenEnabled(t *testing.T) {
	cfg := baseConfig()
	cfg.SheetsEnabled = true
	cfg.SheetsDocumentID = "doc-1"

	sources := seasonSources(cfg, logging.NewNop())
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Name() != "sheets" || sources[0].Retryable() {
		t.Fatalf("expected non-retryable sheets source first, got %q", sources[0].Name())
	}
	if sources[1].Name() != "file" {
		t.Fatalf("expected file source last, got %q", sources[1].Name())
	}
}

func TestNewHTTPServer(t *testing.T) {
	srv, err := NewHTTPServer(baseConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	if srv.Handler == nil || srv.Addr != ":0" {
		t.Fatalf("unexpected server: addr=%q", srv.Addr)
	}

	cfg := baseConfig()
	cfg.HTTPAddr = ""
	if _, err := NewHTTPServer(cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
