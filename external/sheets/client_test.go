package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/club-stats/internal/platform/resilience"
	"github.com/riskibarqy/club-stats/internal/usecase"
)

var tablesByGID = map[string]string{
	"101": "날짜,상대팀,결과,스코어,MVP\n🔽 접기,,,,\n2025-03-01,FC A,win,3:1,김철수\n2025-03-08,FC B,패,0:2,\n",
	"102": "이름,출장,골,MVP\n새 선수,,,\n김철수,2,3,1\n",
	"103": "날짜,시간,구장명,상대팀,구장주소,비고\n2025-05-01,10:00,B구장,FC C,서울시 B,\n2025-01-01,10:00,A구장,FC D,서울시 A,\n",
	"104": "지역,경기수,승,무,패\n서울,2,1,0,1\n",
}

func newTableServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/doc-1/export" || r.URL.Query().Get("format") != "csv" {
			http.Error(w, "bad path", http.StatusBadRequest)
			return
		}
		body, ok := tablesByGID[r.URL.Query().Get("gid")]
		if !ok {
			http.Error(w, "unknown gid", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}

func TestClient_FetchSeason(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newTableServer(t, &hits)
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		DocumentID: "doc-1",
		Seasons: map[string]SeasonTables{
			"2025": {Matches: "101", Players: "102", Schedules: "103", Regional: "104"},
		},
	})
	client.now = func() time.Time { return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC) }

	bundle, err := client.FetchSeason(context.Background(), "2025")
	if err != nil {
		t.Fatalf("fetch season: %v", err)
	}
	if hits.Load() != 4 {
		t.Fatalf("expected 4 table requests, got %d", hits.Load())
	}
	if len(bundle.Matches) != 2 || bundle.Matches[0].Opponent != "FC B" {
		t.Fatalf("unexpected matches: %+v", bundle.Matches)
	}
	if p := bundle.Players["김철수"]; p.Goals != 3 || len(bundle.Players) != 1 {
		t.Fatalf("unexpected players: %+v", bundle.Players)
	}
	if len(bundle.Schedules) != 1 || bundle.Schedules[0].Opponent != "FC C" {
		t.Fatalf("unexpected schedules: %+v", bundle.Schedules)
	}
	if len(bundle.Regional) != 1 || bundle.Source != "sheets" || client.Retryable() {
		t.Fatalf("unexpected bundle: %+v", bundle)
	}
}

func TestClient_FetchSeason_NotConfigured(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{DocumentID: "doc-1"})
	if _, err := client.FetchSeason(context.Background(), "2019"); !errors.Is(err, usecase.ErrSeasonNotConfigured) {
		t.Fatalf("expected season not configured, got %v", err)
	}
}

func TestClient_FetchSeason_UpstreamFailureTripsBreaker(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newTableServer(t, &hits)
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		DocumentID: "doc-1",
		Seasons: map[string]SeasonTables{
			"2024": {Matches: "999"},
		},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	if _, err := client.FetchSeason(context.Background(), "2024"); !errors.Is(err, usecase.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
	before := hits.Load()

	_, err := client.FetchSeason(context.Background(), "2024")
	if !errors.Is(err, resilience.ErrCircuitOpen) || !errors.Is(err, usecase.ErrSourceUnavailable) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if hits.Load() != before {
		t.Fatalf("expected no request while the circuit is open")
	}
}

func TestClient_FetchSeason_OversizedTableIsRejected(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := newTableServer(t, &hits)
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:    server.URL,
		DocumentID: "doc-1",
		Seasons: map[string]SeasonTables{
			"2025": {Matches: "101", Players: "102"},
		},
	})
	client.maxBody = int64(len(tablesByGID["102"]) - 1)

	_, err := client.FetchSeason(context.Background(), "2025")
	if !errors.Is(err, usecase.ErrValidation) {
		t.Fatalf("expected oversized export to be a validation error, got %v", err)
	}
	if state := client.breaker.State(); state != resilience.CircuitStateClosed {
		t.Fatalf("expected validation errors to leave the breaker closed, got %s", state)
	}
}
