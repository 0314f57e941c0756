package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/club-stats/internal/domain/season"
)

type seasonLoaderFunc func(ctx context.Context, seasonID string) (season.Bundle, error)

func (f seasonLoaderFunc) Get(ctx context.Context, seasonID string) (season.Bundle, error) {
	return f(ctx, seasonID)
}

func sampleBundle() season.Bundle {
	return season.Bundle{
		SeasonID: "2025",
		Source:   season.SourceSheets,
		Matches: []season.Match{
			{Date: "2025-03-15", Opponent: "FC B", Result: season.ResultLoss, Score: "1:2"},
			{Date: "2025-03-08", Opponent: "FC A", Result: season.ResultDraw, Score: "2:2"},
			{Date: "2025-03-01", Opponent: "FC A", Result: season.ResultWin, Score: "3:0"},
			{Date: "2025-02-22", Opponent: "FC C", Result: season.ResultWin, Score: "2:1"},
		},
		Players: map[string]season.PlayerSeasonStat{
			"나":  {Name: "나", Appearances: 4, Goals: 3, MVPCount: 2},
			"가":  {Name: "가", Appearances: 4, Goals: 3, MVPCount: 2},
			"다":  {Name: "다", Appearances: 2, Goals: 5, MVPCount: 0},
			"휴면": {Name: "휴면", Appearances: 0, Goals: 0, MVPCount: 9},
		},
		Schedules: []season.ScheduleEntry{
			{Date: "2025-03-20", Opponent: "FC Past", VenueName: "옛 구장", VenueAddress: "과거"},
			{Date: "2025-04-05", Opponent: "FC D", VenueName: "D구장"},
			{Date: "2025-04-12", Opponent: "FC E", VenueName: "E구장", VenueAddress: "서울시 E"},
		},
		Regional: []season.RegionalStat{
			{Region: "서울", Matches: 2, Wins: 1},
			{Region: "부산", Matches: 4, Wins: 2},
		},
	}
}

func newTestSeasonService(loader seasonLoaderFunc) *SeasonService {
	svc := NewSeasonService(loader, SeasonServiceConfig{
		Seasons:   []string{"2024", "2025"},
		HomeVenue: season.Venue{Name: "홈구장", Address: "홈 주소"},
	})
	svc.now = func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestSeasonService_GetSeasonView(t *testing.T) {
	t.Parallel()

	var requested string
	svc := newTestSeasonService(func(_ context.Context, seasonID string) (season.Bundle, error) {
		requested = seasonID
		return sampleBundle(), nil
	})

	view, err := svc.GetSeasonView(context.Background(), SeasonViewInput{PlayersSort: "goals", RegionalSort: "winrate"})
	if err != nil {
		t.Fatalf("get season view: %v", err)
	}
	if requested != "2025" || view.SeasonID != "2025" {
		t.Fatalf("expected default season 2025, got %q", requested)
	}

	summary := view.Summary
	if summary.Matches != 4 || summary.Wins != 2 || summary.Draws != 1 || summary.Losses != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.WinRate != 50 || summary.GoalsFor != 8 || summary.GoalsAgainst != 5 || summary.GoalsPerMatch != 2 {
		t.Fatalf("unexpected summary numbers: %+v", summary)
	}

	if view.MVP == nil || view.MVP.Name != "가" {
		t.Fatalf("expected 가 as season MVP, got %+v", view.MVP)
	}
	if len(view.Players) != 3 {
		t.Fatalf("expected players without appearances to be hidden, got %+v", view.Players)
	}
	if view.Players[0].Name != "다" || view.Players[1].Name != "가" || view.Players[2].Name != "나" {
		t.Fatalf("unexpected goal ordering: %+v", view.Players)
	}

	if view.Regional[0].Region != "부산" {
		t.Fatalf("expected equal win rates to fall back to match count, got %+v", view.Regional)
	}

	if len(view.Schedules) != 2 {
		t.Fatalf("expected past fixtures to be dropped, got %+v", view.Schedules)
	}
	if view.Venue.Name != "E구장" || view.Venue.Address != "서울시 E" {
		t.Fatalf("expected venue of first fixture with an address, got %+v", view.Venue)
	}
}

func TestSeasonService_GetSeasonView_UnknownSeason(t *testing.T) {
	t.Parallel()

	svc := newTestSeasonService(func(context.Context, string) (season.Bundle, error) {
		t.Fatalf("loader must not be called")
		return season.Bundle{}, nil
	})
	if _, err := svc.GetSeasonView(context.Background(), SeasonViewInput{SeasonID: "1999"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSeasonService_GetSeasonView_PropagatesLoadErrors(t *testing.T) {
	t.Parallel()

	svc := newTestSeasonService(func(context.Context, string) (season.Bundle, error) {
		return season.Bundle{}, ErrSourceUnavailable
	})
	if _, err := svc.GetSeasonView(context.Background(), SeasonViewInput{SeasonID: "2024"}); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestSeasonService_GetSeasonView_LastRequestWins(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	svc := newTestSeasonService(func(ctx context.Context, seasonID string) (season.Bundle, error) {
		if seasonID == "2024" {
			close(entered)
			<-ctx.Done()
			return season.Bundle{}, ctx.Err()
		}
		return sampleBundle(), nil
	})

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.GetSeasonView(context.Background(), SeasonViewInput{SeasonID: "2024", ViewKey: "tab-1"})
		firstErr <- err
	}()

	<-entered
	view, err := svc.GetSeasonView(context.Background(), SeasonViewInput{SeasonID: "2025", ViewKey: "tab-1"})
	if err != nil {
		t.Fatalf("latest request failed: %v", err)
	}
	if view.SeasonID != "2025" {
		t.Fatalf("unexpected season %q", view.SeasonID)
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected superseded error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("superseded request did not return")
	}
}

func TestSeasonMVP_NoAppearances(t *testing.T) {
	t.Parallel()

	players := map[string]season.PlayerSeasonStat{"a": {Name: "a", MVPCount: 3}}
	if got := SeasonMVP(players); got != nil {
		t.Fatalf("expected no MVP, got %+v", got)
	}
}

func TestNewSeasonService_DefaultSeasonIsNumericallyLargest(t *testing.T) {
	t.Parallel()

	svc := NewSeasonService(seasonLoaderFunc(nil), SeasonServiceConfig{
		Seasons: []string{"2024", "999", "2025", "1000"},
	})
	if got := svc.Catalog().DefaultSeason; got != "2025" {
		t.Fatalf("expected 2025 as default season, got %s", got)
	}
}
