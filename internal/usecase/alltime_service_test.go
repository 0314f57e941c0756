package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/riskibarqy/club-stats/internal/domain/season"
	"github.com/stretchr/testify/require"
)

type batchLoaderFunc func(ctx context.Context, seasonIDs []string) []SeasonOutcome

func (f batchLoaderFunc) LoadBatch(ctx context.Context, seasonIDs []string) []SeasonOutcome {
	return f(ctx, seasonIDs)
}

func outcomesWithFailures(failing map[string]bool) batchLoaderFunc {
	return func(_ context.Context, seasonIDs []string) []SeasonOutcome {
		out := make([]SeasonOutcome, 0, len(seasonIDs))
		for _, id := range seasonIDs {
			if failing[id] {
				out = append(out, SeasonOutcome{SeasonID: id, Err: fmt.Errorf("%w: status=500", ErrSourceUnavailable), Attempts: 3})
				continue
			}
			bundle := bundleFor(id, "김철수", 2)
			bundle.Players["이영희"] = season.PlayerSeasonStat{Name: "이영희", Appearances: 2, Goals: 0, MVPCount: 1}
			bundle.Regional = []season.RegionalStat{{Region: "서울", Matches: 1, Wins: 1}}
			out = append(out, SeasonOutcome{SeasonID: id, Bundle: bundle, Attempts: 1})
		}
		return out
	}
}

func TestAllTimeService_Complete(t *testing.T) {
	t.Parallel()

	svc := NewAllTimeService(outcomesWithFailures(nil), []string{"2024", "2025"}, nil)
	view, err := svc.GetAllTime(context.Background(), AllTimeInput{PlayersSort: "attendance"})
	require.NoError(t, err)
	require.Equal(t, LoadStatusComplete, view.Status)
	require.Equal(t, []string{"2024", "2025"}, view.Loaded)
	require.Empty(t, view.Failed)

	h := view.Highlights
	require.Equal(t, &PlayerHighlight{Name: "김철수", Value: 4}, h.TopScorer)
	require.Equal(t, &PlayerHighlight{Name: "이영희", Value: 2}, h.TopMVP)
	require.Equal(t, &PlayerHighlight{Name: "이영희", Value: 4}, h.MostAppearances)
	require.Equal(t, 2, h.RegisteredPlayers)

	require.Equal(t, "이영희", view.Players[0].Name, "attendance ordering")
	require.Len(t, view.Regional, 1)
	require.Equal(t, 2, view.Regional[0].Matches, "regional totals over all seasons")
	require.Equal(t, 2, view.Record.TotalMatches)
	require.Len(t, view.Trend, 2)
	require.Equal(t, "2024", view.Trend[0].SeasonID)
}

func TestAllTimeService_Partial(t *testing.T) {
	t.Parallel()

	svc := NewAllTimeService(outcomesWithFailures(map[string]bool{"2022": true, "2024": true}), []string{"2021", "2022", "2023", "2024", "2025"}, nil)
	view, err := svc.GetAllTime(context.Background(), AllTimeInput{})
	if err != nil {
		t.Fatalf("partial load must not fail: %v", err)
	}
	if view.Status != LoadStatusPartial || len(view.Loaded) != 3 || len(view.Failed) != 2 {
		t.Fatalf("unexpected partial view: %+v", view)
	}
	if view.Highlights.TopScorer == nil || view.Highlights.TopScorer.Value != 6 {
		t.Fatalf("expected totals from the 3 loaded seasons, got %+v", view.Highlights.TopScorer)
	}
}

func TestAllTimeService_Failed(t *testing.T) {
	t.Parallel()

	svc := NewAllTimeService(outcomesWithFailures(map[string]bool{"2024": true}), []string{"2024"}, nil)
	view, err := svc.GetAllTime(context.Background(), AllTimeInput{})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable, got %v", err)
	}
	if view.Status != LoadStatusFailed || len(view.Failed) != 1 {
		t.Fatalf("unexpected failed view: %+v", view)
	}
}
