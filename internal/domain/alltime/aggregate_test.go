package alltime

import (
	"fmt"
	"testing"

	"github.com/riskibarqy/club-stats/internal/domain/season"
)

func match(date string, result season.Result, score string) season.Match {
	return season.Match{Date: date, Opponent: "FC " + date, Result: result, Score: season.Score(score)}
}

func seasonWith(id string, results ...season.Result) season.Bundle {
	matches := make([]season.Match, 0, len(results))
	for i, result := range results {
		score := "1:1"
		switch result {
		case season.ResultWin:
			score = "2:0"
		case season.ResultLoss:
			score = "0:2"
		}
		matches = append(matches, match(fmt.Sprintf("%s-01-%02d", id, i+1), result, score))
	}
	return season.Bundle{SeasonID: id, Matches: matches}
}

func TestBuildTeamRecord_LongestWinStreakIsTheLongestRun(t *testing.T) {
	t.Parallel()

	w, d, l := season.ResultWin, season.ResultDraw, season.ResultLoss
	bundle := seasonWith("2024", w, w, d, w, w, w, l)
	// Shuffle so the record has to order matches by date itself.
	bundle.Matches[0], bundle.Matches[6] = bundle.Matches[6], bundle.Matches[0]

	record := BuildTeamRecord([]season.Bundle{bundle})

	got := record.LongestWinStreak
	if got.Count != 3 {
		t.Fatalf("expected win streak 3, got %+v", got)
	}
	if got.StartDate != "2024-01-04" || got.EndDate != "2024-01-06" {
		t.Fatalf("unexpected streak bounds: %+v", got)
	}
	if record.LongestLossStreak.Count != 1 || record.LongestLossStreak.StartDate != "2024-01-07" {
		t.Fatalf("unexpected loss streak: %+v", record.LongestLossStreak)
	}
	if record.Wins != 5 || record.Draws != 1 || record.Losses != 1 || record.TotalMatches != 7 {
		t.Fatalf("unexpected totals: %+v", record)
	}
}

func TestBuildTeamRecord_FirstMaximumWinsForExtremeMatches(t *testing.T) {
	t.Parallel()

	bundle := season.Bundle{SeasonID: "2024", Matches: []season.Match{
		match("2024-03-01", season.ResultWin, "5:1"),
		match("2024-04-01", season.ResultWin, "5:4"),
		match("2024-05-01", season.ResultLoss, "1:4"),
	}}

	record := BuildTeamRecord([]season.Bundle{bundle})
	if record.HighestScoring == nil || record.HighestScoring.Date != "2024-03-01" {
		t.Fatalf("expected earliest 5-goal match, got %+v", record.HighestScoring)
	}
	if record.MostConceded == nil || record.MostConceded.Date != "2024-04-01" {
		t.Fatalf("expected earliest 4-conceded match, got %+v", record.MostConceded)
	}
	if record.HighestScoring.Season != "2024" {
		t.Fatalf("expected season tag on merged match, got %q", record.HighestScoring.Season)
	}
	if record.GoalsFor != 11 || record.GoalsAgainst != 9 {
		t.Fatalf("unexpected goal totals: %d:%d", record.GoalsFor, record.GoalsAgainst)
	}
}

func TestBuildTeamRecord_BestAndWorstIgnoreShortSeasons(t *testing.T) {
	t.Parallel()

	w, l := season.ResultWin, season.ResultLoss
	bundles := []season.Bundle{
		seasonWith("2021", w, w, w, w),          // 100%, 4 matches
		seasonWith("2022", w, w, w, l, l),       // 60%
		seasonWith("2023", l, l),                // 0%, 2 matches
		seasonWith("2024", w, l, l, l, l),       // 20%
		seasonWith("2025", w, w, w, w, l, l, l), // ~57%
		{SeasonID: "2026"},
	}

	record := BuildTeamRecord(bundles)
	if record.BestSeason == nil || record.BestSeason.SeasonID != "2022" {
		t.Fatalf("expected 2022 as best season, got %+v", record.BestSeason)
	}
	if record.WorstSeason == nil || record.WorstSeason.SeasonID != "2024" {
		t.Fatalf("expected 2024 as worst season, got %+v", record.WorstSeason)
	}
	if len(record.Seasons) != 5 {
		t.Fatalf("expected seasons without matches to be skipped, got %d summaries", len(record.Seasons))
	}
}

func TestBuildTeamRecord_NoQualifyingSeason(t *testing.T) {
	t.Parallel()

	record := BuildTeamRecord([]season.Bundle{seasonWith("2024", season.ResultWin)})
	if record.BestSeason != nil || record.WorstSeason != nil {
		t.Fatalf("expected no best/worst season, got %+v / %+v", record.BestSeason, record.WorstSeason)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	t.Parallel()

	for _, input := range [][]season.Bundle{nil, {}} {
		result := Aggregate(input)
		if len(result.Players) != 0 || len(result.Regional) != 0 || len(result.SeasonIDs) != 0 {
			t.Fatalf("expected empty aggregate, got %+v", result)
		}
		record := result.Record
		if record.TotalMatches != 0 || record.HighestScoring != nil || record.MostConceded != nil {
			t.Fatalf("expected zero team record, got %+v", record)
		}
		if record.BestSeason != nil || record.WorstSeason != nil || record.LongestWinStreak.Count != 0 {
			t.Fatalf("expected no best/worst or streaks, got %+v", record)
		}
	}
}

func TestAggregate_SumsPlayersAndRegions(t *testing.T) {
	t.Parallel()

	bundles := []season.Bundle{
		{
			SeasonID: "2025",
			Players: map[string]season.PlayerSeasonStat{
				"김철수": {Name: "김철수", Appearances: 10, Goals: 4, MVPCount: 2},
			},
			Regional: []season.RegionalStat{{Region: "서울", Matches: 4, Wins: 2, Draws: 1, Losses: 1}},
		},
		{
			SeasonID: "2024",
			Players: map[string]season.PlayerSeasonStat{
				"김철수": {Name: "김철수", Appearances: 8, Goals: 1, MVPCount: 0},
				"이영희": {Name: "이영희", Appearances: 3, Goals: 0, MVPCount: 1},
			},
			Regional: []season.RegionalStat{
				{Region: "부산", Matches: 2, Wins: 0, Draws: 0, Losses: 2},
				{Region: "서울", Matches: 6, Wins: 3, Draws: 1, Losses: 2},
			},
		},
	}

	result := Aggregate(bundles)
	if result.SeasonIDs[0] != "2024" || result.SeasonIDs[1] != "2025" {
		t.Fatalf("expected seasons ascending, got %v", result.SeasonIDs)
	}
	if got := result.Players["김철수"]; got.TotalAppearances != 18 || got.TotalGoals != 5 || got.TotalMVP != 2 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got := result.Players["이영희"]; got.TotalAppearances != 3 || got.TotalMVP != 1 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if len(result.Regional) != 2 {
		t.Fatalf("expected 2 regions, got %+v", result.Regional)
	}
	for _, region := range result.Regional {
		if region.Region == "서울" && (region.Matches != 10 || region.Wins != 5 || region.Losses != 3) {
			t.Fatalf("unexpected seoul totals: %+v", region)
		}
	}
}

func TestBuildTeamRecord_EqualStreakKeepsEarlierRun(t *testing.T) {
	t.Parallel()

	w, l := season.ResultWin, season.ResultLoss
	record := BuildTeamRecord([]season.Bundle{seasonWith("2024", w, w, l, w, w)})

	got := record.LongestWinStreak
	if got.Count != 2 || got.StartDate != "2024-01-01" || got.EndDate != "2024-01-02" {
		t.Fatalf("expected the first two-match run to be kept, got %+v", got)
	}
}

func TestBuildTeamRecord_EqualWinRateKeepsFirstSeason(t *testing.T) {
	t.Parallel()

	w, d, l := season.ResultWin, season.ResultDraw, season.ResultLoss
	record := BuildTeamRecord([]season.Bundle{
		seasonWith("2021", w, w, w, l, l),
		seasonWith("2022", w, w, w, d, l),
		seasonWith("2023", w, l, l, l, d),
		seasonWith("2024", w, l, l, d, l),
	})

	if record.BestSeason == nil || record.BestSeason.SeasonID != "2021" {
		t.Fatalf("expected the earlier of two 60%% seasons as best, got %+v", record.BestSeason)
	}
	if record.WorstSeason == nil || record.WorstSeason.SeasonID != "2023" {
		t.Fatalf("expected the earlier of two 20%% seasons as worst, got %+v", record.WorstSeason)
	}
}

func TestAggregate_OrdersSeasonIDsNumerically(t *testing.T) {
	t.Parallel()

	w := season.ResultWin
	result := Aggregate([]season.Bundle{seasonWith("2025", w), seasonWith("999", w)})

	if len(result.SeasonIDs) != 2 || result.SeasonIDs[0] != "999" || result.SeasonIDs[1] != "2025" {
		t.Fatalf("expected numeric season order, got %v", result.SeasonIDs)
	}
	if seasons := result.Record.Seasons; seasons[0].SeasonID != "999" {
		t.Fatalf("expected per-season summaries in numeric order, got %+v", seasons)
	}
}
