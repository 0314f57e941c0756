// Package alltime folds per-season bundles into cross-season totals and the team record.
package alltime

import (
	"slices"

	"github.com/riskibarqy/club-stats/internal/domain/season"
	"github.com/samber/lo"
)

// MinSeasonMatches is the number of matches a season needs to qualify as best or worst.
const MinSeasonMatches = 5

type PlayerTotal struct {
	Name             string `json:"name"`
	TotalAppearances int    `json:"total_appearances"`
	TotalGoals       int    `json:"total_goals"`
	TotalMVP         int    `json:"total_mvp"`
}

// Streak is a run of consecutive wins or losses, inclusive of both end dates.
type Streak struct {
	Count     int    `json:"count"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

type SeasonSummary struct {
	SeasonID     string  `json:"season"`
	Matches      int     `json:"matches"`
	Wins         int     `json:"wins"`
	Draws        int     `json:"draws"`
	Losses       int     `json:"losses"`
	GoalsFor     int     `json:"goals_for"`
	GoalsAgainst int     `json:"goals_against"`
	WinRate      float64 `json:"win_rate"`
}

type TeamRecord struct {
	TotalMatches      int             `json:"total_matches"`
	Wins              int             `json:"wins"`
	Draws             int             `json:"draws"`
	Losses            int             `json:"losses"`
	GoalsFor          int             `json:"goals_for"`
	GoalsAgainst      int             `json:"goals_against"`
	LongestWinStreak  Streak          `json:"longest_win_streak"`
	LongestLossStreak Streak          `json:"longest_loss_streak"`
	HighestScoring    *season.Match   `json:"highest_scoring,omitempty"`
	MostConceded      *season.Match   `json:"most_conceded,omitempty"`
	BestSeason        *SeasonSummary  `json:"best_season,omitempty"`
	WorstSeason       *SeasonSummary  `json:"worst_season,omitempty"`
	Seasons           []SeasonSummary `json:"seasons"`
}

// Result is the aggregate over every successfully loaded season.
type Result struct {
	SeasonIDs []string               `json:"seasons"`
	Players   map[string]PlayerTotal `json:"players"`
	Regional  []season.RegionalStat  `json:"regional"`
	Record    TeamRecord             `json:"record"`
}

// Aggregate combines bundles. Input order does not matter; seasons are processed
// in ascending id order. Nil or empty input yields an empty result.
func Aggregate(bundles []season.Bundle) Result {
	ordered := slices.Clone(bundles)
	slices.SortStableFunc(ordered, func(a, b season.Bundle) int {
		return season.CompareIDs(a.SeasonID, b.SeasonID)
	})

	return Result{
		SeasonIDs: lo.Map(ordered, func(b season.Bundle, _ int) string { return b.SeasonID }),
		Players:   PlayerTotals(ordered),
		Regional:  RegionalTotals(ordered),
		Record:    BuildTeamRecord(ordered),
	}
}

// PlayerTotals sums per-season player stats by exact name.
func PlayerTotals(bundles []season.Bundle) map[string]PlayerTotal {
	out := make(map[string]PlayerTotal)
	for _, bundle := range bundles {
		for name, stat := range bundle.Players {
			total := out[name]
			total.Name = name
			total.TotalAppearances += stat.Appearances
			total.TotalGoals += stat.Goals
			total.TotalMVP += stat.MVPCount
			out[name] = total
		}
	}
	return out
}

// RegionalTotals sums regional stats by exact region, keeping first-seen order.
func RegionalTotals(bundles []season.Bundle) []season.RegionalStat {
	index := make(map[string]int)
	out := make([]season.RegionalStat, 0, 16)
	for _, bundle := range bundles {
		for _, stat := range bundle.Regional {
			pos, ok := index[stat.Region]
			if !ok {
				index[stat.Region] = len(out)
				out = append(out, stat)
				continue
			}
			out[pos].Matches += stat.Matches
			out[pos].Wins += stat.Wins
			out[pos].Draws += stat.Draws
			out[pos].Losses += stat.Losses
		}
	}
	return out
}

// BuildTeamRecord expects bundles ordered by season id.
func BuildTeamRecord(bundles []season.Bundle) TeamRecord {
	record := TeamRecord{Seasons: []SeasonSummary{}}

	merged := make([]season.Match, 0, 128)
	for _, bundle := range bundles {
		for _, match := range bundle.Matches {
			match.Season = bundle.SeasonID
			merged = append(merged, match)
		}
	}
	season.SortMatchesAsc(merged)

	var (
		winRun, lossRun     Streak
		maxGoals, maxConced = -1, -1
	)
	for _, match := range merged {
		goalsFor, goalsAgainst := match.Score.Goals()

		record.TotalMatches++
		record.GoalsFor += goalsFor
		record.GoalsAgainst += goalsAgainst

		switch match.Result {
		case season.ResultWin:
			record.Wins++
			winRun = extend(winRun, match.Date)
			lossRun = Streak{}
			if winRun.Count > record.LongestWinStreak.Count {
				record.LongestWinStreak = winRun
			}
		case season.ResultLoss:
			record.Losses++
			lossRun = extend(lossRun, match.Date)
			winRun = Streak{}
			if lossRun.Count > record.LongestLossStreak.Count {
				record.LongestLossStreak = lossRun
			}
		default:
			record.Draws++
			winRun = Streak{}
			lossRun = Streak{}
		}

		if goalsFor > maxGoals {
			maxGoals = goalsFor
			highest := match
			record.HighestScoring = &highest
		}
		if goalsAgainst > maxConced {
			maxConced = goalsAgainst
			conceded := match
			record.MostConceded = &conceded
		}
	}

	for _, bundle := range bundles {
		if len(bundle.Matches) == 0 {
			continue
		}
		record.Seasons = append(record.Seasons, summarize(bundle))
	}
	record.BestSeason, record.WorstSeason = bestAndWorst(record.Seasons)

	return record
}

func extend(run Streak, date string) Streak {
	if run.Count == 0 {
		run.StartDate = date
	}
	run.Count++
	run.EndDate = date
	return run
}

func summarize(bundle season.Bundle) SeasonSummary {
	summary := SeasonSummary{SeasonID: bundle.SeasonID}
	for _, match := range bundle.Matches {
		goalsFor, goalsAgainst := match.Score.Goals()
		summary.Matches++
		summary.GoalsFor += goalsFor
		summary.GoalsAgainst += goalsAgainst
		switch match.Result {
		case season.ResultWin:
			summary.Wins++
		case season.ResultLoss:
			summary.Losses++
		default:
			summary.Draws++
		}
	}
	if summary.Matches > 0 {
		summary.WinRate = float64(summary.Wins) / float64(summary.Matches) * 100
	}
	return summary
}

// bestAndWorst returns the first qualifying season with the highest and lowest
// win rate. Seasons below MinSeasonMatches never qualify.
func bestAndWorst(items []SeasonSummary) (*SeasonSummary, *SeasonSummary) {
	var best, worst *SeasonSummary
	bestRate, worstRate := -1.0, 101.0
	for i := range items {
		item := &items[i]
		if item.Matches < MinSeasonMatches {
			continue
		}
		if item.WinRate > bestRate {
			bestRate = item.WinRate
			best = item
		}
		if item.WinRate < worstRate {
			worstRate = item.WinRate
			worst = item
		}
	}
	if best != nil {
		copied := *best
		best = &copied
	}
	if worst != nil {
		copied := *worst
		worst = &copied
	}
	return best, worst
}
