// Package ranking holds the leaderboard orderings. Every ordering ends with a
// Korean, numeric-aware name comparison so results are deterministic.
package ranking

import (
	"math"
	"slices"
	"strings"

	"github.com/riskibarqy/club-stats/internal/domain/season"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PlayerMode selects a player leaderboard ordering.
type PlayerMode string

const (
	PlayerByGoals      PlayerMode = "goals"
	PlayerByAttendance PlayerMode = "attendance"
	PlayerByMVP        PlayerMode = "mvp"
	PlayerByName       PlayerMode = "name"
)

// RegionMode selects a regional table ordering.
type RegionMode string

const (
	RegionByMatches RegionMode = "matches"
	RegionByWins    RegionMode = "wins"
	RegionByDraws   RegionMode = "draws"
	RegionByLosses  RegionMode = "losses"
	RegionByWinRate RegionMode = "winrate"
	RegionByName    RegionMode = "name"
)

// winRateEpsilon is the win-rate difference (in percentage points) below which
// two regions are considered tied.
const winRateEpsilon = 0.01

// PlayerLine is one leaderboard row, per season or all-time.
type PlayerLine struct {
	Name        string `json:"name"`
	Appearances int    `json:"appearances"`
	Goals       int    `json:"goals"`
	MVP         int    `json:"mvp"`
}

// ParsePlayerMode maps a query value to a mode. Unknown values fall back to name order.
func ParsePlayerMode(raw string) PlayerMode {
	switch mode := PlayerMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case PlayerByGoals, PlayerByAttendance, PlayerByMVP, PlayerByName:
		return mode
	default:
		return PlayerByName
	}
}

// ParseRegionMode maps a query value to a mode. Unknown values are returned as-is
// and sort by win rate then name.
func ParseRegionMode(raw string) RegionMode {
	return RegionMode(strings.ToLower(strings.TrimSpace(raw)))
}

// NewCollator returns a collator for club member and region names.
// Collators are not safe for concurrent use; create one per sort.
func NewCollator() *collate.Collator {
	return collate.New(language.Korean, collate.Numeric)
}

// SortPlayers sorts items in place.
func SortPlayers(items []PlayerLine, mode PlayerMode) {
	col := NewCollator()
	byName := func(a, b PlayerLine) int {
		return col.CompareString(a.Name, b.Name)
	}

	var cmp func(a, b PlayerLine) int
	switch mode {
	case PlayerByGoals:
		cmp = func(a, b PlayerLine) int {
			return firstNonZero(b.Goals-a.Goals, b.Appearances-a.Appearances, byName(a, b))
		}
	case PlayerByAttendance:
		cmp = func(a, b PlayerLine) int {
			return firstNonZero(b.Appearances-a.Appearances, b.Goals-a.Goals, byName(a, b))
		}
	case PlayerByMVP:
		cmp = func(a, b PlayerLine) int {
			return firstNonZero(b.MVP-a.MVP, b.Appearances-a.Appearances, byName(a, b))
		}
	default:
		cmp = byName
	}
	slices.SortStableFunc(items, cmp)
}

// SortRegions sorts items in place.
func SortRegions(items []season.RegionalStat, mode RegionMode) {
	col := NewCollator()
	byName := func(a, b season.RegionalStat) int {
		return col.CompareString(a.Region, b.Region)
	}
	byWinRate := func(a, b season.RegionalStat) int {
		diff := b.WinRate() - a.WinRate()
		if math.Abs(diff) <= winRateEpsilon {
			return 0
		}
		if diff > 0 {
			return 1
		}
		return -1
	}

	var cmp func(a, b season.RegionalStat) int
	switch mode {
	case RegionByMatches:
		cmp = func(a, b season.RegionalStat) int {
			return firstNonZero(b.Matches-a.Matches, byName(a, b))
		}
	case RegionByWins:
		cmp = func(a, b season.RegionalStat) int {
			return firstNonZero(b.Wins-a.Wins, b.Matches-a.Matches, byName(a, b))
		}
	case RegionByDraws:
		cmp = func(a, b season.RegionalStat) int {
			return firstNonZero(b.Draws-a.Draws, byName(a, b))
		}
	case RegionByLosses:
		cmp = func(a, b season.RegionalStat) int {
			return firstNonZero(b.Losses-a.Losses, byName(a, b))
		}
	case RegionByWinRate:
		cmp = func(a, b season.RegionalStat) int {
			return firstNonZero(byWinRate(a, b), b.Matches-a.Matches, byName(a, b))
		}
	case RegionByName:
		cmp = byName
	default:
		cmp = func(a, b season.RegionalStat) int {
			return firstNonZero(byWinRate(a, b), byName(a, b))
		}
	}
	slices.SortStableFunc(items, cmp)
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
