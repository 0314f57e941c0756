package season

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CompareIDs orders season ids numerically when both are integers and as text
// otherwise, so "999" sorts before "2025".
func CompareIDs(a, b string) int {
	left, leftErr := strconv.Atoi(strings.TrimSpace(a))
	right, rightErr := strconv.Atoi(strings.TrimSpace(b))
	if leftErr == nil && rightErr == nil {
		return cmp.Compare(left, right)
	}
	return strings.Compare(a, b)
}

// Result is the outcome of a match from the club's point of view.
type Result string

const (
	ResultWin  Result = "win"
	ResultDraw Result = "draw"
	ResultLoss Result = "loss"
)

var scorePattern = regexp.MustCompile(`^\d+:\d+$`)

// ParseResult accepts only the canonical lowercase values.
func ParseResult(raw string) (Result, bool) {
	switch result := Result(strings.TrimSpace(raw)); result {
	case ResultWin, ResultDraw, ResultLoss:
		return result, true
	default:
		return "", false
	}
}

// Score is a "goalsFor:goalsAgainst" pair.
type Score string

// ParseScore validates raw against the G:G pattern. Only surrounding spaces are
// ignored.
func ParseScore(raw string) (Score, bool) {
	value := strings.TrimSpace(raw)
	if !scorePattern.MatchString(value) {
		return "", false
	}
	return Score(value), true
}

// Goals splits the score. Invalid scores yield 0:0.
func (s Score) Goals() (int, int) {
	left, right, ok := strings.Cut(string(s), ":")
	if !ok {
		return 0, 0
	}
	goalsFor, err := strconv.Atoi(left)
	if err != nil {
		return 0, 0
	}
	goalsAgainst, err := strconv.Atoi(right)
	if err != nil {
		return 0, 0
	}
	return goalsFor, goalsAgainst
}

type Match struct {
	Date     string `json:"date"`
	Opponent string `json:"opponent"`
	Result   Result `json:"result"`
	Score    Score  `json:"score"`
	MVP      string `json:"mvp,omitempty"`
	// Season is set when matches from several seasons are merged.
	Season string `json:"season,omitempty"`
}

type PlayerSeasonStat struct {
	Name        string `json:"name"`
	Appearances int    `json:"appearances"`
	Goals       int    `json:"goals"`
	MVPCount    int    `json:"mvp"`
}

type ScheduleEntry struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	VenueName    string `json:"venue"`
	Opponent     string `json:"opponent"`
	VenueAddress string `json:"address"`
	Note         string `json:"note"`
}

type RegionalStat struct {
	Region  string `json:"region"`
	Matches int    `json:"matches"`
	Wins    int    `json:"wins"`
	Draws   int    `json:"draws"`
	Losses  int    `json:"losses"`
}

// WinRate is wins/matches as a percentage, 0 when no matches were played.
func (r RegionalStat) WinRate() float64 {
	if r.Matches <= 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Matches) * 100
}

// Source labels for Bundle.Source.
const (
	SourceSheets = "sheets"
	SourceFile   = "file"
)

// Bundle is everything known about one season after normalization.
type Bundle struct {
	SeasonID  string                      `json:"season"`
	Matches   []Match                     `json:"matches"`
	Players   map[string]PlayerSeasonStat `json:"players"`
	Schedules []ScheduleEntry             `json:"schedules"`
	Regional  []RegionalStat              `json:"regional"`
	Source    string                      `json:"source"`
	LoadedAt  time.Time                   `json:"loaded_at"`
}

// Venue is where the next fixture is played.
type Venue struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Info    string `json:"info,omitempty"`
}

// ResolveVenue picks the venue of the first upcoming fixture that names an address,
// falling back to the configured home venue.
func ResolveVenue(schedules []ScheduleEntry, fallback Venue) Venue {
	for _, item := range schedules {
		if strings.TrimSpace(item.VenueAddress) == "" {
			continue
		}
		return Venue{
			Name:    item.VenueName,
			Address: item.VenueAddress,
			Info:    item.Note,
		}
	}
	return fallback
}
