package season

import (
	"slices"
	"strings"
	"time"

	"github.com/riskibarqy/club-stats/internal/platform/csvtable"
)

// Spreadsheet column labels, Korean first, English aliases after.
var (
	colDate         = []string{"날짜", "date"}
	colOpponent     = []string{"상대팀", "opponent"}
	colResult       = []string{"결과", "result"}
	colScore        = []string{"스코어", "score"}
	colMVP          = []string{"MVP", "mvp"}
	colName         = []string{"이름", "name"}
	colAppearances  = []string{"출장", "appearances"}
	colGoals        = []string{"골", "goals"}
	colTime         = []string{"시간", "time"}
	colVenueName    = []string{"구장명", "venue", "venueName"}
	colVenueAddress = []string{"구장주소", "address", "venueAddress"}
	colNote         = []string{"비고", "note"}
	colRegion       = []string{"지역", "region"}
	colMatches      = []string{"경기수", "matches"}
	colWins         = []string{"승", "wins"}
	colDraws        = []string{"무", "draws"}
	colLosses       = []string{"패", "losses"}
)

// sheetResults maps the result labels typed into the spreadsheet. The season
// files carry canonical values only.
var sheetResults = map[string]Result{
	"승": ResultWin,
	"무": ResultDraw,
	"패": ResultLoss,
}

func sheetResult(raw string) string {
	value := strings.TrimSpace(raw)
	if result, ok := sheetResults[value]; ok {
		return string(result)
	}
	return value
}

var htmlSignificant = strings.NewReplacer("&", "", "<", "", ">", "", `"`, "", "'", "")

// Sanitize strips characters that could form markup once rendered.
func Sanitize(value string) string {
	return strings.TrimSpace(htmlSignificant.Replace(value))
}

// ParseCount parses the leading integer of raw. Anything unparseable is 0 and
// negative values are clamped to 0.
func ParseCount(raw string) int {
	value := strings.TrimSpace(raw)
	negative := false
	if value != "" && (value[0] == '-' || value[0] == '+') {
		negative = value[0] == '-'
		value = value[1:]
	}

	out := 0
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c < '0' || c > '9' {
			break
		}
		if out > (1<<31)/10 {
			break
		}
		out = out*10 + int(c-'0')
	}
	if negative {
		return 0
	}
	return out
}

func clampCount(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// NewMatch validates and sanitizes one match. Rows missing date or opponent, with
// an unknown result or a malformed score are rejected.
func NewMatch(date, opponent, result, score, mvp string) (Match, bool) {
	date = Sanitize(date)
	opponent = Sanitize(opponent)
	if date == "" || opponent == "" {
		return Match{}, false
	}

	parsedResult, ok := ParseResult(result)
	if !ok {
		return Match{}, false
	}
	parsedScore, ok := ParseScore(score)
	if !ok {
		return Match{}, false
	}

	return Match{
		Date:     date,
		Opponent: opponent,
		Result:   parsedResult,
		Score:    parsedScore,
		MVP:      Sanitize(mvp),
	}, true
}

func NormalizeMatchRows(rows []csvtable.Row) []Match {
	out := make([]Match, 0, len(rows))
	for _, row := range rows {
		item, ok := NewMatch(
			row.Get(colDate...),
			row.Get(colOpponent...),
			sheetResult(row.Get(colResult...)),
			row.Get(colScore...),
			row.Get(colMVP...),
		)
		if !ok {
			continue
		}
		out = append(out, item)
	}
	SortMatchesDesc(out)
	return out
}

func NormalizePlayerRows(rows []csvtable.Row) map[string]PlayerSeasonStat {
	out := make(map[string]PlayerSeasonStat, len(rows))
	for _, row := range rows {
		name := Sanitize(row.Get(colName...))
		if name == "" {
			continue
		}
		out[name] = PlayerSeasonStat{
			Name:        name,
			Appearances: ParseCount(row.Get(colAppearances...)),
			Goals:       ParseCount(row.Get(colGoals...)),
			MVPCount:    ParseCount(row.Get(colMVP...)),
		}
	}
	return out
}

// NormalizeScheduleRows keeps fixtures dated today or later, ascending by date.
func NormalizeScheduleRows(rows []csvtable.Row, today time.Time) []ScheduleEntry {
	out := make([]ScheduleEntry, 0, len(rows))
	for _, row := range rows {
		item, ok := NewScheduleEntry(
			row.Get(colDate...),
			row.Get(colTime...),
			row.Get(colVenueName...),
			row.Get(colOpponent...),
			row.Get(colVenueAddress...),
			row.Get(colNote...),
		)
		if !ok {
			continue
		}
		out = append(out, item)
	}
	return UpcomingSchedules(out, today)
}

func NewScheduleEntry(date, clock, venueName, opponent, venueAddress, note string) (ScheduleEntry, bool) {
	date = Sanitize(date)
	opponent = Sanitize(opponent)
	if date == "" || opponent == "" {
		return ScheduleEntry{}, false
	}
	return ScheduleEntry{
		Date:         date,
		Time:         Sanitize(clock),
		VenueName:    Sanitize(venueName),
		Opponent:     opponent,
		VenueAddress: Sanitize(venueAddress),
		Note:         Sanitize(note),
	}, true
}

// UpcomingSchedules drops entries with unparseable dates or dates before today and
// sorts the rest ascending. Comparison is on calendar dates only.
func UpcomingSchedules(items []ScheduleEntry, today time.Time) []ScheduleEntry {
	loc := today.Location()
	day := truncateDay(today)

	type dated struct {
		entry ScheduleEntry
		at    time.Time
	}
	kept := make([]dated, 0, len(items))
	for _, item := range items {
		at, ok := ParseDate(item.Date, loc)
		if !ok {
			continue
		}
		if truncateDay(at).Before(day) {
			continue
		}
		kept = append(kept, dated{entry: item, at: at})
	}

	slices.SortStableFunc(kept, func(a, b dated) int {
		return a.at.Compare(b.at)
	})

	out := make([]ScheduleEntry, 0, len(kept))
	for _, item := range kept {
		out = append(out, item.entry)
	}
	return out
}

func NormalizeRegionalRows(rows []csvtable.Row) []RegionalStat {
	out := make([]RegionalStat, 0, len(rows))
	for _, row := range rows {
		region := Sanitize(row.Get(colRegion...))
		if region == "" {
			continue
		}
		out = append(out, RegionalStat{
			Region:  region,
			Matches: ParseCount(row.Get(colMatches...)),
			Wins:    ParseCount(row.Get(colWins...)),
			Draws:   ParseCount(row.Get(colDraws...)),
			Losses:  ParseCount(row.Get(colLosses...)),
		})
	}
	return out
}

// SortMatchesDesc orders matches most recent first. Unparseable dates go last.
func SortMatchesDesc(items []Match) {
	sortMatches(items, true)
}

// SortMatchesAsc orders matches oldest first. Unparseable dates go last.
func SortMatchesAsc(items []Match) {
	sortMatches(items, false)
}

func sortMatches(items []Match, desc bool) {
	slices.SortStableFunc(items, func(a, b Match) int {
		left, okLeft := ParseDate(a.Date, time.UTC)
		right, okRight := ParseDate(b.Date, time.UTC)
		switch {
		case okLeft && okRight:
			if desc {
				return right.Compare(left)
			}
			return left.Compare(right)
		case okLeft:
			return -1
		case okRight:
			return 1
		default:
			return 0
		}
	})
}

var dateLayouts = []string{
	"2006-1-2",
	"2006.1.2",
	"2006/1/2",
	"2006-1-2 15:04",
	"2006-1-2 15:04:05",
	"2006-1-2T15:04:05",
	time.RFC3339,
}

// ParseDate accepts ISO dates and the dotted "2025. 3. 1." form spreadsheets produce.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	candidates := []string{value}
	if compact := strings.TrimSuffix(strings.ReplaceAll(value, " ", ""), "."); compact != value {
		candidates = append(candidates, compact)
	}
	for _, candidate := range candidates {
		for _, layout := range dateLayouts {
			if parsed, err := time.ParseInLocation(layout, candidate, loc); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
