package season

import (
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrMalformedDocument is returned when a season file is not a JSON object.
var ErrMalformedDocument = errors.New("malformed season document")

// NormalizeDocument validates a `{season, matches[], players{}, schedules[], regional[]}`
// document. Individual entries that fail validation are dropped; only a body that is
// not a JSON object fails the whole season.
func NormalizeDocument(seasonID string, raw []byte, today time.Time) (Bundle, error) {
	if !gjson.ValidBytes(raw) {
		return Bundle{}, ErrMalformedDocument
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Bundle{}, ErrMalformedDocument
	}

	return Bundle{
		SeasonID:  seasonID,
		Matches:   documentMatches(doc.Get("matches")),
		Players:   documentPlayers(doc.Get("players")),
		Schedules: documentSchedules(doc.Get("schedules"), today),
		Regional:  documentRegional(doc.Get("regional")),
	}, nil
}

func documentMatches(node gjson.Result) []Match {
	if !node.IsArray() {
		return []Match{}
	}

	out := make([]Match, 0, 32)
	node.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		date, ok := stringField(item, "date")
		if !ok {
			return true
		}
		opponent, ok := stringField(item, "opponent")
		if !ok {
			return true
		}
		result, ok := stringField(item, "result")
		if !ok {
			return true
		}
		score, ok := stringField(item, "score")
		if !ok {
			return true
		}
		mvp, _ := stringField(item, "mvp")

		match, ok := NewMatch(date, opponent, result, score, mvp)
		if ok {
			out = append(out, match)
		}
		return true
	})

	SortMatchesDesc(out)
	return out
}

func documentPlayers(node gjson.Result) map[string]PlayerSeasonStat {
	out := make(map[string]PlayerSeasonStat)
	if !node.IsObject() {
		return out
	}

	node.ForEach(func(key, stats gjson.Result) bool {
		if !stats.IsObject() {
			return true
		}
		name := Sanitize(key.String())
		if name == "" {
			return true
		}
		out[name] = PlayerSeasonStat{
			Name:        name,
			Appearances: countField(stats, "appearances"),
			Goals:       countField(stats, "goals"),
			MVPCount:    countField(stats, "mvp"),
		}
		return true
	})
	return out
}

func documentSchedules(node gjson.Result, today time.Time) []ScheduleEntry {
	if !node.IsArray() {
		return []ScheduleEntry{}
	}

	items := make([]ScheduleEntry, 0, 8)
	node.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		date, _ := stringField(item, "date")
		clock, _ := stringField(item, "time")
		venue, _ := stringField(item, "venue", "venueName")
		opponent, _ := stringField(item, "opponent")
		address, _ := stringField(item, "address", "venueAddress")
		note, _ := stringField(item, "note")

		entry, ok := NewScheduleEntry(date, clock, venue, opponent, address, note)
		if ok {
			items = append(items, entry)
		}
		return true
	})
	return UpcomingSchedules(items, today)
}

func documentRegional(node gjson.Result) []RegionalStat {
	if !node.IsArray() {
		return []RegionalStat{}
	}

	out := make([]RegionalStat, 0, 16)
	node.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		region, _ := stringField(item, "region")
		region = Sanitize(region)
		if region == "" {
			return true
		}
		out = append(out, RegionalStat{
			Region:  region,
			Matches: countField(item, "matches"),
			Wins:    countField(item, "wins"),
			Draws:   countField(item, "draws"),
			Losses:  countField(item, "losses"),
		})
		return true
	})
	return out
}

// stringField returns the first key holding a JSON string.
func stringField(item gjson.Result, keys ...string) (string, bool) {
	for _, key := range keys {
		value := item.Get(key)
		if value.Type == gjson.String {
			return value.Str, true
		}
	}
	return "", false
}

func countField(item gjson.Result, key string) int {
	value := item.Get(key)
	switch value.Type {
	case gjson.Number:
		return clampCount(int(value.Num))
	case gjson.String:
		return ParseCount(strings.TrimSpace(value.Str))
	default:
		return 0
	}
}
