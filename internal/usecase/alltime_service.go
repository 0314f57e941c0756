package usecase

import (
	"context"
	"fmt"
	"slices"

	"github.com/riskibarqy/club-stats/internal/domain/alltime"
	"github.com/riskibarqy/club-stats/internal/domain/ranking"
	"github.com/riskibarqy/club-stats/internal/domain/season"
	"github.com/riskibarqy/club-stats/internal/platform/logging"
	"github.com/samber/lo"
)

// All-time load status.
const (
	LoadStatusComplete = "complete"
	LoadStatusPartial  = "partial"
	LoadStatusFailed   = "failed"
)

type AllTimeInput struct {
	PlayersSort  string
	RegionalSort string
}

type SeasonFailure struct {
	SeasonID string `json:"season"`
	Error    string `json:"error"`
}

type PlayerHighlight struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type AllTimeHighlights struct {
	TopScorer         *PlayerHighlight `json:"top_scorer,omitempty"`
	TopMVP            *PlayerHighlight `json:"top_mvp,omitempty"`
	MostAppearances   *PlayerHighlight `json:"most_appearances,omitempty"`
	RegisteredPlayers int              `json:"registered_players"`
}

type AllTimeView struct {
	Status     string                  `json:"status"`
	Requested  int                     `json:"requested"`
	Loaded     []string                `json:"loaded"`
	Failed     []SeasonFailure         `json:"failed"`
	Highlights AllTimeHighlights       `json:"highlights"`
	Players    []ranking.PlayerLine    `json:"players"`
	Regional   []season.RegionalStat   `json:"regional"`
	Record     alltime.TeamRecord      `json:"record"`
	Trend      []alltime.SeasonSummary `json:"trend"`
}

type seasonBatchLoader interface {
	LoadBatch(ctx context.Context, seasonIDs []string) []SeasonOutcome
}

type AllTimeService struct {
	repo    seasonBatchLoader
	seasons []string
	logger  *logging.Logger
}

func NewAllTimeService(repo seasonBatchLoader, seasons []string, logger *logging.Logger) *AllTimeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AllTimeService{
		repo:    repo,
		seasons: slices.Clone(seasons),
		logger:  logger.Named("alltime_service"),
	}
}

// GetAllTime loads every configured season and aggregates the ones that loaded.
// A partial load still returns a view; when nothing loads the view is returned
// together with ErrDependencyUnavailable.
func (s *AllTimeService) GetAllTime(ctx context.Context, input AllTimeInput) (AllTimeView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AllTimeService.GetAllTime")
	defer span.End()

	view := AllTimeView{
		Requested: len(s.seasons),
		Loaded:    []string{},
		Failed:    []SeasonFailure{},
		Players:   []ranking.PlayerLine{},
		Regional:  []season.RegionalStat{},
		Trend:     []alltime.SeasonSummary{},
	}
	if len(s.seasons) == 0 {
		view.Status = LoadStatusFailed
		return view, fmt.Errorf("%w: no seasons configured", ErrDependencyUnavailable)
	}

	outcomes := s.repo.LoadBatch(ctx, s.seasons)
	bundles := make([]season.Bundle, 0, len(outcomes))
	for _, outcome := range outcomes {
		if !outcome.OK() {
			view.Failed = append(view.Failed, SeasonFailure{SeasonID: outcome.SeasonID, Error: outcome.Err.Error()})
			continue
		}
		bundles = append(bundles, outcome.Bundle)
	}

	view.Status = loadStatus(len(bundles), len(outcomes))
	if len(view.Failed) > 0 {
		s.logger.WarnContext(ctx, "all-time view is missing seasons",
			"status", view.Status,
			"failed", lo.Map(view.Failed, func(f SeasonFailure, _ int) string { return f.SeasonID }),
		)
	}
	if view.Status == LoadStatusFailed {
		return view, fmt.Errorf("%w: no season could be loaded", ErrDependencyUnavailable)
	}

	result := alltime.Aggregate(bundles)
	view.Loaded = result.SeasonIDs
	view.Record = result.Record
	view.Trend = result.Record.Seasons

	lines := AllTimePlayerLines(result.Players)
	view.Highlights = BuildHighlights(lines)
	ranking.SortPlayers(lines, ranking.ParsePlayerMode(input.PlayersSort))
	view.Players = lines

	view.Regional = result.Regional
	ranking.SortRegions(view.Regional, ranking.ParseRegionMode(input.RegionalSort))

	return view, nil
}

func loadStatus(loaded, requested int) string {
	switch {
	case loaded == 0:
		return LoadStatusFailed
	case loaded < requested:
		return LoadStatusPartial
	default:
		return LoadStatusComplete
	}
}

// AllTimePlayerLines returns players with at least one appearance across seasons.
func AllTimePlayerLines(totals map[string]alltime.PlayerTotal) []ranking.PlayerLine {
	out := make([]ranking.PlayerLine, 0, len(totals))
	for name, total := range totals {
		if total.TotalAppearances <= 0 {
			continue
		}
		out = append(out, ranking.PlayerLine{
			Name:        name,
			Appearances: total.TotalAppearances,
			Goals:       total.TotalGoals,
			MVP:         total.TotalMVP,
		})
	}
	return out
}

func BuildHighlights(lines []ranking.PlayerLine) AllTimeHighlights {
	out := AllTimeHighlights{RegisteredPlayers: len(lines)}
	sorted := slices.Clone(lines)

	ranking.SortPlayers(sorted, ranking.PlayerByGoals)
	if len(sorted) > 0 && sorted[0].Goals > 0 {
		out.TopScorer = &PlayerHighlight{Name: sorted[0].Name, Value: sorted[0].Goals}
	}

	ranking.SortPlayers(sorted, ranking.PlayerByMVP)
	if len(sorted) > 0 && sorted[0].MVP > 0 {
		out.TopMVP = &PlayerHighlight{Name: sorted[0].Name, Value: sorted[0].MVP}
	}

	ranking.SortPlayers(sorted, ranking.PlayerByAttendance)
	if len(sorted) > 0 {
		out.MostAppearances = &PlayerHighlight{Name: sorted[0].Name, Value: sorted[0].Appearances}
	}
	return out
}
