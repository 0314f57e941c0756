package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/club-stats/internal/domain/ranking"
	"github.com/riskibarqy/club-stats/internal/domain/season"
	"github.com/samber/lo"
)

type SeasonCatalog struct {
	Seasons       []string `json:"seasons"`
	DefaultSeason string   `json:"default_season"`
}

type SeasonViewInput struct {
	SeasonID     string
	PlayersSort  string
	RegionalSort string
	// ViewKey groups requests for the same screen. A newer request with the same
	// key cancels the older one.
	ViewKey string
}

type SeasonSummary struct {
	Matches       int     `json:"matches"`
	Wins          int     `json:"wins"`
	Draws         int     `json:"draws"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	GoalsFor      int     `json:"goals_for"`
	GoalsAgainst  int     `json:"goals_against"`
	GoalsPerMatch float64 `json:"goals_per_match"`
}

type SeasonView struct {
	SeasonID  string                 `json:"season"`
	Source    string                 `json:"source"`
	Summary   SeasonSummary          `json:"summary"`
	MVP       *ranking.PlayerLine    `json:"mvp,omitempty"`
	Matches   []season.Match         `json:"matches"`
	Players   []ranking.PlayerLine   `json:"players"`
	Schedules []season.ScheduleEntry `json:"schedules"`
	Regional  []season.RegionalStat  `json:"regional"`
	Venue     season.Venue           `json:"venue"`
}

type seasonLoader interface {
	Get(ctx context.Context, seasonID string) (season.Bundle, error)
}

type SeasonServiceConfig struct {
	Seasons       []string
	DefaultSeason string
	HomeVenue     season.Venue
	Location      *time.Location
}

type SeasonService struct {
	repo  seasonLoader
	cfg   SeasonServiceConfig
	views *viewTracker
	now   func() time.Time
}

func NewSeasonService(repo seasonLoader, cfg SeasonServiceConfig) *SeasonService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cfg.Seasons = slices.Clone(cfg.Seasons)
	if cfg.DefaultSeason == "" && len(cfg.Seasons) > 0 {
		cfg.DefaultSeason = slices.MaxFunc(cfg.Seasons, season.CompareIDs)
	}

	return &SeasonService{
		repo:  repo,
		cfg:   cfg,
		views: newViewTracker(),
		now:   time.Now,
	}
}

func (s *SeasonService) Catalog() SeasonCatalog {
	return SeasonCatalog{
		Seasons:       slices.Clone(s.cfg.Seasons),
		DefaultSeason: s.cfg.DefaultSeason,
	}
}

func (s *SeasonService) GetSeasonView(ctx context.Context, input SeasonViewInput) (SeasonView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.GetSeasonView")
	defer span.End()

	seasonID := strings.TrimSpace(input.SeasonID)
	if seasonID == "" {
		seasonID = s.cfg.DefaultSeason
	}
	if seasonID == "" {
		return SeasonView{}, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if !slices.Contains(s.cfg.Seasons, seasonID) {
		return SeasonView{}, fmt.Errorf("%w: season %s", ErrNotFound, seasonID)
	}

	ctx, done := s.views.begin(ctx, input.ViewKey)
	defer done()

	bundle, err := s.repo.Get(ctx, seasonID)
	if superseded(ctx) {
		return SeasonView{}, ErrSuperseded
	}
	if err != nil {
		return SeasonView{}, fmt.Errorf("get season %s: %w", seasonID, err)
	}

	players := SeasonPlayerLines(bundle.Players)
	ranking.SortPlayers(players, ranking.ParsePlayerMode(input.PlayersSort))

	regional := slices.Clone(bundle.Regional)
	ranking.SortRegions(regional, ranking.ParseRegionMode(input.RegionalSort))

	schedules := season.UpcomingSchedules(bundle.Schedules, s.now().In(s.cfg.Location))

	return SeasonView{
		SeasonID:  seasonID,
		Source:    bundle.Source,
		Summary:   SummarizeMatches(bundle.Matches),
		MVP:       SeasonMVP(bundle.Players),
		Matches:   slices.Clone(bundle.Matches),
		Players:   players,
		Schedules: schedules,
		Regional:  regional,
		Venue:     season.ResolveVenue(schedules, s.cfg.HomeVenue),
	}, nil
}

// SummarizeMatches computes the season headline numbers.
func SummarizeMatches(matches []season.Match) SeasonSummary {
	var out SeasonSummary
	for _, match := range matches {
		goalsFor, goalsAgainst := match.Score.Goals()
		out.Matches++
		out.GoalsFor += goalsFor
		out.GoalsAgainst += goalsAgainst
		switch match.Result {
		case season.ResultWin:
			out.Wins++
		case season.ResultDraw:
			out.Draws++
		case season.ResultLoss:
			out.Losses++
		}
	}
	if out.Matches > 0 {
		out.WinRate = float64(out.Wins) / float64(out.Matches) * 100
		out.GoalsPerMatch = float64(out.GoalsFor) / float64(out.Matches)
	}
	return out
}

// SeasonPlayerLines returns players who appeared at least once.
func SeasonPlayerLines(players map[string]season.PlayerSeasonStat) []ranking.PlayerLine {
	lines := lo.MapToSlice(players, func(name string, stat season.PlayerSeasonStat) ranking.PlayerLine {
		return ranking.PlayerLine{Name: name, Appearances: stat.Appearances, Goals: stat.Goals, MVP: stat.MVPCount}
	})
	return lo.Filter(lines, func(line ranking.PlayerLine, _ int) bool {
		return line.Appearances > 0
	})
}

// SeasonMVP is the player with the most MVP awards among those who appeared,
// ties broken by appearances then name. Nil when nobody appeared.
func SeasonMVP(players map[string]season.PlayerSeasonStat) *ranking.PlayerLine {
	lines := SeasonPlayerLines(players)
	if len(lines) == 0 {
		return nil
	}
	ranking.SortPlayers(lines, ranking.PlayerByMVP)
	top := lines[0]
	return &top
}

type viewEntry struct {
	id     uint64
	cancel context.CancelCauseFunc
}

// viewTracker keeps the latest in-flight load per view key.
type viewTracker struct {
	mu     sync.Mutex
	seq    uint64
	active map[string]viewEntry
}

func newViewTracker() *viewTracker {
	return &viewTracker{active: make(map[string]viewEntry)}
}

func (t *viewTracker) begin(ctx context.Context, key string) (context.Context, func()) {
	key = strings.TrimSpace(key)
	if key == "" {
		return ctx, func() {}
	}

	ctx, cancel := context.WithCancelCause(ctx)

	t.mu.Lock()
	t.seq++
	id := t.seq
	if previous, ok := t.active[key]; ok {
		previous.cancel(ErrSuperseded)
	}
	t.active[key] = viewEntry{id: id, cancel: cancel}
	t.mu.Unlock()

	return ctx, func() {
		t.mu.Lock()
		if current, ok := t.active[key]; ok && current.id == id {
			delete(t.active, key)
		}
		t.mu.Unlock()
		cancel(nil)
	}
}

func superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}
