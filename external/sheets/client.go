package sheets

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/club-stats/internal/domain/season"
	"github.com/riskibarqy/club-stats/internal/platform/csvtable"
	"github.com/riskibarqy/club-stats/internal/platform/logging"
	"github.com/riskibarqy/club-stats/internal/platform/resilience"
	"github.com/riskibarqy/club-stats/internal/usecase"
	"github.com/sourcegraph/conc/pool"
	"github.com/valyala/bytebufferpool"
)

const (
	defaultBaseURL = "https://docs.google.com/spreadsheets/d"
	maxTableBytes  = 4 << 20
)

// SeasonTables holds the sheet (gid) ids of one season's four tables.
type SeasonTables struct {
	Matches   string
	Players   string
	Schedules string
	Regional  string
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	DocumentID     string
	Seasons        map[string]SeasonTables
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Location       *time.Location
}

// Client reads a season from the club spreadsheet's CSV export.
type Client struct {
	httpClient *http.Client
	baseURL    string
	documentID string
	seasons    map[string]SeasonTables
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	location   *time.Location
	now        func() time.Time
	// maxBody caps each table export; larger exports are rejected, not truncated.
	maxBody int64
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	seasons := make(map[string]SeasonTables, len(cfg.Seasons))
	for id, tables := range cfg.Seasons {
		seasons[strings.TrimSpace(id)] = tables
	}
	breaker := resilience.NewCircuitBreaker(cfg.CircuitBreaker)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("sheets circuit breaker state changed", "from", from, "to", to)
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		documentID: strings.TrimSpace(cfg.DocumentID),
		seasons:    seasons,
		logger:     logger,
		breaker:    breaker,
		location:   location,
		now:        time.Now,
		maxBody:    maxTableBytes,
	}
}

func (c *Client) Name() string {
	return season.SourceSheets
}

// Retryable is false: a failing spreadsheet falls through to the next source
// instead of being retried.
func (c *Client) Retryable() bool {
	return false
}

func (c *Client) FetchSeason(ctx context.Context, seasonID string) (season.Bundle, error) {
	tables, ok := c.seasons[strings.TrimSpace(seasonID)]
	if !ok || c.documentID == "" || tables.Matches == "" {
		return season.Bundle{}, fmt.Errorf("%w: no spreadsheet tables for season %s", usecase.ErrSeasonNotConfigured, seasonID)
	}

	var bundle season.Bundle
	err := c.breaker.Do(func() error {
		var fetchErr error
		bundle, fetchErr = c.fetchSeason(ctx, seasonID, tables)
		return fetchErr
	}, isCircuitFailure)
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "sheets circuit breaker rejected request", "season", seasonID, "state", c.breaker.State())
		return season.Bundle{}, fmt.Errorf("%w: spreadsheet is temporarily unavailable: %w", usecase.ErrSourceUnavailable, err)
	}
	return bundle, err
}

func (c *Client) fetchSeason(ctx context.Context, seasonID string, tables SeasonTables) (season.Bundle, error) {
	var matches, players, schedules, regional []csvtable.Row

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(c.tableTask(tables.Matches, "matches", &matches))
	p.Go(c.tableTask(tables.Players, "players", &players))
	p.Go(c.tableTask(tables.Schedules, "schedules", &schedules))
	p.Go(c.tableTask(tables.Regional, "regional", &regional))
	if err := p.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return season.Bundle{}, ctxErr
		}
		return season.Bundle{}, crerr.Wrapf(err, "fetch spreadsheet season %s", seasonID)
	}

	return season.Bundle{
		SeasonID:  seasonID,
		Matches:   season.NormalizeMatchRows(matches),
		Players:   season.NormalizePlayerRows(players),
		Schedules: season.NormalizeScheduleRows(schedules, c.now().In(c.location)),
		Regional:  season.NormalizeRegionalRows(regional),
		Source:    season.SourceSheets,
	}, nil
}

func (c *Client) tableTask(gid, table string, dst *[]csvtable.Row) func(context.Context) error {
	return func(ctx context.Context) error {
		if strings.TrimSpace(gid) == "" {
			*dst = nil
			return nil
		}
		rows, err := c.fetchTable(ctx, gid)
		if err != nil {
			return fmt.Errorf("%s table: %w", table, err)
		}
		*dst = rows
		return nil
	}
}

func (c *Client) fetchTable(ctx context.Context, gid string) ([]csvtable.Row, error) {
	values := url.Values{}
	values.Set("format", "csv")
	values.Set("gid", strings.TrimSpace(gid))
	fullURL := c.baseURL + "/" + url.PathEscape(c.documentID) + "/export?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", usecase.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, c.maxBody+1)); err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", usecase.ErrSourceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status=%d", usecase.ErrSourceUnavailable, resp.StatusCode)
	}
	if int64(buf.Len()) > c.maxBody {
		return nil, fmt.Errorf("%w: table export exceeds %d bytes", usecase.ErrValidation, c.maxBody)
	}

	rows, err := csvtable.Parse(buf.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecase.ErrValidation, err)
	}
	return rows, nil
}

func isCircuitFailure(err error) bool {
	return !stderrors.Is(err, context.Canceled) && !stderrors.Is(err, usecase.ErrValidation)
}
