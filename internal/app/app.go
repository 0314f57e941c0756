package app

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/club-stats/external/seasonfile"
	"github.com/riskibarqy/club-stats/external/sheets"
	"github.com/riskibarqy/club-stats/internal/config"
	"github.com/riskibarqy/club-stats/internal/domain/season"
	"github.com/riskibarqy/club-stats/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/club-stats/internal/platform/id"
	"github.com/riskibarqy/club-stats/internal/platform/logging"
	"github.com/riskibarqy/club-stats/internal/platform/resilience"
	"github.com/riskibarqy/club-stats/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	repo := usecase.NewSeasonRepository(seasonSources(cfg, logger), usecase.SeasonRepositoryConfig{
		BatchSize:  cfg.SeasonBatchSize,
		BatchPause: cfg.SeasonBatchPause,
		Retry: resilience.RetryPolicy{
			MaxRetries:     cfg.SeasonFetchRetries,
			Backoff:        cfg.SeasonRetryBackoff,
			AttemptTimeout: cfg.SeasonFetchTimeout,
		},
	}, logger)

	seasonSvc := usecase.NewSeasonService(repo, usecase.SeasonServiceConfig{
		Seasons:       cfg.Seasons,
		DefaultSeason: cfg.DefaultSeason,
		HomeVenue:     season.Venue{Name: cfg.Venue.Name, Address: cfg.Venue.Address, Info: cfg.Venue.Info},
		Location:      cfg.Location,
	})
	allTimeSvc := usecase.NewAllTimeService(repo, cfg.Seasons, logger)

	handler := httpapi.NewHandler(seasonSvc, allTimeSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, idgen.NewRandomGenerator(8))

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}

// seasonSources returns the fallback chain in priority order: the spreadsheet
// when enabled, then the static season files.
func seasonSources(cfg config.Config, logger *logging.Logger) []season.Source {
	transport := otelhttp.NewTransport(http.DefaultTransport)
	sources := make([]season.Source, 0, 2)

	if cfg.SheetsEnabled {
		tables := make(map[string]sheets.SeasonTables, len(cfg.SheetsSeasonTables))
		for seasonID, item := range cfg.SheetsSeasonTables {
			tables[seasonID] = sheets.SeasonTables{
				Matches:   item.Matches,
				Players:   item.Players,
				Schedules: item.Schedules,
				Regional:  item.Regional,
			}
		}
		sources = append(sources, sheets.NewClient(sheets.ClientConfig{
			HTTPClient: &http.Client{Timeout: cfg.SheetsTimeout, Transport: transport},
			BaseURL:    cfg.SheetsBaseURL,
			DocumentID: cfg.SheetsDocumentID,
			Seasons:    tables,
			Timeout:    cfg.SheetsTimeout,
			Logger:     logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.SheetsCircuitEnabled,
				FailureThreshold: cfg.SheetsCircuitFailureCount,
				OpenTimeout:      cfg.SheetsCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.SheetsCircuitHalfOpenMax,
			},
			Location: cfg.Location,
		}))
	}

	// Per-attempt deadlines come from the repository's retry policy.
	sources = append(sources, seasonfile.NewClient(seasonfile.ClientConfig{
		HTTPClient: &http.Client{Transport: transport},
		BaseURL:    cfg.SeasonFileBaseURL,
		Logger:     logger,
		Location:   cfg.Location,
	}))

	return sources
}
