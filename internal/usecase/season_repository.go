package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/club-stats/internal/domain/season"
	"github.com/riskibarqy/club-stats/internal/platform/cache"
	"github.com/riskibarqy/club-stats/internal/platform/logging"
	"github.com/riskibarqy/club-stats/internal/platform/resilience"
	"github.com/sourcegraph/conc/panics"
)

const (
	defaultSeasonBatchSize  = 5
	defaultSeasonBatchPause = 100 * time.Millisecond
)

type SeasonRepositoryConfig struct {
	BatchSize  int
	BatchPause time.Duration
	// Retry applies to sources that report themselves retryable.
	Retry resilience.RetryPolicy
}

// SeasonOutcome is the result of loading one season in a batch. Exactly one of
// Bundle and Err is meaningful.
type SeasonOutcome struct {
	SeasonID string
	Bundle   season.Bundle
	Err      error
	// Attempts counts upstream calls made by the load that produced this
	// outcome, including a load shared with a concurrent caller. Zero means the
	// cache answered.
	Attempts int
}

func (o SeasonOutcome) OK() bool {
	return o.Err == nil
}

// SeasonRepository loads seasons through an ordered list of sources and keeps
// every loaded season for the lifetime of the process.
type SeasonRepository struct {
	sources []season.Source
	cache   *cache.Store[season.Bundle]
	loads   resilience.SingleFlight
	cfg     SeasonRepositoryConfig
	logger  *logging.Logger
	now     func() time.Time
}

func NewSeasonRepository(sources []season.Source, cfg SeasonRepositoryConfig, logger *logging.Logger) *SeasonRepository {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultSeasonBatchSize
	}
	if cfg.BatchPause < 0 {
		cfg.BatchPause = defaultSeasonBatchPause
	}
	cfg.Retry = resilience.NormalizeRetryPolicy(cfg.Retry)
	if logger == nil {
		logger = logging.Default()
	}

	return &SeasonRepository{
		sources: sources,
		cache:   cache.NewStore[season.Bundle](0),
		cfg:     cfg,
		logger:  logger.Named("season_repository"),
		now:     time.Now,
	}
}

// Get returns the cached season or loads it. Concurrent callers for the same
// season share one load.
func (r *SeasonRepository) Get(ctx context.Context, seasonID string) (season.Bundle, error) {
	bundle, _, err := r.get(ctx, seasonID)
	return bundle, err
}

// Invalidate drops a cached season so the next Get reloads it.
func (r *SeasonRepository) Invalidate(ctx context.Context, seasonID string) {
	r.cache.Delete(ctx, strings.TrimSpace(seasonID))
}

// LoadBatch loads seasons in groups of BatchSize. A group runs concurrently and
// is awaited before the next one starts. Per-season failures are reported in the
// outcome, never returned.
func (r *SeasonRepository) LoadBatch(ctx context.Context, seasonIDs []string) []SeasonOutcome {
	outcomes := make([]SeasonOutcome, len(seasonIDs))
	for start := 0; start < len(seasonIDs); start += r.cfg.BatchSize {
		if start > 0 && r.cfg.BatchPause > 0 {
			pause := time.NewTimer(r.cfg.BatchPause)
			select {
			case <-ctx.Done():
			case <-pause.C:
			}
			pause.Stop()
		}

		end := min(start+r.cfg.BatchSize, len(seasonIDs))
		r.loadGroup(ctx, seasonIDs[start:end], outcomes[start:end])
	}
	return outcomes
}

func (r *SeasonRepository) loadGroup(ctx context.Context, seasonIDs []string, out []SeasonOutcome) {
	for i, seasonID := range seasonIDs {
		out[i] = SeasonOutcome{SeasonID: seasonID}
	}

	pool, err := ants.NewPool(len(seasonIDs))
	if err != nil {
		r.logger.ErrorContext(ctx, "create season worker pool failed", "seasons", seasonIDs, "error", err)
		for i := range out {
			out[i].Err = fmt.Errorf("%w: create worker pool: %w", ErrAggregateAbort, err)
		}
		return
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i, seasonID := range seasonIDs {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			var catcher panics.Catcher
			catcher.Try(func() {
				bundle, attempts, err := r.get(ctx, seasonID)
				out[i] = SeasonOutcome{SeasonID: seasonID, Bundle: bundle, Err: err, Attempts: attempts}
			})
			if recovered := catcher.Recovered(); recovered != nil {
				r.logger.ErrorContext(ctx, "season load panicked", "season", seasonID, "panic", recovered.Value)
				out[i] = SeasonOutcome{
					SeasonID: seasonID,
					Err:      crerr.Wrapf(ErrAggregateAbort, "season %s: %v", seasonID, recovered.Value),
				}
			}
		}); err != nil {
			workers.Done()
			r.logger.ErrorContext(ctx, "submit season load failed", "season", seasonID, "error", err)
			out[i].Err = fmt.Errorf("%w: submit season %s: %w", ErrAggregateAbort, seasonID, err)
		}
	}
	workers.Wait()

	failed := 0
	for _, outcome := range out {
		if !outcome.OK() {
			failed++
		}
	}
	r.logger.InfoContext(ctx, "season batch finished", "seasons", seasonIDs, "loaded", len(out)-failed, "failed", failed)
}

func (r *SeasonRepository) get(ctx context.Context, seasonID string) (season.Bundle, int, error) {
	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return season.Bundle{}, 0, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	bundle, attempts, err := r.getOnce(ctx, seasonID)
	// A shared load can be cancelled by the caller that started it. Our own
	// context is still live, so try once more as the leader.
	if err != nil && ctx.Err() == nil && errors.Is(err, context.Canceled) {
		bundle, attempts, err = r.getOnce(ctx, seasonID)
	}
	return bundle, attempts, err
}

// seasonLoad is what concurrent callers of one season share.
type seasonLoad struct {
	bundle   season.Bundle
	attempts int
}

func (r *SeasonRepository) getOnce(ctx context.Context, seasonID string) (season.Bundle, int, error) {
	if bundle, ok := r.cache.Get(ctx, seasonID); ok {
		return bundle, 0, nil
	}

	value, err, _ := r.loads.Do(seasonID, func() (any, error) {
		if cached, ok := r.cache.Get(ctx, seasonID); ok {
			return seasonLoad{bundle: cached}, nil
		}

		bundle, attempts, err := r.fetch(ctx, seasonID)
		if err != nil {
			return seasonLoad{attempts: attempts}, err
		}
		stored, _ := r.cache.SetIfAbsent(ctx, seasonID, bundle)
		return seasonLoad{bundle: stored, attempts: attempts}, nil
	})

	load, _ := value.(seasonLoad)
	if err != nil {
		return season.Bundle{}, load.attempts, err
	}
	return load.bundle, load.attempts, nil
}

func (r *SeasonRepository) fetch(ctx context.Context, seasonID string) (season.Bundle, int, error) {
	if len(r.sources) == 0 {
		return season.Bundle{}, 0, fmt.Errorf("%w: no season source configured", ErrDependencyUnavailable)
	}

	var (
		attempts int
		failures []error
	)
	for _, source := range r.sources {
		bundle, n, err := r.fetchFrom(ctx, source, seasonID)
		attempts += n
		if err == nil {
			bundle.SeasonID = seasonID
			if bundle.Source == "" {
				bundle.Source = source.Name()
			}
			bundle.LoadedAt = r.now()
			r.logger.InfoContext(ctx, "season loaded",
				"season", seasonID,
				"source", bundle.Source,
				"attempts", attempts,
				"matches", len(bundle.Matches),
				"players", len(bundle.Players),
			)
			return bundle, attempts, nil
		}

		failures = append(failures, fmt.Errorf("%s: %w", source.Name(), err))
		if ctx.Err() != nil {
			break
		}
		r.logSourceFailure(ctx, source, seasonID, err)
	}

	return season.Bundle{}, attempts, crerr.Wrapf(errors.Join(failures...), "load season %s", seasonID)
}

func (r *SeasonRepository) fetchFrom(ctx context.Context, source season.Source, seasonID string) (season.Bundle, int, error) {
	if !source.Retryable() {
		bundle, err := source.FetchSeason(ctx, seasonID)
		return bundle, 1, err
	}

	policy := r.cfg.Retry
	policy.ShouldRetry = isRetryableSeasonError
	policy.OnRetry = func(attempt int, err error) {
		r.logger.WarnContext(ctx, "retrying season fetch",
			"season", seasonID,
			"source", source.Name(),
			"attempt", attempt,
			"timeout", isSeasonTimeout(err),
			"error", err,
		)
	}

	var bundle season.Bundle
	attempts, err := resilience.Retry(ctx, policy, func(ctx context.Context) error {
		loaded, err := source.FetchSeason(ctx, seasonID)
		if err != nil {
			return err
		}
		bundle = loaded
		return nil
	})
	if err != nil && errors.Is(err, resilience.ErrAttemptTimeout) && !errors.Is(err, ErrTimeout) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return bundle, attempts, err
}

func (r *SeasonRepository) logSourceFailure(ctx context.Context, source season.Source, seasonID string, err error) {
	args := []any{"season", seasonID, "source", source.Name(), "error", err}
	switch {
	case isSeasonTimeout(err):
		r.logger.WarnContext(ctx, "season fetch timed out", args...)
	case errors.Is(err, ErrSeasonNotConfigured):
		r.logger.DebugContext(ctx, "season not configured for source", args...)
	default:
		r.logger.WarnContext(ctx, "season fetch failed", args...)
	}
}

func isRetryableSeasonError(err error) bool {
	return !errors.Is(err, ErrValidation) && !errors.Is(err, ErrSeasonNotConfigured)
}

func isSeasonTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, resilience.ErrAttemptTimeout) || errors.Is(err, context.DeadlineExceeded)
}
