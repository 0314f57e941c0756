package season

import "context"

// Source resolves one season from a single upstream.
type Source interface {
	Name() string
	// Retryable reports whether transient failures of this source should be retried locally.
	Retryable() bool
	FetchSeason(ctx context.Context, seasonID string) (Bundle, error)
}
