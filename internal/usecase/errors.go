package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrSeasonNotConfigured means a source has no mapping for the requested season.
	ErrSeasonNotConfigured = errors.New("season not configured")
	// ErrSourceUnavailable covers network failures and non-2xx upstream answers.
	ErrSourceUnavailable = errors.New("season source unavailable")
	ErrTimeout           = errors.New("season fetch timed out")
	// ErrValidation is a season document that could not be parsed at all.
	ErrValidation = errors.New("season data invalid")
	// ErrAggregateAbort marks seasons lost to a failure of the batch itself.
	ErrAggregateAbort = errors.New("season batch aborted")
	// ErrSuperseded is returned to a view load replaced by a newer one for the same view.
	ErrSuperseded = errors.New("superseded by a newer request")
)
