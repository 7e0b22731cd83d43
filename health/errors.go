package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check did not finish before the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrStaleHead indicates the latest block is older than the configured threshold.
	ErrStaleHead = errors.New("health: chain head is stale")
)
