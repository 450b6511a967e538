package discovery

import "errors"

var (
	// ErrCycleInProgress is returned by Tick when a cycle is already running.
	ErrCycleInProgress = errors.New("discovery: cycle in progress")

	// ErrFetchFailed wraps any error from the Fetcher.
	ErrFetchFailed = errors.New("discovery: fetch failed")

	// ErrCyclePanicked is returned when a cycle panicked and was recovered.
	ErrCyclePanicked = errors.New("discovery: cycle panicked")
)
