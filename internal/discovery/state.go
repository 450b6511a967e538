package discovery

import "time"

// State is the loop's position in its cycle.
type State int32

const (
	// StateIdle means no cycle is running.
	StateIdle State = iota

	// StatePolling means a cycle holds the single-flight guard.
	StatePolling
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	default:
		return "unknown"
	}
}

// CycleReport summarises one completed cycle.
type CycleReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Fetched is the number of payloads the fetcher returned.
	Fetched int `json:"fetched"`

	// Created, Changed and Failed count per-device upsert outcomes.
	Created int `json:"created"`
	Changed int `json:"changed"`
	Failed  int `json:"failed"`

	// Persisted is the number of handles handed to the persister.
	Persisted int `json:"persisted"`

	// Err is the cycle-level failure, if any. Per-device failures are
	// counted in Failed and do not set Err.
	Err error `json:"-"`
}

// Duration returns how long the cycle ran.
func (r CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// OK reports whether the cycle completed without a cycle-level failure.
func (r CycleReport) OK() bool {
	return r.Err == nil
}
