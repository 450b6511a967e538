// Package discovery runs the poll cycle that keeps the device registry in
// step with the vendor cloud.
//
// A Loop owns a single timer. Each cycle fetches every generator the account
// can see, merges the payloads into the registry in order, and hands the
// handles that were created or changed to a Persister. Cycles never overlap:
// a tick that arrives while a cycle is running is dropped with
// ErrCycleInProgress.
//
//	                      ┌──────────────┐
//	   ready / timer ───▶ │     Loop     │ ───▶ Fetcher.FetchDevices
//	                      │  Idle⇄Polling│ ───▶ Registry.Upsert (per payload)
//	                      └──────────────┘ ───▶ Persister.PersistRegistrySnapshot
//
// The timer is re-armed only after a cycle finishes, so a slow fetch delays
// the next cycle rather than stacking ticks. The OnCycle callback runs after
// the state is back to Idle.
//
// Tests use testify's require and assert, like the other domain packages.
package discovery
