// Package device provides the generator Device Registry for genlink-bridge.
//
// The registry is the set of generators the bridge has ever seen, keyed by an
// identifier derived from the vendor's device id. Each poll cycle merges the
// fresh vendor payloads into it: unknown devices get a presentation created in
// the host, known devices are updated in place, and attribute publishes are
// gated by generator.HasChanged.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                        Device Registry                            │
//	│                                                                   │
//	│  ┌──────────────────┐    ┌──────────────────┐                     │
//	│  │     Registry     │    │    Repository    │                     │
//	│  │  (registry.go)   │    │ (repository.go)  │                     │
//	│  │                  │    │                  │                     │
//	│  │ • Upsert         │    │ • Load snapshot  │                     │
//	│  │ • Restore        │    │ • Persist handles│                     │
//	│  │ • Thread safety  │    │ • JSON columns   │                     │
//	│  └──────────────────┘    └──────────────────┘                     │
//	│           │                       │                               │
//	└───────────│───────────────────────│───────────────────────────────┘
//	            ▼                       ▼
//	┌──────────────────────┐   ┌──────────────────────┐
//	│   Host (bridge pkg)  │   │   SQLite Database    │
//	│  • presentation      │   │   (devices table)    │
//	│  • attribute publish │   └──────────────────────┘
//	└──────────────────────┘
//
// # Identity
//
// DeriveID maps a vendor id to a name-based (SHA-1) UUID. The mapping is
// stable across restarts, so a restored handle and a freshly polled payload
// for the same generator always meet under the same key.
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(host)
//	registry.SetLogger(log)
//
//	handles, err := repo.Load(ctx)
//	if err != nil {
//	    return err
//	}
//	registry.Restore(handles)
//
//	res, err := registry.Upsert(ctx, raw)
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Upsert is expected to be driven by
// a single discovery goroutine; readers may call Lookup and Handles at any time.
//
// Tests use testify's require and assert, like the other domain packages.
package device
