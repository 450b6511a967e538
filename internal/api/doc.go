// Package api serves a small read-only HTTP status API for genlink-bridge.
//
// Routes, all under /api/v1:
//
//	GET /health        dependency checks; 503 when any fails
//	GET /discovery     loop state and the last cycle summary
//	GET /devices       every known generator, ordered by ID
//	GET /devices/{id}  one generator
//
// Any other method returns 405. The server follows the same lifecycle as the
// other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
