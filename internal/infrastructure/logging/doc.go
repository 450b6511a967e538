// Package logging provides structured logging for genlink-bridge.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same handler and default fields.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	loop.SetLogger(logger.With("component", "discovery"))
//
// # Security
//
// Never log vendor passwords, OAuth tokens or broker credentials.
package logging
