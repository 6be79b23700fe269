// Package logging provides structured logging for itemstore.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the data-access layer and the CLI.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stderr, stdout, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("item added", "id", id)
//	logger.Error("select failed", "error", err)
//
// Never log database URLs verbatim: they may carry credentials.
package logging
