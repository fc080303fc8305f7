// Package logging provides structured logging for the input core.
//
// It wraps log/slog with:
//   - JSON output for production, text output for development
//   - Level filtering from configuration
//   - Default fields (service, version) on all log entries
//
// Every package that logs accepts a small Logger interface
// (Debug/Info/Warn/Error), which *Logger satisfies through the embedded
// *slog.Logger.
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting service", "port", 8090)
//	handler.SetLogger(logger.Component("input"))
package logging
