// Package log provides the structured logging facade used across the
// reconciler services.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Records flow through Go's log/slog via a
// bridge handler that hands them to our own formatter and outputs, so output
// looks the same no matter which API produced it.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("chunks"), log.Str("upload_request_id", "RECON-TASK-1"))
//	l.Info("chunk published", log.Int("rows", 250))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text or json
// format, console/file/null outputs, redacted keys, sampling).
//
// # Interop
//
// RedirectStdLog routes the standard library logger (used by Pebble and the
// AMQP client) through a Logger.
package log
