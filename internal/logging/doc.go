// Package logging assembles the structured slog loggers used across snag.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// exposes attr helpers so engine and daemon code tag log lines with job IDs
// and component names in a consistent shape. A no-op logger is provided for
// tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the system.
package logging
