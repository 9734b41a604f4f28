// Package logging provides the process-wide slog setup used by the CLI
// and available to library consumers that want the same output format.
//
// The handler writes colorized, human-oriented lines to stderr when it is
// attached to a terminal and plain text otherwise. Library packages never
// construct loggers themselves; they accept a *slog.Logger and default to
// a discarding one, so logging stays an application decision.
package logging
