// Package cmd implements the command-line interface for the petatas
// checklist store. It provides a hierarchical command structure for
// importing, inspecting and clearing persisted task collections and
// timer records.
//
// The package is organized into several subpackages:
//
//   - tasks: Commands for the task collection (import, list, clear, perf)
//   - timer: Commands for per-task timer records (show, clear, clear-all)
//   - info: Commands for storage usage reporting
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See petatas -help for a list of all commands.
package cmd
