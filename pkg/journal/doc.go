// Package journal records pipeline run events.
//
// Every step of a run (load, validate, render, one per generator target)
// emits start and finish events, or skip and fail events, carrying the run
// ID. The journal is separate from operational logging (slog): it is a
// complete machine-readable trace that regflow-log can view and export.
//
// # Basic Usage
//
//	// Console only
//	logger := journal.NewSlogAdapter(slog.Default())
//
//	// Both console and file
//	fl, _ := journal.NewFileLogger(".regflow/journal.rlog")
//	logger := journal.NewMultiLogger(journal.NewSlogAdapter(slog.Default()), fl)
//
// # File Format
//
// Journal files are a stream of CBOR-encoded events with integer keys and
// use the .rlog extension.
package journal
