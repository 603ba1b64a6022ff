// Package logging assembles structured slog loggers and formatting helpers used
// across voicebot.
//
// It owns the console/JSON handlers, centralizes level and output plumbing
// (stdout plus a size-rotated log file), and exposes typed attribute helpers
// and standard field keys so the pipeline, the bot, and the CLI emit lines of
// the same shape. A no-op logger is provided for tests and wiring code.
package logging
