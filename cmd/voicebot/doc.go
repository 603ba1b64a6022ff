// Package main hosts the voicebot CLI entrypoint and command graph.
//
// The Cobra command tree runs the bot daemon, drives one-off acquisition runs
// from the terminal and exposes read-only views of the clip library: fuzzy
// search, per-category statistics, category browsing and the run ledger. It
// centralizes configuration resolution and library construction so
// subcommands can focus on presentation.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through a command or flag here.
package main
