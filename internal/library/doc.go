// Package library owns the application state shared by every entrypoint.
//
// A Library is constructed once at startup from the config: it builds the
// catalog and fuzzy index, loads the handle cache and opens the run ledger.
// The bot, the daemon and the CLI all receive the same *Library rather than
// reaching for package-level state. Rescans swap in a freshly built catalog
// and index atomically; the handle cache is never rebuilt, only extended.
package library
