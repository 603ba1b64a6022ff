// Package services defines shared utilities consumed by the bot handlers and
// the Telegram integration.
//
// Key responsibilities:
//   - Context helpers that stamp update IDs, chat IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     as retryable or permanent.
//
// Use these helpers when wiring new handlers so error handling and
// observability stay uniform across entrypoints.
package services
