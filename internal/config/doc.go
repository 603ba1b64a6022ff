// Package config loads, normalizes, and validates voicebot configuration.
//
// Configuration lives in TOML (default ~/.config/voicebot/config.toml, falling
// back to ./voicebot.toml). Secrets may come from the environment or a .env
// file: BOT_TOKEN fills telegram.bot_token when the file leaves it empty. Paths
// are expanded to absolute form during normalization so every consumer sees
// the same locations regardless of the working directory at call time.
//
// Add new settings by extending the section structs, the defaults table, and
// the embedded sample; keep validation here rather than in consumers.
package config
