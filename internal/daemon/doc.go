// Package daemon coordinates the long-running voicebot process.
//
// It wraps the Telegram update loop and the HTTP health endpoint in a single
// lifecycle guarded by a flock-based instance lock in the state directory.
// Both run inside an errgroup: a failure in either cancels the other, and a
// cancelled context shuts both down cleanly.
//
// Keep orchestration logic here. Command routing lives in the bot package and
// acquisition in the acquire and library packages.
package daemon
