// Package runlog records acquisition runs in a small SQLite ledger.
//
// Each completed, cancelled or aborted run is stored with its counts and the
// identifiers that exhausted their retry budget, so operators can review
// history with `voicebot runs` long after the process has exited.
package runlog
