// Package acquire uploads clips that have no Telegram handle yet.
//
// A Pipeline walks the catalog in identifier order. Entries already present
// in the handle cache are skipped; the rest are handed to a Transport, whose
// tagged Outcome drives a bounded retry loop: rate-limited outcomes wait out
// the reported cooldown plus a safety margin, transient failures wait a fixed
// delay, and every retry consumes one attempt of the per-entry budget.
// Successful handles land in the in-memory cache immediately and the cache is
// checkpointed to disk every few successes and once more when the run ends.
//
// Runs are resumable by construction: status is derived only from the cache
// loaded at startup, so a restarted run skips everything that already
// succeeded.
package acquire
