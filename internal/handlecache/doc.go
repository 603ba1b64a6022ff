// Package handlecache persists the identifier → Telegram file_id mapping.
//
// Store reads and writes the JSON file; every save is a full overwrite
// replaced atomically on disk, and keys are normalized to forward slashes on
// both read and write. Cache is the in-memory view shared by the acquisition
// pipeline (single writer) and the query responder (concurrent readers).
package handlecache
