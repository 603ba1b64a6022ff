// Package catalog indexes the audio clip tree.
//
// A catalog is built by a single walk of the audio root. Each clip with an
// allowed extension becomes an Entry keyed by its root-relative,
// forward-slash identifier, paired with a human-readable label derived purely
// from that identifier ("[Protoss/Zealot] attack"). Catalogs are immutable once
// built; rescans produce a fresh catalog.
package catalog
