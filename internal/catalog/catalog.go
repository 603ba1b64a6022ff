package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions lists the clip formats indexed when no override is given.
var DefaultExtensions = []string{".ogg", ".wav"}

// Entry is a single indexed clip.
type Entry struct {
	Identifier string
	Label      string
}

// Catalog is an immutable snapshot of the audio tree.
type Catalog struct {
	root    string
	entries []Entry
	byID    map[string]int
}

type options struct {
	extensions map[string]struct{}
}

// Option customizes Build.
type Option func(*options)

// WithExtensions replaces the extension allow-list. Extensions are compared
// case-insensitively and may be given with or without the leading dot.
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		o.extensions = extensionSet(exts)
	}
}

// Build walks root once and returns the indexed clips. A missing root is
// created and produces an empty catalog. Unreadable subtrees are skipped.
func Build(root string, opts ...Option) (*Catalog, error) {
	o := options{extensions: extensionSet(DefaultExtensions)}
	for _, opt := range opts {
		opt(&o)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve audio root: %w", err)
	}

	info, err := os.Stat(absRoot)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(absRoot, 0o755); err != nil {
			return nil, fmt.Errorf("create audio root: %w", err)
		}
		return newCatalog(absRoot, nil), nil
	case err != nil:
		return newCatalog(absRoot, nil), nil
	case !info.IsDir():
		return nil, fmt.Errorf("audio root %q is not a directory", absRoot)
	}

	var entries []Entry
	_ = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d != nil && d.IsDir() && p != absRoot {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := o.extensions[strings.ToLower(filepath.Ext(p))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return nil
		}
		id := filepath.ToSlash(rel)
		entries = append(entries, Entry{Identifier: id, Label: Label(id)})
		return nil
	})

	return newCatalog(absRoot, entries), nil
}

// New assembles a catalog from already-known identifiers. Labels are derived
// from the identifiers.
func New(root string, identifiers []string) *Catalog {
	entries := make([]Entry, 0, len(identifiers))
	for _, id := range identifiers {
		id = normalizeIdentifier(id)
		entries = append(entries, Entry{Identifier: id, Label: Label(id)})
	}
	return newCatalog(root, entries)
}

func newCatalog(root string, entries []Entry) *Catalog {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Identifier < entries[j].Identifier
	})
	deduped := entries[:0]
	byID := make(map[string]int, len(entries))
	for _, entry := range entries {
		if _, ok := byID[entry.Identifier]; ok {
			continue
		}
		byID[entry.Identifier] = len(deduped)
		deduped = append(deduped, entry)
	}
	return &Catalog{root: root, entries: deduped, byID: byID}
}

// Root returns the absolute audio root.
func (c *Catalog) Root() string { return c.root }

// Len reports the number of clips.
func (c *Catalog) Len() int { return len(c.entries) }

// Entries returns a copy of the entries sorted by identifier.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the entry for identifier.
func (c *Catalog) Lookup(identifier string) (Entry, bool) {
	idx, ok := c.byID[normalizeIdentifier(identifier)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// Path returns the on-disk location of identifier.
func (c *Catalog) Path(identifier string) string {
	return filepath.Join(c.root, filepath.FromSlash(normalizeIdentifier(identifier)))
}

// CategoryCounts returns the number of clips per top-level category.
func (c *Catalog) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, entry := range c.entries {
		counts[Category(entry.Identifier)]++
	}
	return counts
}

// Categories returns the category names in sorted order.
func (c *Catalog) Categories() []string {
	counts := c.CategoryCounts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InCategory returns the entries whose first segment equals category.
func (c *Catalog) InCategory(category string) []Entry {
	var out []Entry
	for _, entry := range c.entries {
		if Category(entry.Identifier) == category {
			out = append(out, entry)
		}
	}
	return out
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
