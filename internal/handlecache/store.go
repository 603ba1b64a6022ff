package handlecache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Store reads and writes the handle cache file.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load returns the persisted mapping. A missing or empty file yields an empty
// mapping.
func (s *Store) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read handle cache: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]string{}, nil
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse handle cache: %w", err)
	}
	return Normalize(raw), nil
}

// Save replaces the file with m. Callers pass the complete mapping.
func (s *Store) Save(m map[string]string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Normalize(m)); err != nil {
		return fmt.Errorf("marshal handle cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create handle cache directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return fmt.Errorf("write handle cache: %w", err)
	}
	return nil
}

// Normalize returns a copy of m with backslashes in keys replaced by forward
// slashes. A nil input yields an empty mapping.
func Normalize(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[NormalizeKey(k)] = v
	}
	return out
}

// NormalizeKey rewrites path separators in a single identifier.
func NormalizeKey(key string) string {
	return strings.ReplaceAll(key, "\\", "/")
}
