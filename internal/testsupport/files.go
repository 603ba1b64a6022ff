package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x4f
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteClips creates small placeholder clips under root for each
// forward-slash identifier.
func WriteClips(t testing.TB, root string, identifiers ...string) {
	t.Helper()
	for _, id := range identifiers {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(id)), 16)
	}
}

// WriteHandleCache seeds a handle cache file with the given mapping.
func WriteHandleCache(t testing.TB, path string, handles map[string]string) {
	t.Helper()
	data, err := json.MarshalIndent(handles, "", "  ")
	if err != nil {
		t.Fatalf("marshal handle cache: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write handle cache: %v", err)
	}
}
