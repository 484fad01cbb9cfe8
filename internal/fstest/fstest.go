// Package fstest builds throwaway node_modules-style fixture trees under a
// test's t.TempDir(), shared by every package's tests instead of each one
// hand-rolling its own fixture writer.
package fstest

import (
	"os"
	"path/filepath"
	"testing"
)

// WritePkg writes a package.json with the given raw content at dir/rel,
// creating intermediate directories as needed.
func WritePkg(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(full, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(full, "package.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
