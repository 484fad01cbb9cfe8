package scope

import (
	"os"
	"path/filepath"
	"testing"

	"nodedeps/internal/manifest"
)

func TestBuildIndexExpandsGlobAndSharesScopeID(t *testing.T) {
	root := t.TempDir()
	mustWritePkg(t, root, "packages/x", `{"name":"x","version":"1.0.0"}`)
	mustWritePkg(t, root, "packages/y", `{"name":"y","version":"1.0.0"}`)
	// A non-matching directory must not be picked up.
	if err := os.MkdirAll(filepath.Join(root, "notpackages", "z"), 0o755); err != nil {
		t.Fatal(err)
	}

	canonicalRoot, err := manifest.Canonicalize(root)
	if err != nil {
		t.Fatal(err)
	}
	globs := []string{canonicalRoot + "/packages/*"}

	idx, err := BuildIndex(globs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Members) != 2 {
		t.Fatalf("expected 2 members, got %d: %+v", len(idx.Members), idx.Members)
	}
	for _, m := range idx.Members {
		if m.ParentScopeID != idx.ScopeID {
			t.Errorf("member %s has ParentScopeID %d, want shared %d", m.Name, m.ParentScopeID, idx.ScopeID)
		}
	}
	if idx.Members[0].Name > idx.Members[1].Name {
		t.Errorf("expected members sorted by install path, got %v", idx.Members)
	}
}

func TestBuildIndexByPathLookup(t *testing.T) {
	root := t.TempDir()
	mustWritePkg(t, root, "packages/x", `{"name":"x","version":"1.0.0"}`)
	canonicalRoot, err := manifest.Canonicalize(root)
	if err != nil {
		t.Fatal(err)
	}

	idx, err := BuildIndex([]string{canonicalRoot + "/packages/*"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	xPath, err := manifest.Canonicalize(filepath.Join(root, "packages", "x"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := idx.ByPath(xPath); !ok {
		t.Error("expected ByPath to find member x")
	}
}
