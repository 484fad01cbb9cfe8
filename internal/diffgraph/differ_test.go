package diffgraph

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nodedeps/internal/fstest"
	"nodedeps/internal/graph"
	"nodedeps/internal/manifest"
	"nodedeps/internal/scope"
	"nodedeps/internal/version"
)

var writePkg = fstest.WritePkg

func resolveRoot(t *testing.T, dir string) (*graph.Resolver, *graph.Node) {
	t.Helper()
	rootScope, err := scope.FromFolder(filepath.Join(dir, "node_modules"), nil)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := manifest.Read(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	r := graph.New(rootScope, graph.UnboundedDepth, nil)
	root, err := r.ResolveRoot(rec)
	if err != nil {
		t.Fatal(err)
	}
	return r, root
}

// Invariant 4: diffing a resolved tree against itself prunes to nil all the
// way down, however deep its dependency graph.
func TestDiffIdenticalTreesPrunesToNil(t *testing.T) {
	dir := t.TempDir()
	writePkg(t, dir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)
	writePkg(t, dir, "node_modules/a", `{"name":"a","version":"1.0.0","dependencies":{"b":"^1.0.0"}}`)
	writePkg(t, dir, "node_modules/b", `{"name":"b","version":"1.0.0","dependencies":{"a":"^1.0.0"}}`)

	r, root := resolveRoot(t, dir)

	d := New(r, r)
	if got := d.Diff(root, root); got != nil {
		t.Fatalf("expected nil diff for identical tree (incl. a cyclic one), got %+v", got)
	}
}

// A version bump on a leaf dependency surfaces as a Changed entry, and the
// change propagates up as a non-nil DiffNode at every ancestor.
func TestDiffVersionBumpSurfacesAsChanged(t *testing.T) {
	leftDir := t.TempDir()
	writePkg(t, leftDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)
	writePkg(t, leftDir, "node_modules/a", `{"name":"a","version":"1.0.0"}`)

	rightDir := t.TempDir()
	writePkg(t, rightDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)
	writePkg(t, rightDir, "node_modules/a", `{"name":"a","version":"1.1.0"}`)

	lr, lRoot := resolveRoot(t, leftDir)
	rr, rRoot := resolveRoot(t, rightDir)

	d := New(lr, rr)
	diffNode := d.Diff(lRoot, rRoot)
	if diffNode == nil {
		t.Fatal("expected a non-nil diff: a's version changed")
	}
	dd, ok := diffNode.Dependencies["a"]
	if !ok {
		t.Fatal("expected a changed entry for dependency a")
	}
	if dd.Kind != Changed {
		t.Fatalf("expected Changed, got %v", dd.Kind)
	}
	if dd.Entry.Kind != EntryResolved {
		t.Fatalf("expected the inner entry to still be Resolved, got %v", dd.Entry.Kind)
	}
	sub, ok := d.Lookup(dd.Entry.Paired)
	if !ok || sub == nil {
		t.Fatal("expected a non-nil cached sub-diff for the paired key")
	}
}

// A dependency only present on one side surfaces as Added or Removed, and
// never triggers recursion into the missing side.
func TestDiffAddedAndRemovedDependencies(t *testing.T) {
	leftDir := t.TempDir()
	writePkg(t, leftDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0","gone":"^1.0.0"}}`)
	writePkg(t, leftDir, "node_modules/a", `{"name":"a","version":"1.0.0"}`)
	writePkg(t, leftDir, "node_modules/gone", `{"name":"gone","version":"1.0.0"}`)

	rightDir := t.TempDir()
	writePkg(t, rightDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0","new":"^2.0.0"}}`)
	writePkg(t, rightDir, "node_modules/a", `{"name":"a","version":"1.0.0"}`)
	writePkg(t, rightDir, "node_modules/new", `{"name":"new","version":"2.0.0"}`)

	lr, lRoot := resolveRoot(t, leftDir)
	rr, rRoot := resolveRoot(t, rightDir)

	d := New(lr, rr)
	diffNode := d.Diff(lRoot, rRoot)
	if diffNode == nil {
		t.Fatal("expected a non-nil diff")
	}
	if len(diffNode.Dependencies) != 2 {
		t.Fatalf("expected exactly gone/new to differ, a unchanged; got %+v", diffNode.Dependencies)
	}
	if dd, ok := diffNode.Dependencies["gone"]; !ok || dd.Kind != Removed {
		t.Fatalf("expected gone to be Removed, got %+v", diffNode.Dependencies["gone"])
	}
	if dd, ok := diffNode.Dependencies["new"]; !ok || dd.Kind != Added {
		t.Fatalf("expected new to be Added, got %+v", diffNode.Dependencies["new"])
	}
	if _, ok := diffNode.Dependencies["a"]; ok {
		t.Error("expected unchanged dependency a to be pruned from the diff map")
	}
}

// A requirement-string-only change (same resolved version) still surfaces,
// even though the resolved subtree is identical.
func TestDiffRequirementChangeWithSameResolutionStillSurfaces(t *testing.T) {
	leftDir := t.TempDir()
	writePkg(t, leftDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)
	writePkg(t, leftDir, "node_modules/a", `{"name":"a","version":"1.0.0"}`)

	rightDir := t.TempDir()
	writePkg(t, rightDir, ".", `{"name":"root","dependencies":{"a":"~1.0.0"}}`)
	writePkg(t, rightDir, "node_modules/a", `{"name":"a","version":"1.0.0"}`)

	lr, lRoot := resolveRoot(t, leftDir)
	rr, rRoot := resolveRoot(t, rightDir)

	d := New(lr, rr)
	diffNode := d.Diff(lRoot, rRoot)
	if diffNode == nil {
		t.Fatal("expected a non-nil diff: the declared requirement text changed")
	}
	dd, ok := diffNode.Dependencies["a"]
	if !ok || dd.Kind != Changed {
		t.Fatalf("expected a Changed entry for a, got %+v", diffNode.Dependencies["a"])
	}
	// The resolved subtree itself is identical, so it must not be cached as
	// a populated DiffNode.
	sub, ok := d.Lookup(dd.Entry.Paired)
	if !ok {
		t.Fatal("expected the paired sub-diff to have been computed (cached)")
	}
	if sub != nil {
		t.Errorf("expected the resolved sub-diff to be nil (identical subtree), got %+v", sub)
	}
}

// Missing on both sides never surfaces as a change.
func TestDiffMissingBothSidesIsUnchanged(t *testing.T) {
	leftDir := t.TempDir()
	writePkg(t, leftDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)

	rightDir := t.TempDir()
	writePkg(t, rightDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)

	lr, lRoot := resolveRoot(t, leftDir)
	rr, rRoot := resolveRoot(t, rightDir)

	d := New(lr, rr)
	if got := d.Diff(lRoot, rRoot); got != nil {
		t.Fatalf("expected nil diff: a is missing identically on both sides, got %+v", got)
	}
}

// Resolved vs Missing is a MismatchedResolution, not a silent Added/Removed.
func TestDiffResolvedVsMissingIsMismatched(t *testing.T) {
	leftDir := t.TempDir()
	writePkg(t, leftDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)
	writePkg(t, leftDir, "node_modules/a", `{"name":"a","version":"1.0.0"}`)

	rightDir := t.TempDir()
	writePkg(t, rightDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0"}}`)

	lr, lRoot := resolveRoot(t, leftDir)
	rr, rRoot := resolveRoot(t, rightDir)

	d := New(lr, rr)
	diffNode := d.Diff(lRoot, rRoot)
	if diffNode == nil {
		t.Fatal("expected a non-nil diff")
	}
	dd, ok := diffNode.Dependencies["a"]
	if !ok || dd.Kind != Changed {
		t.Fatalf("expected a Changed entry, got %+v", dd)
	}
	if dd.Entry.Kind != EntryMismatchedResolution {
		t.Fatalf("expected EntryMismatchedResolution, got %v", dd.Entry.Kind)
	}
}

// Diff symmetry (§8 invariant 5): swapping left/right swaps Added<->Removed
// and swaps the Changed requirement fields, but reports on the same names.
func TestDiffSymmetry(t *testing.T) {
	leftDir := t.TempDir()
	writePkg(t, leftDir, ".", `{"name":"root","dependencies":{"a":"^1.0.0","gone":"^1.0.0"}}`)
	writePkg(t, leftDir, "node_modules/a", `{"name":"a","version":"1.0.0"}`)
	writePkg(t, leftDir, "node_modules/gone", `{"name":"gone","version":"1.0.0"}`)

	rightDir := t.TempDir()
	writePkg(t, rightDir, ".", `{"name":"root","dependencies":{"a":"^1.1.0"}}`)
	writePkg(t, rightDir, "node_modules/a", `{"name":"a","version":"1.1.0"}`)

	lr, lRoot := resolveRoot(t, leftDir)
	rr, rRoot := resolveRoot(t, rightDir)

	forward := New(lr, rr).Diff(lRoot, rRoot)
	backward := New(rr, lr).Diff(rRoot, lRoot)

	if forward == nil || backward == nil {
		t.Fatal("expected both directions to report a diff")
	}
	if forward.Dependencies["gone"].Kind != Removed || backward.Dependencies["gone"].Kind != Added {
		t.Errorf("expected gone to flip Removed<->Added across directions")
	}
	fa := forward.Dependencies["a"]
	ba := backward.Dependencies["a"]
	if !fa.LeftReq.Equal(ba.RightReq) || !fa.RightReq.Equal(ba.LeftReq) {
		t.Errorf("expected requirement sides to swap across directions: forward=%+v backward=%+v", fa, ba)
	}
}

// Cross-checks TestDiffAddedAndRemovedDependencies' manual field assertions
// against the whole Added/Removed shape at once, using go-cmp so a future
// field added to DiffedDependency gets covered without hand-listing it here.
// RawEntry.Key.ScopeID is opaque (assigned by a process-global counter), so
// RawEntry is zeroed before the cmp.Diff and not compared here.
func TestDiffAddedRemovedShapeMatchesExpected(t *testing.T) {
	leftDir := t.TempDir()
	writePkg(t, leftDir, ".", `{"name":"root","dependencies":{"gone":"^1.0.0"}}`)
	writePkg(t, leftDir, "node_modules/gone", `{"name":"gone","version":"1.0.0"}`)

	rightDir := t.TempDir()
	writePkg(t, rightDir, ".", `{"name":"root","dependencies":{"new":"^2.0.0"}}`)
	writePkg(t, rightDir, "node_modules/new", `{"name":"new","version":"2.0.0"}`)

	lr, lRoot := resolveRoot(t, leftDir)
	rr, rRoot := resolveRoot(t, rightDir)

	d := New(lr, rr)
	diffNode := d.Diff(lRoot, rRoot)
	if diffNode == nil {
		t.Fatal("expected a non-nil diff")
	}

	gone := diffNode.Dependencies["gone"]
	gone.RawEntry = graph.Entry{}
	wantGone := DiffedDependency{Kind: Removed, Name: "gone", LeftReq: version.Parse("^1.0.0")}
	if diff := cmp.Diff(wantGone, gone); diff != "" {
		t.Errorf("gone entry mismatch (-want +got):\n%s", diff)
	}

	newDep := diffNode.Dependencies["new"]
	newDep.RawEntry = graph.Entry{}
	wantNew := DiffedDependency{Kind: Added, Name: "new", RightReq: version.Parse("^2.0.0")}
	if diff := cmp.Diff(wantNew, newDep); diff != "" {
		t.Errorf("new entry mismatch (-want +got):\n%s", diff)
	}
}

// Workspace sentinel edges on both sides, matching by name, diff to
// unchanged rather than recursing (they are never materialized in either
// arena).
func TestDiffWorkspaceSentinelsUnchangedWhenNamesMatch(t *testing.T) {
	leftDir := t.TempDir()
	writePkg(t, leftDir, ".", `{"name":"root","dependencies":{"x":"^1.0.0"}}`)
	writePkg(t, leftDir, "node_modules/x", `{"name":"x","version":"1.0.0","dependencies":{"y":"workspace:*"}}`)
	writePkg(t, leftDir, "node_modules/y", `{"name":"y","version":"1.0.0"}`)

	rightDir := t.TempDir()
	writePkg(t, rightDir, ".", `{"name":"root","dependencies":{"x":"^1.0.0"}}`)
	writePkg(t, rightDir, "node_modules/x", `{"name":"x","version":"1.0.0","dependencies":{"y":"workspace:*"}}`)
	writePkg(t, rightDir, "node_modules/y", `{"name":"y","version":"2.0.0"}`)

	lr, lRoot := resolveRoot(t, leftDir)
	rr, rRoot := resolveRoot(t, rightDir)

	d := New(lr, rr)
	lx, _ := lr.Lookup(lRoot.Dependencies["x"].Entry.Key)
	rx, _ := rr.Lookup(rRoot.Dependencies["x"].Entry.Key)

	if got := d.Diff(lx, rx); got != nil {
		t.Fatalf("expected workspace sentinel edge to diff to nil regardless of y's actual version, got %+v", got)
	}
}
