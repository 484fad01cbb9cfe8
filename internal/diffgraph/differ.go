// Package diffgraph pairwise-traverses two resolved graphs (internal/graph)
// to produce a diff graph, pruning subtrees that did not change and
// terminating safely on cycles via a paired-key memo.
package diffgraph

import (
	"nodedeps/internal/graph"
	"nodedeps/internal/version"
)

// PairedKey identifies one (left, right) node pairing visited by the Differ.
type PairedKey struct {
	Left  graph.Key
	Right graph.Key
}

// EntryKind is the outcome of pairing two per-edge Resolved Entries.
type EntryKind int

const (
	EntryResolved EntryKind = iota
	EntryMissing
	EntryTruncated
	EntryMismatchedResolution
)

// Entry is a paired per-edge outcome, the diff-graph analog of graph.Entry.
type Entry struct {
	Kind   EntryKind
	Paired PairedKey // valid only when Kind == EntryResolved
}

// DiffedDepKind distinguishes a dependency that exists on both sides
// (possibly changed) from one added or removed entirely.
type DiffedDepKind int

const (
	Changed DiffedDepKind = iota
	Added
	Removed
)

// DiffedDependency is one dependency-name edge in a DiffNode's dependency
// map.
type DiffedDependency struct {
	Kind DiffedDepKind
	Name string

	// Populated for Kind == Changed.
	LeftReq, RightReq version.Requirement
	Entry             Entry

	// Populated for Kind == Added (RightReq/RawEntry) or Kind == Removed
	// (LeftReq/RawEntry): the raw, unexpanded counterpart entry. Added and
	// Removed dependencies never recurse into the side that's absent.
	RawEntry graph.Entry
}

// DiffNode is the diff of one pair of resolved package nodes. It exists
// only when something about the pair differs; an unchanged pair diffs to
// nil.
type DiffNode struct {
	LeftKey, RightKey graph.Key

	Dependencies    map[string]DiffedDependency
	DevDependencies map[string]DiffedDependency

	// visited is the print-pass dedup flag, the diff-graph analog of
	// graph.Node's visited flag: sticky for the whole render pass, reset by
	// Differ.RefreshVisited before each new pass.
	visited bool
}

func (n *DiffNode) LeftName() string  { return n.LeftKey.Name }
func (n *DiffNode) RightName() string { return n.RightKey.Name }

// Visited reports the node's sticky print-pass dedup flag.
func (n *DiffNode) Visited() bool { return n.visited }

// MarkVisited sets the sticky print-pass dedup flag and reports whether it
// was already set.
func (n *DiffNode) MarkVisited() (alreadyVisited bool) {
	alreadyVisited = n.visited
	n.visited = true
	return alreadyVisited
}

// Differ pairwise-diffs nodes drawn from two resolvers, memoizing by paired
// key so cyclic structures terminate and repeated pairs cost O(1).
type Differ struct {
	left, right *graph.Resolver
	diffed      map[PairedKey]*DiffNode
}

// New builds a Differ over the two resolvers that own the nodes it will be
// asked to diff.
func New(left, right *graph.Resolver) *Differ {
	return &Differ{left: left, right: right, diffed: map[PairedKey]*DiffNode{}}
}

// Diff computes (or returns the cached) diff of leftNode against rightNode.
// A nil result means the pair is identical all the way down.
func (d *Differ) Diff(leftNode, rightNode *graph.Node) *DiffNode {
	pk := PairedKey{Left: leftNode.Key, Right: rightNode.Key}
	if v, ok := d.diffed[pk]; ok {
		return v
	}

	// Insert a placeholder before recursing so a cycle back to this same
	// pair sees "no diff yet" instead of looping forever.
	d.diffed[pk] = nil

	deps := d.diffDeps(leftNode.Dependencies, rightNode.Dependencies)
	devDeps := d.diffDeps(leftNode.DevDependencies, rightNode.DevDependencies)

	if len(deps) == 0 && len(devDeps) == 0 &&
		leftNode.Key.Name == rightNode.Key.Name &&
		leftNode.Key.Version == rightNode.Key.Version {
		return nil
	}

	node := &DiffNode{
		LeftKey:         leftNode.Key,
		RightKey:        rightNode.Key,
		Dependencies:    deps,
		DevDependencies: devDeps,
	}
	d.diffed[pk] = node
	return node
}

// Lookup retrieves the cached diff for a paired key produced by an Entry
// with Kind == EntryResolved, for the Tree View Adapter.
func (d *Differ) Lookup(pk PairedKey) (*DiffNode, bool) {
	n, ok := d.diffed[pk]
	return n, ok
}

// RefreshVisited resets every cached diff node's sticky print-pass dedup
// flag. Called once before each render pass over a diff graph.
func (d *Differ) RefreshVisited() {
	for _, n := range d.diffed {
		if n != nil {
			n.visited = false
		}
	}
}

func (d *Differ) diffDeps(left, right map[string]graph.ResolvedDependency) map[string]DiffedDependency {
	out := map[string]DiffedDependency{}

	remainingRight := make(map[string]graph.ResolvedDependency, len(right))
	for name, rd := range right {
		remainingRight[name] = rd
	}

	for name, ld := range left {
		rd, ok := remainingRight[name]
		if !ok {
			out[name] = DiffedDependency{Kind: Removed, Name: name, LeftReq: ld.Requirement, RawEntry: ld.Entry}
			continue
		}
		delete(remainingRight, name)

		if dd, changed := d.diffDependency(name, ld, rd); changed {
			out[name] = dd
		}
	}

	for name, rd := range remainingRight {
		out[name] = DiffedDependency{Kind: Added, Name: name, RightReq: rd.Requirement, RawEntry: rd.Entry}
	}

	return out
}

func (d *Differ) diffDependency(name string, ld, rd graph.ResolvedDependency) (DiffedDependency, bool) {
	entry, changed, ok := d.diffEntries(ld.Entry, rd.Entry)
	if !ok {
		return DiffedDependency{}, false
	}
	reqEqual := ld.Requirement.Equal(rd.Requirement)
	if !reqEqual || changed {
		return DiffedDependency{
			Kind:     Changed,
			Name:     name,
			LeftReq:  ld.Requirement,
			RightReq: rd.Requirement,
			Entry:    entry,
		}, true
	}
	return DiffedDependency{}, false
}

// diffEntries pairs two single-sided resolution outcomes. ok is false only
// in the (invariant-violating, should-be-unreachable) case where a
// Resolved key is missing from its owning resolver's arena; the caller
// treats that as "no diff" for this edge, matching §4.7's "if either is
// absent ⇒ None".
func (d *Differ) diffEntries(le, re graph.Entry) (entry Entry, changed bool, ok bool) {
	switch {
	case le.Kind == graph.EntryResolved && re.Kind == graph.EntryResolved:
		if le.Key.IsWorkspaceSentinel() || re.Key.IsWorkspaceSentinel() {
			pk := PairedKey{Left: le.Key, Right: re.Key}
			changed := le.Key.Name != re.Key.Name || le.Key.IsWorkspaceSentinel() != re.Key.IsWorkspaceSentinel()
			return Entry{Kind: EntryResolved, Paired: pk}, changed, true
		}

		lNode, lok := d.left.Lookup(le.Key)
		rNode, rok := d.right.Lookup(re.Key)
		if !lok || !rok {
			return Entry{}, false, false
		}

		diffNode := d.Diff(lNode, rNode)
		pk := PairedKey{Left: le.Key, Right: re.Key}
		return Entry{Kind: EntryResolved, Paired: pk}, diffNode != nil, true

	case le.Kind == graph.EntryMissing && re.Kind == graph.EntryMissing:
		return Entry{Kind: EntryMissing}, false, true

	case le.Kind == graph.EntryTruncated && re.Kind == graph.EntryTruncated:
		return Entry{Kind: EntryTruncated}, false, true

	default:
		return Entry{Kind: EntryMismatchedResolution}, true, true
	}
}
