package render

import (
	"sort"

	"nodedeps/internal/graph"
	"nodedeps/internal/version"
)

// ResolvedView adapts one resolved package node (or the outcome of one
// resolved dependency edge) to NodeView.
type ResolvedView struct {
	name    string
	hasReq  bool
	req     version.Requirement
	kind    graph.EntryKind
	node    *graph.Node
	deduped bool
	// sentinel marks a workspace:* edge: resolved, but deliberately never
	// recursed into (§4.5 step 6), so node is nil here too.
	sentinel bool
}

// NewResolvedRoot adapts a resolver's root node, with no incoming
// requirement to display (the root has no edge pointing at it). Call
// resolver.RefreshVisited() before walking a fresh render pass.
func NewResolvedRoot(node *graph.Node) *ResolvedView {
	node.MarkVisited()
	return &ResolvedView{name: node.Key.Name, kind: graph.EntryResolved, node: node}
}

func newResolvedChild(r *graph.Resolver, name string, rd graph.ResolvedDependency) *ResolvedView {
	v := &ResolvedView{name: name, hasReq: true, req: rd.Requirement, kind: rd.Entry.Kind}
	if rd.Entry.Kind != graph.EntryResolved {
		return v
	}
	if rd.Entry.Key.IsWorkspaceSentinel() {
		v.sentinel = true
		return v
	}
	node, ok := r.Lookup(rd.Entry.Key)
	if !ok {
		// Invariant violation guard: treat as missing rather than panic.
		v.kind = graph.EntryMissing
		return v
	}
	v.node = node
	v.deduped = node.MarkVisited()
	return v
}

// Label renders this node's display line per §6's literal forms.
func (v *ResolvedView) Label() string {
	switch v.kind {
	case graph.EntryMissing:
		return v.prefix() + " " + red("[MISSING]")
	case graph.EntryTruncated:
		return v.prefix() + " " + yellow("[TRUNCATED]")
	}

	if v.sentinel {
		return v.prefix() + " " + dimAttr(":") + " " + neutral("(workspace)")
	}

	label := v.prefix()
	if v.hasReq {
		label += " " + dimAttr(":") + " " + v.versionColored()
	} else {
		label += " " + dimAttr(":") + " " + neutral(v.node.Key.Version)
	}
	if v.deduped {
		label += dimAttr(" [DEDUPED]")
	}
	return label
}

func (v *ResolvedView) prefix() string {
	if !v.hasReq {
		return v.name
	}
	return v.name + dimAttr("@") + v.req.String()
}

func (v *ResolvedView) versionColored() string {
	installed := v.node.Key.Version
	switch v.req.Matches(installed) {
	case version.Satisfied:
		return green(installed)
	case version.Unsatisfied:
		return red(installed)
	default:
		return neutral(installed)
	}
}

// Children returns this node's dependency/dev-dependency edges in
// key-sorted order, with the dev separator between them when non-empty.
// A resolved-but-already-visited (deduped) node, or a non-resolved entry,
// has no children.
func (v *ResolvedView) Children() []ChildView {
	if v.kind != graph.EntryResolved || v.node == nil || v.deduped {
		return nil
	}

	r := v.node.Resolver()
	names := sortedNames(v.node.Dependencies)
	devNames := sortedNames(v.node.DevDependencies)

	out := make([]ChildView, 0, len(names)+len(devNames)+1)
	for _, name := range names {
		out = append(out, ChildView{View: newResolvedChild(r, name, v.node.Dependencies[name])})
	}
	if len(devNames) > 0 {
		out = append(out, devSeparator())
		for _, name := range devNames {
			out = append(out, ChildView{View: newResolvedChild(r, name, v.node.DevDependencies[name])})
		}
	}
	return out
}

func sortedNames(m map[string]graph.ResolvedDependency) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
