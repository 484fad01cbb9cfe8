package render

import (
	"sort"

	"nodedeps/internal/diffgraph"
)

// DiffView adapts one diffgraph.DiffNode (or a single DiffedDependency
// edge) to NodeView.
type DiffView struct {
	leftName, rightName string
	isRoot              bool
	dep                 *diffgraph.DiffedDependency
	node                *diffgraph.DiffNode
	differ              *diffgraph.Differ
	deduped             bool
}

// NewDiffRoot adapts the root pairing of a diff, or nil if the two roots
// are identical all the way down. Call differ.RefreshVisited() before
// walking a fresh render pass.
func NewDiffRoot(d *diffgraph.Differ, node *diffgraph.DiffNode) *DiffView {
	if node == nil {
		return nil
	}
	node.MarkVisited()
	return &DiffView{leftName: node.LeftName(), rightName: node.RightName(), isRoot: true, node: node, differ: d}
}

func newDiffChild(d *diffgraph.Differ, name string, dd diffgraph.DiffedDependency) *DiffView {
	v := &DiffView{dep: &dd, differ: d}
	if dd.Kind != diffgraph.Changed || dd.Entry.Kind != diffgraph.EntryResolved {
		return v
	}
	sub, ok := d.Lookup(dd.Entry.Paired)
	if !ok || sub == nil {
		// No paired DiffNode cached (identical resolved subtree): nothing
		// further to show, even though this edge's requirement text itself
		// differed enough to surface the line.
		return v
	}
	v.deduped = sub.MarkVisited()
	v.node = sub
	return v
}

// Label renders this diff node or diffed-dependency edge per §6.
func (v *DiffView) Label() string {
	if v.dep == nil {
		return identityLabel(v.leftName, v.rightName)
	}

	switch v.dep.Kind {
	case diffgraph.Added:
		return "[ADDED] " + green(v.dep.Name+dimAttr("@")+v.dep.RightReq.String())
	case diffgraph.Removed:
		return "[REMOVED] " + red(v.dep.Name+dimAttr("@")+v.dep.LeftReq.String())
	}

	reqLabel := v.dep.Name + dimAttr("@") + requirementChangeLabel(v.dep.LeftReq.String(), v.dep.RightReq.String())
	switch v.dep.Entry.Kind {
	case diffgraph.EntryMissing:
		return reqLabel + " " + red("[MISSING]")
	case diffgraph.EntryTruncated:
		return reqLabel + " " + yellow("[TRUNCATED]")
	case diffgraph.EntryMismatchedResolution:
		return reqLabel + " " + boldWarn("[MISMATCHED RESOLUTION]")
	}

	label := reqLabel
	if v.deduped {
		label += dimAttr(" [DEDUPED]")
	}
	return label
}

func identityLabel(left, right string) string {
	if left == right {
		return left
	}
	return "(" + left + " -> " + right + ")"
}

func requirementChangeLabel(left, right string) string {
	if left == right {
		return left
	}
	return "(" + left + " -> " + right + ")"
}

// Children returns the sorted, should_display-filtered set of changed
// dependency edges, plus the dev separator when any dev dependency is
// displayed.
func (v *DiffView) Children() []ChildView {
	if v.node == nil || v.deduped {
		return nil
	}

	names := sortedDiffNames(v.node.Dependencies)
	devNames := sortedDiffNames(v.node.DevDependencies)

	out := make([]ChildView, 0, len(names)+len(devNames)+1)
	for _, name := range names {
		dd := v.node.Dependencies[name]
		if !shouldDisplay(v.differ, dd) {
			continue
		}
		out = append(out, ChildView{View: newDiffChild(v.differ, name, dd)})
	}

	var devChildren []ChildView
	for _, name := range devNames {
		dd := v.node.DevDependencies[name]
		if !shouldDisplay(v.differ, dd) {
			continue
		}
		devChildren = append(devChildren, ChildView{View: newDiffChild(v.differ, name, dd)})
	}
	if len(devChildren) > 0 {
		out = append(out, devSeparator())
		out = append(out, devChildren...)
	}
	return out
}

// shouldDisplay reports whether a diffed-dependency edge is displayable: an
// Added/Removed/Missing/Truncated/MismatchedResolution edge always is (its
// identities already differ by construction); a Changed-and-Resolved edge
// is displayable iff its requirement text differs, or the paired subtree
// is non-nil — which Diff already only is when its identities differ, a
// dependency was added/removed, or a descendant changed (§4.7 step 3), so
// no separate descendant walk is needed here.
func shouldDisplay(d *diffgraph.Differ, dd diffgraph.DiffedDependency) bool {
	switch dd.Kind {
	case diffgraph.Added, diffgraph.Removed:
		return true
	}
	if dd.Entry.Kind != diffgraph.EntryResolved {
		return true
	}
	if dd.LeftReq.String() != dd.RightReq.String() {
		return true
	}

	sub, ok := d.Lookup(dd.Entry.Paired)
	return ok && sub != nil
}

func sortedDiffNames(m map[string]diffgraph.DiffedDependency) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
