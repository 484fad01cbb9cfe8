package render

import (
	"nodedeps/internal/diffgraph"
	"nodedeps/internal/graph"
	"nodedeps/internal/version"
)

// JSONDependency is the --json representation of one resolved dependency
// edge. Requirement is always the raw, unevaluated requirement text (§8
// invariant 9: a non-semver requirement is never coerced to a boolean).
type JSONDependency struct {
	Name        string          `json:"name"`
	Requirement string          `json:"requirement"`
	State       string          `json:"state"` // "resolved", "missing", "truncated"
	Version     string          `json:"version,omitempty"`
	Match       string          `json:"match,omitempty"` // "satisfied", "unsatisfied", "unknown"
	Deduped     bool            `json:"deduped,omitempty"`
	Workspace   bool            `json:"workspace,omitempty"`
	Package     *JSONPackage    `json:"package,omitempty"`
}

// JSONPackage is the --json representation of one resolved package node.
type JSONPackage struct {
	Name            string           `json:"name"`
	Version         string           `json:"version"`
	Dependencies    []JSONDependency `json:"dependencies,omitempty"`
	DevDependencies []JSONDependency `json:"devDependencies,omitempty"`
	Warnings        []string         `json:"warnings,omitempty"`
}

// ToJSON walks a resolved node (as reached from the root, respecting the
// truncation markers computed during resolution, and marking a package
// reached a second time in this walk as deduped) into a plain, marshalable
// tree. warnings carries the Installation Scope's
// skipped/unreadable-entry diagnostics (§12) to surface under the root's
// "warnings" key.
func ToJSON(root *graph.Node, warnings []string) *JSONPackage {
	root.Resolver().RefreshVisited()
	pkg := toJSONPackage(root)
	pkg.Warnings = warnings
	return pkg
}

func toJSONPackage(n *graph.Node) *JSONPackage {
	n.MarkVisited()
	return &JSONPackage{
		Name:            n.Key.Name,
		Version:         n.Key.Version,
		Dependencies:    toJSONDeps(n.Resolver(), n.Dependencies),
		DevDependencies: toJSONDeps(n.Resolver(), n.DevDependencies),
	}
}

func toJSONDeps(r *graph.Resolver, deps map[string]graph.ResolvedDependency) []JSONDependency {
	names := sortedNames(deps)
	out := make([]JSONDependency, 0, len(names))
	for _, name := range names {
		rd := deps[name]
		jd := JSONDependency{Name: name, Requirement: rd.Requirement.String()}
		if _, isWorkspace := rd.Requirement.(version.Workspace); isWorkspace {
			jd.Workspace = true
		}

		switch rd.Entry.Kind {
		case graph.EntryMissing:
			jd.State = "missing"
		case graph.EntryTruncated:
			jd.State = "truncated"
		case graph.EntryResolved:
			jd.State = "resolved"
			if rd.Entry.Key.IsWorkspaceSentinel() {
				jd.Workspace = true
				break
			}
			node, ok := r.Lookup(rd.Entry.Key)
			if !ok {
				jd.State = "missing"
				break
			}
			jd.Version = node.Key.Version
			switch rd.Requirement.Matches(node.Key.Version) {
			case version.Satisfied:
				jd.Match = "satisfied"
			case version.Unsatisfied:
				jd.Match = "unsatisfied"
			default:
				jd.Match = "unknown"
			}
			if node.MarkVisited() {
				jd.Deduped = true
			} else {
				jd.Package = toJSONPackage(node)
			}
		}
		out = append(out, jd)
	}
	return out
}

// JSONDiffDependency is the --json representation of one diffed dependency
// edge.
type JSONDiffDependency struct {
	Name      string       `json:"name"`
	Kind      string       `json:"kind"` // "changed", "added", "removed"
	LeftReq   string       `json:"leftRequirement,omitempty"`
	RightReq  string       `json:"rightRequirement,omitempty"`
	State     string       `json:"state,omitempty"` // "resolved", "missing", "truncated", "mismatched"
	Node      *JSONDiffNode `json:"node,omitempty"`
	Deduped   bool         `json:"deduped,omitempty"`
}

// JSONDiffNode is the --json representation of one diffed package pairing.
type JSONDiffNode struct {
	LeftName        string               `json:"leftName"`
	RightName       string               `json:"rightName"`
	Dependencies    []JSONDiffDependency `json:"dependencies,omitempty"`
	DevDependencies []JSONDiffDependency `json:"devDependencies,omitempty"`
}

// DiffToJSON walks a diff graph (or returns nil for an identical pair)
// into a plain, marshalable tree, applying the same should_display pruning
// as the tree printer.
func DiffToJSON(d *diffgraph.Differ, node *diffgraph.DiffNode) *JSONDiffNode {
	if node == nil {
		return nil
	}
	d.RefreshVisited()
	node.MarkVisited()
	return toJSONDiffNode(d, node)
}

func toJSONDiffNode(d *diffgraph.Differ, n *diffgraph.DiffNode) *JSONDiffNode {
	return &JSONDiffNode{
		LeftName:        n.LeftName(),
		RightName:       n.RightName(),
		Dependencies:    toJSONDiffDeps(d, n.Dependencies),
		DevDependencies: toJSONDiffDeps(d, n.DevDependencies),
	}
}

func toJSONDiffDeps(d *diffgraph.Differ, deps map[string]diffgraph.DiffedDependency) []JSONDiffDependency {
	names := sortedDiffNames(deps)
	out := make([]JSONDiffDependency, 0, len(names))
	for _, name := range names {
		dd := deps[name]
		if !shouldDisplay(d, dd) {
			continue
		}
		jd := JSONDiffDependency{Name: name}
		switch dd.Kind {
		case diffgraph.Added:
			jd.Kind = "added"
			jd.RightReq = dd.RightReq.String()
		case diffgraph.Removed:
			jd.Kind = "removed"
			jd.LeftReq = dd.LeftReq.String()
		case diffgraph.Changed:
			jd.Kind = "changed"
			jd.LeftReq = dd.LeftReq.String()
			jd.RightReq = dd.RightReq.String()
			switch dd.Entry.Kind {
			case diffgraph.EntryMissing:
				jd.State = "missing"
			case diffgraph.EntryTruncated:
				jd.State = "truncated"
			case diffgraph.EntryMismatchedResolution:
				jd.State = "mismatched"
			case diffgraph.EntryResolved:
				jd.State = "resolved"
				if sub, ok := d.Lookup(dd.Entry.Paired); ok && sub != nil {
					if sub.MarkVisited() {
						jd.Deduped = true
					} else {
						jd.Node = toJSONDiffNode(d, sub)
					}
				}
			}
		}
		out = append(out, jd)
	}
	return out
}
