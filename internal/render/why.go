package render

// Why walks a resolved tree from root (as NewResolvedRoot would see it,
// respecting the same depth cap and dedup rules as tree rendering) and
// returns every path, as a slice of display labels, that reaches a package
// named target. A deduped node's subtree is not explored further, so a
// target reachable only beyond a dedup point is not reported twice — it
// was already reported on the path that first reached it.
func Why(root NodeView, target string) [][]string {
	var paths [][]string
	var walk func(v NodeView, path []string)
	walk = func(v NodeView, path []string) {
		label := bareName(v)
		path = append(path, label)
		if label == target {
			paths = append(paths, append([]string(nil), path...))
		}
		for _, child := range v.Children() {
			if child.Separator {
				continue
			}
			walk(child.View, path)
		}
	}
	walk(root, nil)
	return paths
}

// bareName extracts the declared package name from a view, independent of
// its colored/decorated label, for path-matching and JSON output.
func bareName(v NodeView) string {
	switch t := v.(type) {
	case *ResolvedView:
		return t.name
	case *DiffView:
		if t.dep != nil {
			return t.dep.Name
		}
		return t.leftName
	default:
		return ""
	}
}
