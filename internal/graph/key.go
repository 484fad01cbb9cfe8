// Package graph implements the memoized, cycle-safe dependency graph
// resolver: the Package Key identity scheme, the Resolved Package Node
// arena, and the recursive resolver itself.
package graph

// Key is the identity of one resolved package: its name, its declared
// version (empty when absent), and the id of the installation scope it was
// found in. The scope id is essential: identical (name, version) pairs
// installed under different scopes must not be merged, so a private nested
// override is never confused with a hoisted copy.
type Key struct {
	Name    string
	Version string
	ScopeID uint64
}

// workspaceSentinelScopeID marks a Key that stands in for a workspace:*
// reference. Real scopes are drawn from a counter starting at 1, so 0 can
// never collide with a materialized scope.
const workspaceSentinelScopeID uint64 = 0

// WorkspaceSentinelKey builds the dedup-leaf Key used in place of actually
// recursing into a workspace:* dependency (§4.5 step 6). The node for this
// key is deliberately never materialized in the resolver's arena.
func WorkspaceSentinelKey(depName string) Key {
	return Key{Name: depName, Version: "", ScopeID: workspaceSentinelScopeID}
}

// IsWorkspaceSentinel reports whether k is the dedup-leaf sentinel rather
// than a real resolved node.
func (k Key) IsWorkspaceSentinel() bool {
	return k.ScopeID == workspaceSentinelScopeID
}
