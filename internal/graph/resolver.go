package graph

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"nodedeps/internal/manifest"
	"nodedeps/internal/scope"
	"nodedeps/internal/version"
)

// Logger is the collaborator used to report non-fatal issues encountered
// while descending into child scopes.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// UnboundedDepth disables the depth cap.
const UnboundedDepth = -1

// ErrRootTruncated and ErrRootMissing back the BadRootEntry fatal case
// (§7): a root manifest that itself resolves to Truncated or Missing.
var (
	ErrRootTruncated = errors.New("root package resolution was truncated at the depth cap")
	ErrRootMissing   = errors.New("root package could not be resolved")
)

// Resolver is the memoized recursive graph resolver. One Resolver owns
// exactly one arena of Nodes keyed by Package Key.
type Resolver struct {
	packages     map[Key]*Node
	visiting     []Key
	currentDepth int
	maxDepth     int
	rootScope    *scope.Scope
	scopes       []*scope.Scope // every scope created while resolving, for Warnings()
	logger       Logger
}

// New builds a resolver rooted at rootScope. maxDepth is the maximum number
// of resolved edges from the root before a Truncated marker; pass
// UnboundedDepth for no cap.
func New(rootScope *scope.Scope, maxDepth int, logger Logger) *Resolver {
	return &Resolver{
		packages:  map[Key]*Node{},
		maxDepth:  maxDepth,
		rootScope: rootScope,
		scopes:    []*scope.Scope{rootScope},
		logger:    logger,
	}
}

// RootScope returns the installation scope this resolver was built with.
func (r *Resolver) RootScope() *scope.Scope { return r.rootScope }

// Warnings collects the skipped/unreadable package directories (§12) across
// every installation scope this resolver has created so far, in the order
// those scopes were built.
func (r *Resolver) Warnings() []string {
	var out []string
	for _, sc := range r.scopes {
		out = append(out, sc.Skipped...)
	}
	return out
}

// Lookup retrieves an already-resolved node by key, for following
// Entry.Key references (e.g. from the Differ).
func (r *Resolver) Lookup(k Key) (*Node, bool) {
	n, ok := r.packages[k]
	return n, ok
}

// Visiting exposes the current in-progress key stack, for invariant tests.
func (r *Resolver) Visiting() []Key { return append([]Key(nil), r.visiting...) }

// CurrentDepth exposes the current recursion depth, for invariant tests.
func (r *Resolver) CurrentDepth() int { return r.currentDepth }

// RefreshVisited resets every node's transient visited flag and clears the
// visiting stack / depth counter. Called once before each render pass so
// sibling subtrees are independently dedupable.
func (r *Resolver) RefreshVisited() {
	for _, n := range r.packages {
		n.visited = false
	}
	r.visiting = r.visiting[:0]
	r.currentDepth = 0
}

// ResolveRoot resolves rec as the root manifest of this resolver's scope
// tree. A Truncated or Missing outcome at the root is fatal (BadRootEntry).
func (r *Resolver) ResolveRoot(rec *manifest.Record) (*Node, error) {
	entry := r.resolve(rec, r.rootScope)
	switch entry.Kind {
	case EntryResolved:
		node, ok := r.packages[entry.Key]
		if !ok {
			return nil, errors.Errorf("internal error: resolved key %+v missing from arena", entry.Key)
		}
		return node, nil
	case EntryTruncated:
		return nil, ErrRootTruncated
	default:
		return nil, ErrRootMissing
	}
}

// Resolve resolves rec within enclosingScope, returning the Entry so a
// caller driving a non-root resolution (e.g. resolving every workspace
// member through a shared resolver) can inspect the outcome directly.
func (r *Resolver) Resolve(rec *manifest.Record, enclosingScope *scope.Scope) Entry {
	return r.resolve(rec, enclosingScope)
}

func (r *Resolver) resolve(rec *manifest.Record, enclosing *scope.Scope) Entry {
	key := Key{Name: rec.Name, Version: rec.Version, ScopeID: rec.ParentScopeID}

	if _, ok := r.packages[key]; ok {
		return Entry{Kind: EntryResolved, Key: key}
	}
	if r.isVisiting(key) {
		return Entry{Kind: EntryResolved, Key: key}
	}
	if r.maxDepth != UnboundedDepth && r.currentDepth > r.maxDepth {
		return Entry{Kind: EntryTruncated}
	}

	r.visiting = append(r.visiting, key)
	r.currentDepth++

	subScope := enclosing
	if dirExists(filepath.Join(rec.InstallPath, "node_modules")) {
		if child, err := enclosing.CreateChild(rec.InstallPath, r.logger); err == nil {
			subScope = child
			r.scopes = append(r.scopes, child)
		}
	}

	deps := r.resolveDependencyMap(rec.Dependencies, subScope)
	devDeps := r.resolveDependencyMap(rec.DevDependencies, subScope)

	r.currentDepth--
	r.visiting = r.visiting[:len(r.visiting)-1]

	r.packages[key] = &Node{
		Key:             key,
		Dependencies:    deps,
		DevDependencies: devDeps,
		resolver:        r,
	}

	return Entry{Kind: EntryResolved, Key: key}
}

func (r *Resolver) resolveDependencyMap(deps map[string]version.Requirement, sc *scope.Scope) map[string]ResolvedDependency {
	out := make(map[string]ResolvedDependency, len(deps))
	for name, req := range deps {
		m, ok := sc.Get(name)
		if !ok {
			out[name] = ResolvedDependency{Name: name, Requirement: req, Entry: Entry{Kind: EntryMissing}}
			continue
		}

		var entry Entry
		if _, isWorkspaceRef := req.(version.Workspace); isWorkspaceRef {
			entry = Entry{Kind: EntryResolved, Key: WorkspaceSentinelKey(name)}
		} else {
			entry = r.resolve(m, sc)
		}
		out[name] = ResolvedDependency{Name: name, Requirement: req, Entry: entry}
	}
	return out
}

func (r *Resolver) isVisiting(k Key) bool {
	for _, v := range r.visiting {
		if v == k {
			return true
		}
	}
	return false
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
