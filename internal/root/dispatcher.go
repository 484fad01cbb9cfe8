// Package root implements the Root Dispatcher: walking upward from a
// user-supplied path to find an enclosing workspace root (if any), and
// handing back a resolved root node through the right resolver.
package root

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"nodedeps/internal/graph"
	"nodedeps/internal/manifest"
	"nodedeps/internal/scope"
)

// Logger is the collaborator used for non-fatal diagnostics during scope
// and workspace expansion.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// ErrNoNodeModules backs the MissingNodeModules fatal error (§7): the
// resolver's required installation scope directory does not exist.
var ErrNoNodeModules = errors.New("no node_modules directory found")

// ErrNoManifest backs the MissingManifest fatal error (§7): no package.json
// at the user-supplied root.
var ErrNoManifest = errors.New("no package.json found")

type workspaceEntry struct {
	rootManifest *manifest.Record
	resolver     *graph.Resolver
	index        *scope.Index
}

// Dispatcher walks paths to their project root and caches the resolver and
// workspace expansion for every distinct workspace root it discovers.
type Dispatcher struct {
	MaxDepth int
	Logger   Logger

	workspaceRoots map[string]*workspaceEntry
}

// New builds a Dispatcher. maxDepth is forwarded to every resolver it
// constructs; pass graph.UnboundedDepth for no cap.
func New(maxDepth int, logger Logger) *Dispatcher {
	return &Dispatcher{
		MaxDepth:       maxDepth,
		Logger:         logger,
		workspaceRoots: map[string]*workspaceEntry{},
	}
}

// Resolved is the result of dispatching one user path: the resolved node,
// the resolver that owns it (needed later to walk/render/diff it), and,
// when the path turned out to be a workspace root, the list of its member
// nodes (already resolved through the same resolver).
type Resolved struct {
	Node             *graph.Node
	Resolver         *graph.Resolver
	IsWorkspaceRoot  bool
	WorkspaceMembers []*graph.Node
	Warnings         []string
}

// Resolve walks upward from userPath to find an enclosing workspace root,
// reuses or builds the appropriate resolver, and returns the resolved node
// for userPath itself.
func (d *Dispatcher) Resolve(userPath string) (*Resolved, error) {
	q, err := manifest.Canonicalize(userPath)
	if err != nil {
		return nil, err
	}

	rootPath, we, err := d.findEnclosingWorkspaceRoot(q)
	if err != nil {
		return nil, err
	}

	if we != nil {
		var memberRec *manifest.Record
		if rootPath == q {
			memberRec = we.rootManifest
		} else if rec, ok := we.index.ByPath(q); ok {
			memberRec = rec
		} else {
			return nil, errors.Errorf("%s is under workspace root %s but is not a declared workspace member", q, rootPath)
		}

		entry := we.resolver.Resolve(memberRec, rootScopeOf(we))
		node, err := unwrap(we.resolver, entry)
		if err != nil {
			return nil, err
		}

		var members []*graph.Node
		if rootPath == q {
			members, err = d.resolveWorkspaceMembers(we)
			if err != nil {
				return nil, err
			}
		}

		return &Resolved{
			Node:             node,
			Resolver:         we.resolver,
			IsWorkspaceRoot:  rootPath == q,
			WorkspaceMembers: members,
			Warnings:         we.resolver.Warnings(),
		}, nil
	}

	return d.resolveStandalone(q)
}

func (d *Dispatcher) resolveStandalone(q string) (*Resolved, error) {
	rec, err := manifest.Read(q, 0)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.Wrapf(ErrNoManifest, "at %s", q)
	}

	nmDir := filepath.Join(q, "node_modules")
	if !dirExists(nmDir) {
		return nil, errors.Wrapf(ErrNoNodeModules, "at %s", nmDir)
	}
	sc, err := scope.FromFolder(nmDir, d.Logger)
	if err != nil {
		return nil, err
	}

	r := graph.New(sc, d.MaxDepth, d.Logger)
	node, err := r.ResolveRoot(rec)
	if err != nil {
		return nil, err
	}
	return &Resolved{Node: node, Resolver: r, Warnings: r.Warnings()}, nil
}

// findEnclosingWorkspaceRoot walks upward from q looking for the nearest
// ancestor A whose manifest declares workspaces such that A == q or A's
// workspace glob set matches q.
func (d *Dispatcher) findEnclosingWorkspaceRoot(q string) (string, *workspaceEntry, error) {
	for a := q; ; {
		if cached, ok := d.workspaceRoots[a]; ok {
			if a == q {
				return a, cached, nil
			}
			if _, ok := cached.index.ByPath(q); ok {
				return a, cached, nil
			}
		} else {
			rec, err := manifest.Read(a, 0)
			if err != nil {
				return "", nil, err
			}
			if rec != nil && len(rec.Workspaces) > 0 {
				idx, err := scope.BuildIndex(rec.Workspaces, d.Logger)
				if err != nil {
					return "", nil, err
				}
				if a == q {
					we, err := d.buildWorkspaceEntry(a, rec, idx)
					if err != nil {
						return "", nil, err
					}
					return a, we, nil
				}
				if _, ok := idx.ByPath(q); ok {
					we, err := d.buildWorkspaceEntry(a, rec, idx)
					if err != nil {
						return "", nil, err
					}
					return a, we, nil
				}
			}
		}

		parent := filepath.Dir(a)
		if parent == a {
			return "", nil, nil
		}
		a = parent
	}
}

func (d *Dispatcher) buildWorkspaceEntry(rootPath string, rec *manifest.Record, idx *scope.Index) (*workspaceEntry, error) {
	if cached, ok := d.workspaceRoots[rootPath]; ok {
		return cached, nil
	}

	nmDir := filepath.Join(rootPath, "node_modules")
	if !dirExists(nmDir) {
		return nil, errors.Wrapf(ErrNoNodeModules, "at %s", nmDir)
	}
	sc, err := scope.FromFolder(nmDir, d.Logger)
	if err != nil {
		return nil, err
	}

	we := &workspaceEntry{
		rootManifest: rec,
		resolver:     graph.New(sc, d.MaxDepth, d.Logger),
		index:        idx,
	}
	d.workspaceRoots[rootPath] = we
	return we, nil
}

func (d *Dispatcher) resolveWorkspaceMembers(we *workspaceEntry) ([]*graph.Node, error) {
	members := make([]*graph.Node, 0, len(we.index.Members))
	for _, memberRec := range we.index.Members {
		entry := we.resolver.Resolve(memberRec, rootScopeOf(we))
		node, err := unwrap(we.resolver, entry)
		if err != nil {
			return nil, err
		}
		members = append(members, node)
	}
	return members, nil
}

func rootScopeOf(we *workspaceEntry) *scope.Scope {
	// The resolver was built with the workspace root's node_modules scope
	// as its root scope; member manifests resolve their direct
	// dependencies against that same scope, consistent with §4.6 step 5.
	return we.resolver.RootScope()
}

func unwrap(r *graph.Resolver, e graph.Entry) (*graph.Node, error) {
	switch e.Kind {
	case graph.EntryResolved:
		node, ok := r.Lookup(e.Key)
		if !ok {
			return nil, errors.Errorf("internal error: resolved key %+v missing from arena", e.Key)
		}
		return node, nil
	case graph.EntryTruncated:
		return nil, graph.ErrRootTruncated
	default:
		return nil, graph.ErrRootMissing
	}
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
