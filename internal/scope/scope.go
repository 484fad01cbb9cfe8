// Package scope models installation scopes: node_modules-style directories
// of installed packages, and the workspace member expansion that seeds a
// workspace root's synthetic scope.
package scope

import (
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"nodedeps/internal/manifest"
)

// Logger is the collaborator interface used for the non-fatal
// UnreadableEntry diagnostic (§7). Logging setup itself stays external.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{}) {}

var nextScopeID uint64 // process-global monotonic counter; zero is reserved for the workspace-reference sentinel

// NewScopeID draws the next id from the process-global counter. It need not
// be reused across runs.
func NewScopeID() uint64 {
	return atomic.AddUint64(&nextScopeID, 1)
}

// Scope is one installation scope: a map from package name to its manifest,
// with an optional parent scope for name-lookup inheritance.
type Scope struct {
	ID      uint64
	parent  *Scope
	byName  map[string]*manifest.Record
	Skipped []string // directories whose manifest failed to parse (logged, non-fatal)
}

// FromFolder enumerates the direct children of dir (an installation-scope
// directory, e.g. a node_modules folder) and builds a scope with a fresh id.
// Entries starting with "@" are descended one level. A missing dir yields an
// empty scope, not an error: absence of node_modules is only fatal at the
// resolver-root boundary (§7 MissingNodeModules), decided by the caller.
func FromFolder(dir string, logger Logger) (*Scope, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	s := &Scope{ID: NewScopeID(), byName: map[string]*manifest.Record{}}

	names, err := readDirNames(dir)
	if err != nil {
		return s, nil
	}

	for _, name := range names {
		childDir := filepath.Join(dir, name)
		if strings.HasPrefix(name, "@") {
			scopedNames, err := readDirNames(childDir)
			if err != nil {
				continue
			}
			for _, scopedName := range scopedNames {
				pkgDir := filepath.Join(childDir, scopedName)
				s.addPackage(name+"/"+scopedName, pkgDir, logger)
			}
			continue
		}
		s.addPackage(name, childDir, logger)
	}

	return s, nil
}

func (s *Scope) addPackage(name, dir string, logger Logger) {
	rec, err := manifest.Read(dir, s.ID)
	if err != nil {
		logger.Warnf("skipping unreadable package manifest at %s: %v", dir, err)
		s.Skipped = append(s.Skipped, dir)
		return
	}
	if rec == nil {
		return
	}
	s.byName[name] = rec
}

// CreateChild builds a scope whose parent is s and whose own packages come
// from subDir/node_modules (empty if absent).
func (s *Scope) CreateChild(subDir string, logger Logger) (*Scope, error) {
	child, err := FromFolder(filepath.Join(subDir, "node_modules"), logger)
	if err != nil {
		return nil, err
	}
	child.parent = s
	return child, nil
}

// Get looks up name in this scope, then recursively in parent scopes.
func (s *Scope) Get(name string) (*manifest.Record, bool) {
	if s == nil {
		return nil, false
	}
	if rec, ok := s.byName[name]; ok {
		return rec, true
	}
	return s.parent.Get(name)
}

// NewScopeWithID builds a scope directly from a set of already-read
// manifests under a caller-supplied id, rather than from a directory
// enumeration. Every manifest handed to this constructor must already have
// been read with that same id as its ParentScopeID (the Scope Identity rule).
func NewScopeWithID(id uint64, members map[string]*manifest.Record, parent *Scope) *Scope {
	s := &Scope{ID: id, byName: map[string]*manifest.Record{}, parent: parent}
	for name, rec := range members {
		s.byName[name] = rec
	}
	return s
}

func readDirNames(dir string) ([]string, error) {
	names, err := godirwalk.ReadDirnames(dir, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", dir)
	}
	sort.Strings(names)
	return names, nil
}
