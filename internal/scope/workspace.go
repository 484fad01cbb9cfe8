package scope

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/karrick/godirwalk"

	"nodedeps/internal/manifest"
)

// Index is the expansion of a workspace root's glob list: every member
// manifest, tagged with the shared synthetic scope id, plus a lookup by
// canonicalized install path.
type Index struct {
	ScopeID uint64
	// Members is the ordered (by install path) list of member manifests.
	Members []*manifest.Record
	byPath  map[string]*manifest.Record
}

// ByPath returns the member manifest installed at the canonicalized path, if
// any.
func (idx *Index) ByPath(canonicalPath string) (*manifest.Record, bool) {
	rec, ok := idx.byPath[canonicalPath]
	return rec, ok
}

// BuildIndex expands globs (as produced by manifest.Record.Workspaces,
// already prefixed with the root's canonicalized install path) across the
// filesystem, reads every matched directory's manifest, and stamps each with
// one shared synthetic scope id.
func BuildIndex(globs []string, logger Logger) (*Index, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	id := NewScopeID()
	idx := &Index{ScopeID: id, byPath: map[string]*manifest.Record{}}

	seen := map[string]bool{}
	for _, pattern := range globs {
		dirs, err := expandGlob(pattern)
		if err != nil {
			logger.Warnf("skipping unreadable workspace glob %q: %v", pattern, err)
			continue
		}
		for _, dir := range dirs {
			canonical, err := manifest.Canonicalize(dir)
			if err != nil || seen[canonical] {
				continue
			}
			seen[canonical] = true

			rec, err := manifest.Read(dir, id)
			if err != nil {
				logger.Warnf("skipping unreadable workspace member at %s: %v", dir, err)
				continue
			}
			if rec == nil {
				continue
			}
			idx.Members = append(idx.Members, rec)
			idx.byPath[canonical] = rec
		}
	}

	sort.Slice(idx.Members, func(i, j int) bool {
		return idx.Members[i].InstallPath < idx.Members[j].InstallPath
	})

	return idx, nil
}

// expandGlob resolves one workspace glob pattern (an absolute path prefix
// joined with a raw glob like "packages/*") to the set of matching
// directories on disk. It walks the longest literal (non-glob) ancestor
// directory and filters candidate subdirectories with gobwas/glob, which
// (unlike filepath.Glob) supports "**" segments, the common npm-workspace
// idiom for nested package directories.
func expandGlob(pattern string) ([]string, error) {
	root, rest := splitLiteralPrefix(pattern)
	if rest == "" {
		return []string{root}, nil
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return nil, nil // nothing under a literal prefix that doesn't exist
	}

	g, err := glob.Compile(filepath.ToSlash(pattern), '/')
	if err != nil {
		return nil, err
	}

	var matches []string
	err = godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == root || !de.IsDir() {
				return nil
			}
			if g.Match(filepath.ToSlash(path)) {
				matches = append(matches, path)
				return filepath.SkipDir // workspace members don't nest inside each other
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// splitLiteralPrefix splits pattern into the longest directory prefix
// containing no glob metacharacters, and the remainder.
func splitLiteralPrefix(pattern string) (root, rest string) {
	parts := strings.Split(filepath.ToSlash(pattern), "/")
	i := 0
	for ; i < len(parts); i++ {
		if strings.ContainsAny(parts[i], "*?{}[]") {
			break
		}
	}
	root = strings.Join(parts[:i], "/")
	if root == "" {
		root = "/"
	}
	rest = strings.Join(parts[i:], "/")
	return root, rest
}
