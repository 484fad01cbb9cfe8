// Package manifest reads a single package's package.json into a typed
// Record, including its workspace glob list.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"nodedeps/internal/version"
)

// PlaceholderName is substituted for a manifest that declares no name.
const PlaceholderName = "{no name}"

// Record is the typed form of one package.json.
type Record struct {
	Name            string
	Version         string // empty when absent; workspace members may omit it
	InstallPath     string // canonicalized absolute path
	ParentScopeID   uint64
	Dependencies    map[string]version.Requirement
	DevDependencies map[string]version.Requirement
	// Workspaces holds the expanded-ready glob list: each entry is the
	// canonicalized InstallPath joined with "/" and the raw glob from the
	// "workspaces" field. Present only on a workspace root.
	Workspaces []string
}

// Canonicalize resolves dir to an absolute path, following symlinks when
// possible. If symlink resolution errors (e.g. the path does not exist yet)
// the absolute form is returned instead; only a failure to make dir
// absolute is returned as an error.
func Canonicalize(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "resolving absolute path for %s", dir)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

// Read reads <dir>/package.json into a Record stamped with parentScopeID.
// A missing file yields (nil, nil); a JSON decode failure is fatal.
func Read(dir string, parentScopeID uint64) (*Record, error) {
	installPath, err := Canonicalize(dir)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading package.json in %s", dir)
	}

	var tree map[string]interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, errors.Wrapf(err, "invalid package.json in %s", dir)
	}

	rec := &Record{
		Name:          PlaceholderName,
		InstallPath:   installPath,
		ParentScopeID: parentScopeID,
	}

	if name, ok := tree["name"].(string); ok && name != "" {
		rec.Name = name
	}
	if v, ok := tree["version"].(string); ok {
		rec.Version = v
	}

	rec.Dependencies = parseRequirementMap(tree["dependencies"])

	if hasPathSegment(installPath, "node_modules") {
		rec.DevDependencies = map[string]version.Requirement{}
	} else {
		rec.DevDependencies = parseRequirementMap(tree["devDependencies"])
	}

	if ws, ok := tree["workspaces"].([]interface{}); ok {
		for _, w := range ws {
			s, ok := w.(string)
			if !ok || s == "." {
				continue
			}
			rec.Workspaces = append(rec.Workspaces, installPath+"/"+s)
		}
	}

	return rec, nil
}

func hasPathSegment(path, segment string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == segment {
			return true
		}
	}
	return false
}

func parseRequirementMap(v interface{}) map[string]version.Requirement {
	out := map[string]version.Requirement{}
	m, ok := v.(map[string]interface{})
	if !ok {
		return out
	}
	for name, raw := range m {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		out[name] = version.Parse(s)
	}
	return out
}
