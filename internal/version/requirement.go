// Package version parses and evaluates the version requirement strings
// found in package.json dependency maps.
package version

import (
	"os"
	"strings"

	"github.com/Masterminds/semver"
)

// Tristate is the result of matching a Requirement against an installed
// version. Some requirement kinds (workspace, path, unchecked) can never be
// evaluated and always report Unknown.
type Tristate int

const (
	Unknown Tristate = iota
	Satisfied
	Unsatisfied
)

// Requirement is the parsed form of one dependency's version string. Exactly
// one of the concrete kinds below backs any given Requirement.
type Requirement interface {
	// Matches reports whether the requirement is met by the given installed
	// version string. Workspace, Path and Unchecked requirements always
	// return Unknown.
	Matches(installedVersion string) Tristate
	// String renders the exact textual form the requirement was parsed
	// from (or reconstructed from, for Or).
	String() string
	// Equal reports structural equality.
	Equal(other Requirement) bool
}

// SemVer is a standard semantic-version range expression.
type SemVer struct {
	raw string
	c   *semver.Constraints
}

func (s SemVer) Matches(installed string) Tristate {
	v, err := semver.NewVersion(installed)
	if err != nil {
		return Unknown
	}
	if s.c.Check(v) {
		return Satisfied
	}
	return Unsatisfied
}

func (s SemVer) String() string { return s.raw }

func (s SemVer) Equal(other Requirement) bool {
	o, ok := other.(SemVer)
	return ok && o.raw == s.raw
}

// Workspace is the literal form workspace:<suffix>, referring to a sibling
// workspace member.
type Workspace struct{ Suffix string }

func (w Workspace) Matches(string) Tristate { return Unknown }
func (w Workspace) String() string          { return "workspace:" + w.Suffix }
func (w Workspace) Equal(other Requirement) bool {
	o, ok := other.(Workspace)
	return ok && o.Suffix == w.Suffix
}

// Path is a requirement pointing at a filesystem path, spelled as
// path:<p>, file:<p>, or a bare string that happens to exist on disk.
type Path struct {
	// Prefix is "path:", "file:", or "" for a bare existing path.
	Prefix string
	Target string
}

func (p Path) Matches(string) Tristate { return Unknown }
func (p Path) String() string          { return p.Prefix + p.Target }
func (p Path) Equal(other Requirement) bool {
	o, ok := other.(Path)
	return ok && o.Prefix == p.Prefix && o.Target == p.Target
}

// Or is a disjunction of sub-requirements, surfaced with " || " between
// members.
type Or struct{ Members []Requirement }

func (o Or) Matches(installed string) Tristate {
	sawUnsatisfied := false
	for _, m := range o.Members {
		switch m.Matches(installed) {
		case Satisfied:
			return Satisfied
		case Unsatisfied:
			sawUnsatisfied = true
		}
	}
	if sawUnsatisfied {
		return Unsatisfied
	}
	return Unknown
}

func (o Or) String() string {
	parts := make([]string, len(o.Members))
	for i, m := range o.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " || ")
}

func (o Or) Equal(other Requirement) bool {
	p, ok := other.(Or)
	if !ok || len(p.Members) != len(o.Members) {
		return false
	}
	for i := range o.Members {
		if !o.Members[i].Equal(p.Members[i]) {
			return false
		}
	}
	return true
}

// Unchecked is any raw requirement string that does not fit the other
// kinds; it is retained verbatim and never evaluated.
type Unchecked struct{ Raw string }

func (u Unchecked) Matches(string) Tristate { return Unknown }
func (u Unchecked) String() string          { return u.Raw }
func (u Unchecked) Equal(other Requirement) bool {
	o, ok := other.(Unchecked)
	return ok && o.Raw == u.Raw
}

// statFile is overridden in tests so bare-path detection doesn't depend on
// the real filesystem.
var statFile = func(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Parse interprets a raw requirement string. It never fails: ambiguous
// strings fall through to Unchecked.
func Parse(raw string) Requirement {
	switch {
	case strings.HasPrefix(raw, "workspace:"):
		return Workspace{Suffix: raw[len("workspace:"):]}
	case strings.HasPrefix(raw, "path:"):
		return Path{Prefix: "path:", Target: raw[len("path:"):]}
	case strings.HasPrefix(raw, "file:"):
		return Path{Prefix: "file:", Target: raw[len("file:"):]}
	}

	if c, err := semver.NewConstraint(raw); err == nil {
		return SemVer{raw: raw, c: c}
	}

	if strings.Contains(raw, " || ") {
		pieces := strings.Split(raw, " || ")
		members := make([]Requirement, len(pieces))
		for i, p := range pieces {
			members[i] = Parse(p)
		}
		return Or{Members: members}
	}

	if raw != "" && statFile(raw) {
		return Path{Target: raw}
	}

	return Unchecked{Raw: raw}
}
