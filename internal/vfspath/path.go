// Package vfspath implements the path model: PathType-driven parsing and
// rendering of path strings into immutable sequences of interned Names, plus
// the resolve/relativize/normalize algebra path values support.
package vfspath

import (
	"strings"

	"github.com/objectfs/memvfs/internal/config"
	"github.com/objectfs/memvfs/pkg/vfserr"
)

// Type wraps a config.PathType with the NameTable it drives, and knows how
// to parse and render path strings under that syntax.
type Type struct {
	config.PathType
	names *NameTable
}

// NewType builds a Type from a path syntax and a naming policy.
func NewType(pt config.PathType, canonicalForm, displayForm config.NormalizationForm) *Type {
	return &Type{
		PathType: pt,
		names:    NewNameTable(pt.CaseSensitive, canonicalForm, displayForm),
	}
}

// Path is an immutable sequence of Names with an optional root segment.
// A Path with a non-empty root is absolute.
type Path struct {
	t     *Type
	root  string // empty for relative paths
	names []Name
}

// Parse splits raw into a Path under t's syntax, without touching the
// filesystem. Leading root forms ("/" for Unix, "C:\" for Windows) are
// recognized and recorded separately from the segment list.
func (t *Type) Parse(raw string) Path {
	root := ""
	rest := raw
	sep := t.Separator

	if t.Flavor == config.OSWindows {
		if len(raw) >= 2 && raw[1] == ':' {
			root = raw[:2] + sep
			rest = strings.TrimPrefix(raw[2:], sep)
		}
	} else if strings.HasPrefix(raw, sep) {
		root = sep
		rest = strings.TrimPrefix(raw, sep)
	}

	var segs []Name
	for _, part := range strings.Split(rest, sep) {
		if part == "" {
			continue
		}
		segs = append(segs, t.names.Intern(part))
	}

	return Path{t: t, root: root, names: segs}
}

// newPath builds a Path directly from a root and a slice of Names, used
// internally by resolve/relativize/normalize.
func (t *Type) newPath(root string, names []Name) Path {
	return Path{t: t, root: root, names: names}
}

// InternName interns a single path segment under t's naming policy,
// independent of any full path string.
func (t *Type) InternName(raw string) Name {
	return t.names.Intern(raw)
}

// IsAbsolute reports whether p has a root segment.
func (p Path) IsAbsolute() bool { return p.root != "" }

// Root returns the root segment, or "" if p is relative.
func (p Path) Root() string { return p.root }

// NameCount returns the number of segments in p, excluding the root.
func (p Path) NameCount() int { return len(p.names) }

// GetName returns the i-th segment.
func (p Path) GetName(i int) Name { return p.names[i] }

// GetFileName returns the last segment, or the zero Name if p is empty.
func (p Path) GetFileName() (Name, bool) {
	if len(p.names) == 0 {
		return Name{}, false
	}
	return p.names[len(p.names)-1], true
}

// GetParent returns the path without its final segment. An empty or
// single-segment absolute path has no parent distinct from the root.
func (p Path) GetParent() (Path, bool) {
	if len(p.names) == 0 {
		return Path{}, false
	}
	return p.t.newPath(p.root, p.names[:len(p.names)-1]), true
}

// Subpath returns the segments [begin, end) as a new relative path.
func (p Path) Subpath(begin, end int) Path {
	segs := make([]Name, end-begin)
	copy(segs, p.names[begin:end])
	return p.t.newPath("", segs)
}

// Resolve appends other's segments to p. If other is absolute, other is
// returned unchanged (matching the semantics of Path.resolve in the
// reference path APIs this model follows).
func (p Path) Resolve(other Path) Path {
	if other.IsAbsolute() {
		return other
	}
	if len(other.names) == 0 {
		return p
	}
	segs := make([]Name, 0, len(p.names)+len(other.names))
	segs = append(segs, p.names...)
	segs = append(segs, other.names...)
	return p.t.newPath(p.root, segs)
}

// ToAbsolutePath resolves p against cwd if p is relative.
func (p Path) ToAbsolutePath(cwd Path) Path {
	if p.IsAbsolute() {
		return p
	}
	return cwd.Resolve(p)
}

// Relativize computes the relative path that, resolved against p, yields
// other. Both paths must share the same rootedness.
func (p Path) Relativize(other Path) (Path, error) {
	if p.IsAbsolute() != other.IsAbsolute() {
		return Path{}, vfserr.New(vfserr.InvalidArgument, "cannot relativize paths of different rootedness").
			WithComponent("vfspath").WithOperation("relativize")
	}

	common := 0
	for common < len(p.names) && common < len(other.names) && p.names[common].Equal(other.names[common]) {
		common++
	}

	up := len(p.names) - common
	segs := make([]Name, 0, up+len(other.names)-common)
	for i := 0; i < up; i++ {
		segs = append(segs, p.t.names.Intern(".."))
	}
	segs = append(segs, other.names[common:]...)

	return p.t.newPath("", segs), nil
}

// Normalize removes "." segments and collapses ".." against prior
// non-".." segments, without touching the filesystem. Leading ".." on an
// absolute path is dropped (it cannot escape the root); on a relative path
// it is preserved.
func (p Path) Normalize() Path {
	dot := p.t.names.Intern(".")
	dotdot := p.t.names.Intern("..")

	out := make([]Name, 0, len(p.names))
	for _, n := range p.names {
		switch {
		case n.Equal(dot):
			continue
		case n.Equal(dotdot):
			if len(out) > 0 && !out[len(out)-1].Equal(dotdot) {
				out = out[:len(out)-1]
				continue
			}
			if p.IsAbsolute() {
				continue
			}
			out = append(out, n)
		default:
			out = append(out, n)
		}
	}
	return p.t.newPath(p.root, out)
}

// String renders p back to a path string under its Type's syntax.
func (p Path) String() string {
	parts := make([]string, len(p.names))
	for i, n := range p.names {
		parts[i] = n.Display()
	}
	return p.root + strings.Join(parts, p.t.Separator)
}

// Equal reports whether p and other name the same path: same rootedness
// and pairwise-equal segments.
func (p Path) Equal(other Path) bool {
	if p.root != other.root || len(p.names) != len(other.names) {
		return false
	}
	for i := range p.names {
		if !p.names[i].Equal(other.names[i]) {
			return false
		}
	}
	return true
}
