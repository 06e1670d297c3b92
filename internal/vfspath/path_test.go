package vfspath

import (
	"testing"

	"github.com/objectfs/memvfs/internal/config"
)

func unixType() *Type {
	return NewType(config.UnixPathType(), config.NormalizationNone, config.NormalizationNone)
}

func TestParseAbsolute(t *testing.T) {
	t.Parallel()

	pt := unixType()
	p := pt.Parse("/work/a/b")

	if !p.IsAbsolute() {
		t.Fatal("expected absolute path")
	}
	if p.NameCount() != 3 {
		t.Fatalf("NameCount() = %d, want 3", p.NameCount())
	}
	if p.String() != "/work/a/b" {
		t.Errorf("String() = %q, want /work/a/b", p.String())
	}
}

func TestParseRelative(t *testing.T) {
	t.Parallel()

	pt := unixType()
	p := pt.Parse("a/b")
	if p.IsAbsolute() {
		t.Fatal("expected relative path")
	}
	if p.String() != "a/b" {
		t.Errorf("String() = %q, want a/b", p.String())
	}
}

func TestGetFileNameAndParent(t *testing.T) {
	t.Parallel()

	pt := unixType()
	p := pt.Parse("/work/a/b")

	name, ok := p.GetFileName()
	if !ok || name.Display() != "b" {
		t.Fatalf("GetFileName() = %v, %v, want b, true", name, ok)
	}

	parent, ok := p.GetParent()
	if !ok || parent.String() != "/work/a" {
		t.Fatalf("GetParent() = %q, %v, want /work/a, true", parent.String(), ok)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	pt := unixType()
	base := pt.Parse("/work")
	rel := pt.Parse("a/b")

	if got := base.Resolve(rel).String(); got != "/work/a/b" {
		t.Errorf("Resolve() = %q, want /work/a/b", got)
	}

	abs := pt.Parse("/other")
	if got := base.Resolve(abs).String(); got != "/other" {
		t.Errorf("Resolve(absolute) = %q, want /other", got)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	pt := unixType()
	tests := []struct{ in, want string }{
		{"/work/./a/../b", "/work/b"},
		{"/work/a/../../b", "/b"},
		{"a/./b/../c", "a/c"},
		{"../a", "../a"},
	}

	for _, tt := range tests {
		if got := pt.Parse(tt.in).Normalize().String(); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRelativize(t *testing.T) {
	t.Parallel()

	pt := unixType()
	base := pt.Parse("/work/a")
	target := pt.Parse("/work/b/c")

	rel, err := base.Relativize(target)
	if err != nil {
		t.Fatalf("Relativize() error = %v", err)
	}
	if got := rel.String(); got != "../b/c" {
		t.Errorf("Relativize() = %q, want ../b/c", got)
	}

	resolved := base.Resolve(rel).Normalize()
	if !resolved.Equal(target.Normalize()) {
		t.Errorf("base.Resolve(base.Relativize(target)) = %q, want %q", resolved.String(), target.String())
	}
}

func TestSubpath(t *testing.T) {
	t.Parallel()

	pt := unixType()
	p := pt.Parse("/a/b/c/d")
	sub := p.Subpath(1, 3)
	if sub.IsAbsolute() {
		t.Error("Subpath() should be relative")
	}
	if got := sub.String(); got != "b/c" {
		t.Errorf("Subpath(1,3) = %q, want b/c", got)
	}
}

func TestCaseInsensitiveEquality(t *testing.T) {
	t.Parallel()

	pt := NewType(config.OSXPathType(), config.NormalizationNone, config.NormalizationNone)
	a := pt.Parse("/Work/File.TXT")
	b := pt.Parse("/work/file.txt")

	if !a.Equal(b) {
		t.Error("case-insensitive path type should equal names regardless of case")
	}
	if got := a.GetName(1).Display(); got != "File.TXT" {
		t.Errorf("display form should be preserved, got %q", got)
	}
}

func TestToAbsolutePath(t *testing.T) {
	t.Parallel()

	pt := unixType()
	cwd := pt.Parse("/work")
	rel := pt.Parse("a")

	if got := rel.ToAbsolutePath(cwd).String(); got != "/work/a" {
		t.Errorf("ToAbsolutePath() = %q, want /work/a", got)
	}

	abs := pt.Parse("/other")
	if got := abs.ToAbsolutePath(cwd).String(); got != "/other" {
		t.Errorf("ToAbsolutePath() on already-absolute path = %q, want /other", got)
	}
}
