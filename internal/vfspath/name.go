package vfspath

import (
	"golang.org/x/text/unicode/norm"

	"github.com/objectfs/memvfs/internal/config"
)

// Name is an interned path segment: a display form preserved for listing,
// and a canonical form used for hashing and equality under the
// configuration's case/Unicode policy. Two Names are equal iff their
// canonical forms are equal.
type Name struct {
	display   string
	canonical string
}

// NameTable interns Names under a fixed case-sensitivity and normalization
// policy, so repeated lookups of the same string share one canonical form.
type NameTable struct {
	caseSensitive bool
	canonicalForm config.NormalizationForm
	displayForm   config.NormalizationForm
}

// NewNameTable creates a NameTable applying the given case-sensitivity and
// normalization policy to every Name it interns.
func NewNameTable(caseSensitive bool, canonicalForm, displayForm config.NormalizationForm) *NameTable {
	return &NameTable{
		caseSensitive: caseSensitive,
		canonicalForm: canonicalForm,
		displayForm:   displayForm,
	}
}

// Intern produces a Name for raw, applying the table's normalization and
// case policy to derive its canonical form.
func (t *NameTable) Intern(raw string) Name {
	display := applyNormalization(raw, t.displayForm)
	canonical := applyNormalization(raw, t.canonicalForm)
	if !t.caseSensitive {
		canonical = foldCase(canonical)
	}
	return Name{display: display, canonical: canonical}
}

func applyNormalization(s string, form config.NormalizationForm) string {
	switch form {
	case config.NormalizationNFC:
		return norm.NFC.String(s)
	case config.NormalizationNFD:
		return norm.NFD.String(s)
	default:
		return s
	}
}

func foldCase(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, toLowerRune(r))
	}
	return string(out)
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// Display returns the form of the Name preserved for listing.
func (n Name) Display() string { return n.display }

// Canonical returns the form of the Name used for hashing and equality.
func (n Name) Canonical() string { return n.canonical }

// Equal reports whether n and other name the same entry under the table's
// policy, by comparing canonical forms.
func (n Name) Equal(other Name) bool { return n.canonical == other.canonical }

// String returns the Name's display form.
func (n Name) String() string { return n.display }
