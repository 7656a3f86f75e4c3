// Package version parses ST-Bridge schema version strings and checks
// documents against an expected version.
package version

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/stbconv/core/errors"
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

// Schema versions handled by the converter.
const (
	Legacy  = "2.0.2"
	Current = "2.1.0"
)

// Version is a parsed schema version.
type Version struct {
	Major int
	Minor int
	Patch int

	// HasPatch is false for two-component strings such as "2.1".
	HasPatch bool
}

// versionGrammar is the participle grammar for version strings.
// Examples: "2.0.2", "2.1", "v2.1.0", " 2.0.2 "
//
//nolint:govet // participle grammar tags are not standard struct tags
type versionGrammar struct {
	Prefix string `@Prefix?`
	Major  int    `@Int`
	Minor  int    `"." @Int`
	Patch  *int   `( "." @Int )?`
}

var versionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `[vV]`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `\.`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var versionParser = participle.MustBuild[versionGrammar](
	participle.Lexer(versionLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a version string.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, errors.NewParse("version", "", "empty version string")
	}
	g, err := versionParser.ParseString("", s)
	if err != nil {
		pe := errors.NewParse("version", "", fmt.Sprintf("invalid version %q", s))
		pe.Err = err
		return Version{}, pe
	}
	v := Version{Major: g.Major, Minor: g.Minor}
	if g.Patch != nil {
		v.Patch = *g.Patch
		v.HasPatch = true
	}
	return v, nil
}

// MustParse is Parse for compile-time constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version; two-component versions stay two-component.
func (v Version) String() string {
	if v.HasPatch {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// MajorMinor renders "major.minor".
func (v Version) MajorMinor() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// SameMajorMinor reports whether v and o agree on major and minor.
func (v Version) SameMajorMinor(o Version) bool {
	return v.Major == o.Major && v.Minor == o.Minor
}

// Compare orders versions; a missing patch compares as zero.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return sign(v.Major - o.Major)
	case v.Minor != o.Minor:
		return sign(v.Minor - o.Minor)
	default:
		return sign(v.Patch - o.Patch)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Detect returns the version attribute of the document root.
func Detect(doc *tree.Document) (string, bool) {
	root := doc.Root()
	if root == nil {
		return "", false
	}
	v, ok := root.LookupAttr(tree.VersionAttr)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Validate checks the document's major.minor version against expected.
// Mismatches, missing versions and unparsable strings are recorded as
// warnings on rep (when non-nil) and yield false; Validate never fails hard.
func Validate(doc *tree.Document, expected string, rep *report.Report) bool {
	const rule = "validate"
	warn := func(format string, args ...any) {
		if rep != nil {
			rep.Warn(rule, format, args...)
		}
	}

	want, err := Parse(expected)
	if err != nil {
		warn("expected version %q is not a valid version", expected)
		return false
	}
	got, ok := Detect(doc)
	if !ok {
		warn("document has no version attribute; expected %s", want.MajorMinor())
		return false
	}
	have, err := Parse(got)
	if err != nil {
		warn("document version %q is not a valid version; expected %s", got, want.MajorMinor())
		return false
	}
	if !have.SameMajorMinor(want) {
		warn("document version %s does not match expected %s", have, want.MajorMinor())
		return false
	}
	return true
}
