// Package rules implements the twelve conversion rule modules. Each rule has
// a forward pass (2.0.2 to 2.1.0) and a reverse pass (2.1.0 to 2.0.2) that
// mutate a working document in place.
//
// Rules tolerate absence: a pass whose trigger shape is not in the document
// returns nil without touching anything. Ordering constraints between rules
// are noted on each rule as "requires:" facts and enforced by the pipelines
// in core/converter.
package rules

import (
	"github.com/FocuswithJustin/stbconv/core/idgen"
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

// Context is the state shared by every pass of one conversion call.
type Context struct {
	Doc    *tree.Document
	Report *report.Report
	IDs    *idgen.Synthesizer

	// SRC beam section ids whose haunch entries Type 2 folded away.
	foldedHaunches map[string]bool
}

// NewContext builds a context with a fresh id synthesizer.
func NewContext(doc *tree.Document, rep *report.Report) *Context {
	return &Context{Doc: doc, Report: rep, IDs: idgen.New()}
}

// Pass is one direction of a rule.
type Pass func(*Context) error

// Rule is a named pair of passes.
type Rule struct {
	Name    string
	Forward Pass
	Reverse Pass
}

// For returns the pass for direction.
func (r Rule) For(direction report.Direction) Pass {
	if direction == report.Reverse {
		return r.Reverse
	}
	return r.Forward
}

// All returns every rule in type number order.
func All() []Rule {
	return []Rule{
		Version,
		Renaming,
		Attributes,
		MultiSectionBeams,
		Openings,
		ApplyConditions,
		Joints,
		BarWrappers,
		SlabWrapper,
		SRCBeamShapes,
		PileSections,
		BasePlates,
	}
}

// ByName looks up a rule.
func ByName(name string) (Rule, bool) {
	for _, r := range All() {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}

func (c *Context) info(rule, format string, args ...any) {
	if c.Report != nil {
		c.Report.Info(rule, format, args...)
	}
}

func (c *Context) warn(rule, format string, args ...any) {
	if c.Report != nil {
		c.Report.Warn(rule, format, args...)
	}
}

func (c *Context) lost(cat report.Category, n int) {
	if c.Report != nil && n > 0 {
		c.Report.DataLoss.Add(cat, n)
	}
}
