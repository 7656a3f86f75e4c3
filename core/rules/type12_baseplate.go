package rules

import (
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const ruleBasePlate = "type12-base-plate"

const (
	tagBaseColumn       = "StbSecBaseColumn_S"
	tagBaseConventional = "StbSecBaseConventional_S"
	tagBaseProduct      = "StbSecBaseProduct_S"
)

// BasePlates wraps steel and CFT column base plates in StbSecBaseColumn_S
// and moves repeatable anchor bolts and rib plates into plural containers.
//
// requires: nothing beyond Type 1. Reverse is lossy when a container holds
// more than one child.
var BasePlates = Rule{
	Name:    ruleBasePlate,
	Forward: basePlateForward,
	Reverse: basePlateReverse,
}

var baseColumnSections = []string{tables.SecColumnS, tables.SecColumnCFT}

// Singular child tag to plural container tag.
var basePlurals = [][2]string{
	{"StbSecBaseConventional_S_AnchorBolt", "StbSecBaseConventional_S_AnchorBolts"},
	{"StbSecBaseConventional_S_RibPlate", "StbSecBaseConventional_S_RibPlates"},
}

func basePlateForward(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, kind := range baseColumnSections {
		for _, sec := range c.sections(kind) {
			if !wrap(sec, tagBaseColumn, tagBaseConventional, tagBaseProduct) {
				continue
			}
			for _, base := range sec.First(tagBaseColumn).Children(tagBaseConventional) {
				for _, p := range basePlurals {
					wrap(base, p[1], p[0])
				}
			}
		}
	}
	return nil
}

func basePlateReverse(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, kind := range baseColumnSections {
		for _, sec := range c.sections(kind) {
			for _, wrapper := range sec.Children(tagBaseColumn) {
				for _, base := range wrapper.Children(tagBaseConventional) {
					collapsePlurals(c, sec, base)
				}
			}
			unwrap(sec, tagBaseColumn)
		}
	}
	return nil
}

// collapsePlurals keeps the first child of each plural container as the
// 2.0.2 singular element.
func collapsePlurals(c *Context, sec, base *tree.Node) {
	for _, p := range basePlurals {
		var kids []*tree.Node
		for _, container := range base.RemoveChildren(p[1]) {
			kids = append(kids, container.Children(p[0])...)
		}
		if len(kids) == 0 {
			continue
		}
		base.SetChildren(p[0], kids[:1])
		if extra := len(kids) - 1; extra > 0 {
			c.lost(report.CategoryExtraBasePlateChildren, extra)
			c.warn(ruleBasePlate, "column section %s: kept the first of %d %s, dropped %d",
				sec.Attr(attrID), len(kids), p[0], extra)
		}
	}
}
