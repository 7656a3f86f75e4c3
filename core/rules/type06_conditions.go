package rules

import (
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const ruleConditions = "type06-conditions"

const (
	tagStrengthListLegacy  = "StbReinforcement_Strength_List"
	tagStrengthLegacy      = "StbReinforcement_Strength"
	tagApplyConditions     = "StbApplyConditionsList"
	tagStrengthListCurrent = "StbReinforcementStrengthList"
	tagStrengthCurrent     = "StbReinforcementStrength"
	tagPileStrengthList    = "StbPileReinforcementStrengthList"

	tagBarArrangementBeamRC = "StbSecBarArrangementBeam_RC"
	tagBarBeamSame          = "StbSecBarBeam_RC_Same"
	tagBarBeamThreeTypes    = "StbSecBarBeam_RC_ThreeTypes"
	tagBarBeamStartEnd      = "StbSecBarBeam_RC_StartEnd"
)

// ApplyConditions restructures the reinforcement strength list under
// StbCommon and, in reverse, collapses multi-position RC beam bar
// arrangements to the single arrangement 2.0.2 supports.
//
// requires: reverse runs before Type 8, which reads cover attributes from the
// first bar arrangement child, and before Type 2 renames the arrangement.
var ApplyConditions = Rule{
	Name:    ruleConditions,
	Forward: conditionsForward,
	Reverse: conditionsReverse,
}

func conditionsForward(c *Context) error {
	common := c.Doc.Root().First(tree.CommonTag)
	legacy := common.RemoveChildren(tagStrengthListLegacy)
	if len(legacy) == 0 {
		return nil
	}
	acl := common.EnsureChild(tagApplyConditions)
	moved := 0
	for _, list := range legacy {
		list.RenameChildTag(tagStrengthLegacy, tagStrengthCurrent)
		moved += len(list.Children(tagStrengthCurrent))
		mergeInto(acl, tagStrengthListCurrent, list)
	}
	c.info(ruleConditions, "moved %d reinforcement strength entries to %s", moved, tagApplyConditions)
	return nil
}

func conditionsReverse(c *Context) error {
	reverseApplyConditions(c)
	if c.model() != nil {
		collapseBeamBars(c)
	}
	return nil
}

func reverseApplyConditions(c *Context) {
	common := c.Doc.Root().First(tree.CommonTag)
	acls := common.RemoveChildren(tagApplyConditions)
	for _, acl := range acls {
		if piles := acl.RemoveChildren(tagPileStrengthList); len(piles) > 0 {
			c.lost(report.CategoryPileStrengthLists, len(piles))
			c.warn(ruleConditions, "dropped %d pile reinforcement strength lists unknown to 2.0.2", len(piles))
		}
		for _, list := range acl.RemoveChildren(tagStrengthListCurrent) {
			list.RenameChildTag(tagStrengthCurrent, tagStrengthLegacy)
			mergeInto(common, tagStrengthListLegacy, list)
		}
		for _, tag := range acl.ChildTags() {
			c.warn(ruleConditions, "dropped %s: no 2.0.2 equivalent", tag)
		}
	}
}

// mergeInto appends list under parent's tag, or merges its entries into an
// existing list there.
func mergeInto(parent *tree.Node, tag string, list *tree.Node) {
	existing := parent.First(tag)
	if existing == nil {
		parent.AppendChild(tag, list)
		return
	}
	for _, t := range list.ChildTags() {
		for _, k := range list.Children(t) {
			existing.AppendChild(t, k)
		}
	}
}

// collapseBeamBars replaces ThreeTypes/StartEnd bar arrangements with one
// Same arrangement taken from CENTER, else START, else the first entry.
func collapseBeamBars(c *Context) {
	for _, sec := range c.sections(tables.SecBeamRC) {
		for _, bars := range sec.Children(tagBarArrangementBeamRC) {
			var positional []*tree.Node
			positional = append(positional, bars.RemoveChildren(tagBarBeamThreeTypes)...)
			positional = append(positional, bars.RemoveChildren(tagBarBeamStartEnd)...)
			if len(positional) == 0 {
				continue
			}
			pick := pickPos(positional, "CENTER", "START")
			if bars.HasChildren(tagBarBeamSame) {
				c.warn(ruleConditions, "beam section %s: dropped %d positional bar arrangements beside an existing uniform one",
					sec.Attr(attrID), len(positional))
			} else {
				bars.AppendChild(tagBarBeamSame, copyExcept(pick, attrPos))
				c.warn(ruleConditions, "beam section %s: %d positional bar arrangements collapsed to the %s entry",
					sec.Attr(attrID), len(positional), posLabel(pick))
			}
			c.lost(report.CategoryComplexBarArrangements, 1)
		}
	}
}

func posLabel(n *tree.Node) string {
	if p := n.Attr(attrPos); p != "" {
		return p
	}
	return "first"
}
