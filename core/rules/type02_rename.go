package rules

import (
	"strconv"

	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const ruleRename = "type02-rename"

const (
	tagFigureBeamSRC  = "StbSecFigureBeam_SRC"
	tagFigureBeamRC   = "StbSecFigureBeam_RC"
	tagFigureColumnRC = "StbSecFigureColumn_RC"
	tagSRCHaunch      = "StbSecBeam_SRC_Haunch"
	tagSRCStraight    = "StbSecBeam_SRC_Straight"
)

// Renaming renames section children through the master rename table,
// folds SRC beam haunches into a single straight figure and injects the
// order attribute 2.1.0 expects on RC figure children.
//
// requires: forward, runs before every wrapper rule (4, 8 to 12) since those
// look up current tags. Reverse runs last because every earlier reverse rule
// looks up current tags.
var Renaming = Rule{
	Name:    ruleRename,
	Forward: renameForward,
	Reverse: renameReverse,
}

// Figures whose children carry an order attribute in 2.1.0.
var orderedFigures = [][2]string{
	{tables.SecBeamRC, tagFigureBeamRC},
	{tables.SecColumnRC, tagFigureColumnRC},
}

func renameForward(c *Context) error {
	if c.model() == nil {
		return nil
	}
	fwd := tables.ForwardRenames()
	renamed := 0
	for _, scope := range fwd.Scopes() {
		for _, sec := range c.sections(scope) {
			renamed += renameChildren(sec, fwd, scope)
		}
	}
	if renamed > 0 {
		c.info(ruleRename, "renamed %d section child sequences", renamed)
	}

	for _, sec := range c.sections(tables.SecBeamSRC) {
		for _, fig := range sec.Children(tagFigureBeamSRC) {
			foldHaunch(c, sec, fig)
		}
	}

	for _, of := range orderedFigures {
		for _, fig := range c.childrenOf(of[0], of[1]) {
			for _, tag := range fig.ChildTags() {
				for i, k := range fig.Children(tag) {
					k.SetAttrIfAbsent(attrOrder, strconv.Itoa(i+1))
				}
			}
		}
	}
	return nil
}

// foldHaunch replaces START/CENTER/END haunch entries with one straight
// entry taken from CENTER, else the middle entry. The section is recorded so
// Type 3 still derives type_haunch_H from the original figure.
func foldHaunch(c *Context, sec, fig *tree.Node) {
	haunches := fig.Children(tagSRCHaunch)
	if len(haunches) == 0 {
		return
	}
	pick := pickPos(haunches, "CENTER")
	if pick.Attr(attrPos) != "CENTER" {
		pick = haunches[len(haunches)/2]
	}
	fig.RemoveChildren(tagSRCHaunch)
	fig.SetChildren(tagSRCStraight, []*tree.Node{copyExcept(pick, attrPos)})
	if c.foldedHaunches == nil {
		c.foldedHaunches = make(map[string]bool)
	}
	c.foldedHaunches[sec.Attr(attrID)] = true
	c.warn(ruleRename, "SRC beam section %s: %d haunch entries folded into one straight figure (width=%s depth=%s)",
		sec.Attr(attrID), len(haunches), pick.Attr("width"), pick.Attr("depth"))
}

func renameReverse(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, of := range orderedFigures {
		for _, fig := range c.childrenOf(of[0], of[1]) {
			for _, tag := range fig.ChildTags() {
				for _, k := range fig.Children(tag) {
					k.DelAttr(attrOrder)
				}
			}
		}
	}

	rev := tables.ReverseRenames()
	renamed := 0
	for _, scope := range rev.Scopes() {
		for _, sec := range c.sections(scope) {
			renamed += renameChildren(sec, rev, scope)
		}
	}
	if renamed > 0 {
		c.info(ruleRename, "renamed %d section child sequences", renamed)
	}
	return nil
}
