package rules

import (
	"strings"

	"github.com/FocuswithJustin/stbconv/core/tables"
)

const rulePile = "type11-pile"

// PileSections inserts and removes the 2.1.0 pile section wrappers and
// renames precast pile products.
//
// requires: Type 2 forward (RC pile children carry their 2.1.0 names).
var PileSections = Rule{
	Name:    rulePile,
	Forward: pileForward,
	Reverse: pileReverse,
}

const tagFigurePileProduct = "StbSecFigurePileProduct"

var pileWrappers = []struct {
	section, wrapper string
	children         []string
}{
	{tables.SecPileRC, "StbSecPile_RC_Conventional", []string{"StbSecFigurePile_RC", "StbSecBarArrangementPile_RC"}},
	{tables.SecPileS, "StbSecFigurePile_S", []string{"StbSecPile_S_Straight", "StbSecPile_S_Taper", "StbSecPile_S_Rotational"}},
}

func pileForward(c *Context) error {
	if c.model() == nil {
		return nil
	}
	wrapped := 0
	for _, pw := range pileWrappers {
		for _, sec := range c.sections(pw.section) {
			if wrap(sec, pw.wrapper, pw.children...) {
				wrapped++
			}
		}
	}

	renames := tables.PileProductRenames(true)
	for _, sec := range c.sections(tables.SecPileProd) {
		if sec.HasChildren(tagFigurePileProduct) {
			continue
		}
		renameChildren(sec, renames, tables.SecPileProd)
		var products []string
		for _, tag := range sec.ChildTags() {
			if strings.HasPrefix(tag, tables.SecPileProd) {
				products = append(products, tag)
			}
		}
		if wrap(sec, tagFigurePileProduct, products...) {
			wrapped++
		}
	}
	if wrapped > 0 {
		c.info(rulePile, "wrapped %d pile sections", wrapped)
	}
	return nil
}

func pileReverse(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, pw := range pileWrappers {
		for _, sec := range c.sections(pw.section) {
			unwrap(sec, pw.wrapper)
		}
	}
	renames := tables.PileProductRenames(false)
	for _, sec := range c.sections(tables.SecPileProd) {
		if unwrap(sec, tagFigurePileProduct) {
			renameChildren(sec, renames, tables.SecPileProd)
		}
	}
	return nil
}
