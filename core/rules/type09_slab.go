package rules

import "github.com/FocuswithJustin/stbconv/core/tables"

const ruleSlab = "type09-slab"

const (
	tagSlabConventional   = "StbSecSlab_RC_Conventional"
	tagFigureSlabRC       = "StbSecFigureSlab_RC"
	tagBarArrangementSlab = "StbSecBarArrangementSlab_RC"
)

// SlabWrapper wraps RC slab figures and bar arrangements in
// StbSecSlab_RC_Conventional and renames the figure children.
//
// requires: Type 2 forward (looks up StbSecFigureSlab_RC), Type 2 reverse
// runs after this.
var SlabWrapper = Rule{
	Name:    ruleSlab,
	Forward: slabForward,
	Reverse: slabReverse,
}

func slabForward(c *Context) error {
	if c.model() == nil {
		return nil
	}
	renames := tables.SlabFigureRenames(true)
	wrapped := 0
	for _, sec := range c.sections(tables.SecSlabRC) {
		if !wrap(sec, tagSlabConventional, tagFigureSlabRC, tagBarArrangementSlab) {
			continue
		}
		wrapped++
		for _, conv := range sec.Children(tagSlabConventional) {
			for _, fig := range conv.Children(tagFigureSlabRC) {
				renameChildren(fig, renames, tagFigureSlabRC)
			}
		}
	}
	if wrapped > 0 {
		c.info(ruleSlab, "wrapped %d RC slab sections", wrapped)
	}
	return nil
}

func slabReverse(c *Context) error {
	if c.model() == nil {
		return nil
	}
	renames := tables.SlabFigureRenames(false)
	for _, sec := range c.sections(tables.SecSlabRC) {
		for _, conv := range sec.Children(tagSlabConventional) {
			for _, fig := range conv.Children(tagFigureSlabRC) {
				renameChildren(fig, renames, tagFigureSlabRC)
			}
		}
		unwrap(sec, tagSlabConventional)
	}
	return nil
}
