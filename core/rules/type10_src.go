package rules

import (
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const ruleSRCBeam = "type10-src-beam"

const (
	tagSteelFigureBeamSRC = "StbSecSteelFigureBeam_SRC"
	tagSRCShape           = "StbSecSteelBeamShape_SRC"
	tagSRCSteelStraight   = "StbSecSteelBeam_SRC_Straight"
	tagSRCSteelTaper      = "StbSecSteelBeam_SRC_Taper"
)

// SRCBeamShapes wraps SRC beam steel shapes in StbSecSteelBeamShape_SRC,
// pairing START and END taper fragments into one taper.
//
// requires: Type 2 (looks up StbSecSteelFigureBeam_SRC).
var SRCBeamShapes = Rule{
	Name:    ruleSRCBeam,
	Forward: srcForward,
	Reverse: srcReverse,
}

func srcFigures(c *Context) []*tree.Node {
	return c.childrenOf(tables.SecBeamSRC, tagSteelFigureBeamSRC)
}

func srcForward(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, fig := range srcFigures(c) {
		if fig.HasChildren(tagSRCShape) {
			continue
		}
		straights := fig.RemoveChildren(tagSRCSteelStraight)
		fragments := fig.RemoveChildren(tagSRCSteelTaper)
		if len(straights) == 0 && len(fragments) == 0 {
			continue
		}
		shape := tree.NewNode()
		for _, s := range straights {
			shape.AppendChild(tagSRCSteelStraight, s)
		}
		pairTaperFragments(c, shape, fragments)
		fig.AppendChild(tagSRCShape, shape)
	}
	return nil
}

// pairTaperFragments matches each START fragment with the next END fragment.
// Fragments left without a partner become straight shapes.
func pairTaperFragments(c *Context, shape *tree.Node, fragments []*tree.Node) {
	degrade := func(f *tree.Node) {
		s := copyExcept(f, attrPos)
		shape.AppendChild(tagSRCSteelStraight, s)
		c.warn(ruleSRCBeam, "unmatched %s taper fragment (shape %s) written as straight", posLabel(f), f.Attr(attrShape))
	}

	var pending *tree.Node
	for _, f := range fragments {
		switch f.Attr(attrPos) {
		case "START":
			if pending != nil {
				degrade(pending)
			}
			pending = f
		case "END":
			if pending == nil {
				degrade(f)
				continue
			}
			t := copyExcept(pending, attrPos, attrShape)
			t.SetAttr("start_shape", pending.Attr(attrShape))
			t.SetAttr("end_shape", f.Attr(attrShape))
			shape.AppendChild(tagSRCSteelTaper, t)
			pending = nil
		default:
			degrade(f)
		}
	}
	if pending != nil {
		degrade(pending)
	}
}

func srcReverse(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, fig := range srcFigures(c) {
		for _, shape := range fig.RemoveChildren(tagSRCShape) {
			for _, s := range shape.Children(tagSRCSteelStraight) {
				fig.AppendChild(tagSRCSteelStraight, s)
			}
			for _, t := range shape.Children(tagSRCSteelTaper) {
				for _, end := range [][2]string{{"START", "start_shape"}, {"END", "end_shape"}} {
					f := copyExcept(t, "start_shape", "end_shape")
					f.SetAttr(attrPos, end[0])
					f.SetAttr(attrShape, t.Attr(end[1]))
					fig.AppendChild(tagSRCSteelTaper, f)
				}
			}
		}
	}
	return nil
}
