package rules

import (
	"strconv"

	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const ruleMultiSection = "type04-multi-section"

const (
	tagSteelFigureBeamS = "StbSecSteelFigureBeam_S"
	tagBeamSStraight    = "StbSecSteelBeam_S_Straight"
	tagBeamSTaper       = "StbSecSteelBeam_S_Taper"
	tagBeamSJoint       = "StbSecSteelBeam_S_Joint"
	tagBeamSHaunch      = "StbSecSteelBeam_S_Haunch"
	tagBeamSFiveTypes   = "StbSecSteelBeam_S_FiveTypes"
)

// MultiSectionBeams turns position-enumerated steel beam shapes into the
// ordered straight/taper segment list of 2.1.0 and back.
//
// requires: Type 2 (the figure is looked up by its 2.1.0 tag). Reverse is
// lossy: any beam with more than one segment is approximated.
var MultiSectionBeams = Rule{
	Name:    ruleMultiSection,
	Forward: multiSectionForward,
	Reverse: multiSectionReverse,
}

// Legacy position-enumerated kinds, each with its fixed position order.
var legacyBeamKinds = []struct {
	tag       string
	positions []string
}{
	{tagBeamSTaper, []string{"START", "END"}},
	{tagBeamSJoint, []string{"START", "CENTER", "END"}},
	{tagBeamSHaunch, []string{"START", "CENTER", "END"}},
	{tagBeamSFiveTypes, []string{"HAUNCH_S", "START", "CENTER", "END", "HAUNCH_E"}},
}

// Attributes that describe the cross-section rather than its material.
var segmentShapeAttrs = []string{attrPos, attrOrder, attrShape, "start_shape", "end_shape"}

func steelBeamFigures(c *Context) []*tree.Node {
	return c.childrenOf(tables.SecBeamS, tagSteelFigureBeamS)
}

// isSegmentForm reports whether fig already holds ordered segments.
func isSegmentForm(fig *tree.Node) bool {
	for _, tag := range []string{tagBeamSStraight, tagBeamSTaper} {
		for _, k := range fig.Children(tag) {
			if k.HasAttr(attrOrder) {
				return true
			}
		}
	}
	return false
}

func multiSectionForward(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, fig := range steelBeamFigures(c) {
		if isSegmentForm(fig) {
			continue
		}
		var positioned []*tree.Node
		for _, kind := range legacyBeamKinds {
			if kids := fig.Children(kind.tag); len(kids) > 0 {
				positioned = sortByPos(kids, kind.positions)
				fig.RemoveChildren(kind.tag)
				break
			}
		}
		if positioned == nil {
			// A lone legacy straight only needs its order.
			for i, k := range fig.Children(tagBeamSStraight) {
				k.SetAttr(attrOrder, strconv.Itoa(i+1))
			}
			continue
		}
		straights, tapers := buildSegments(positioned)
		fig.SetChildren(tagBeamSStraight, straights)
		fig.SetChildren(tagBeamSTaper, tapers)
	}
	return nil
}

// buildSegments emits one segment per adjacent pair of positions: straight
// when both ends share a shape name, taper otherwise. Material attributes
// come from the first position of each pair.
func buildSegments(positioned []*tree.Node) (straights, tapers []*tree.Node) {
	if len(positioned) == 1 {
		s := copyExcept(positioned[0], segmentShapeAttrs...)
		s.SetAttr(attrOrder, "1")
		s.SetAttr(attrShape, positioned[0].Attr(attrShape))
		return []*tree.Node{s}, nil
	}
	for i := 0; i+1 < len(positioned); i++ {
		a, b := positioned[i], positioned[i+1]
		seg := copyExcept(a, segmentShapeAttrs...)
		seg.SetAttr(attrOrder, strconv.Itoa(i+1))
		if a.Attr(attrShape) == b.Attr(attrShape) {
			seg.SetAttr(attrShape, a.Attr(attrShape))
			straights = append(straights, seg)
			continue
		}
		seg.SetAttr("start_shape", a.Attr(attrShape))
		seg.SetAttr("end_shape", b.Attr(attrShape))
		tapers = append(tapers, seg)
	}
	return straights, tapers
}

func segmentsOf(fig *tree.Node) []*tree.Node {
	var segs []*tree.Node
	for _, tag := range []string{tagBeamSStraight, tagBeamSTaper} {
		for _, k := range fig.Children(tag) {
			if k.HasAttr(attrOrder) {
				segs = append(segs, k)
			}
		}
	}
	return sortByOrder(segs)
}

func segmentStart(seg *tree.Node) string {
	if s, ok := seg.LookupAttr("start_shape"); ok {
		return s
	}
	return seg.Attr(attrShape)
}

func segmentEnd(seg *tree.Node) string {
	if s, ok := seg.LookupAttr("end_shape"); ok {
		return s
	}
	return seg.Attr(attrShape)
}

func multiSectionReverse(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, sec := range c.sections(tables.SecBeamS) {
		for _, fig := range sec.Children(tagSteelFigureBeamS) {
			segs := segmentsOf(fig)
			if len(segs) == 0 {
				continue
			}
			fig.RemoveChildren(tagBeamSStraight)
			fig.RemoveChildren(tagBeamSTaper)

			tag, nodes := legacyFromSegments(segs)
			fig.SetChildren(tag, nodes)
			if len(segs) >= 2 {
				c.lost(report.CategoryMultiSectionBeams, 1)
				c.warn(ruleMultiSection, "steel beam section %s: %d segments approximated as %s", sec.Attr(attrID), len(segs), tag)
			}
		}
	}
	return nil
}

// legacyFromSegments maps an ordered segment list to a position-enumerated
// legacy kind. Boundary i is the start of segment i; the last boundary is
// the end of the last segment.
func legacyFromSegments(segs []*tree.Node) (string, []*tree.Node) {
	if len(segs) == 1 && !segs[0].HasAttr("start_shape") {
		s := copyExcept(segs[0], segmentShapeAttrs...)
		s.SetAttr(attrShape, segs[0].Attr(attrShape))
		return tagBeamSStraight, []*tree.Node{s}
	}

	type boundary struct {
		shape string
		from  *tree.Node
	}
	bounds := make([]boundary, 0, len(segs)+1)
	for _, s := range segs {
		bounds = append(bounds, boundary{segmentStart(s), s})
	}
	last := segs[len(segs)-1]
	bounds = append(bounds, boundary{segmentEnd(last), last})

	var tag string
	var positions []string
	switch len(segs) {
	case 1:
		tag, positions = tagBeamSTaper, []string{"START", "END"}
	case 4:
		tag, positions = tagBeamSFiveTypes, []string{"HAUNCH_S", "START", "CENTER", "END", "HAUNCH_E"}
	case 2:
		tag, positions = tagBeamSHaunch, []string{"START", "CENTER", "END"}
	default:
		tag, positions = tagBeamSHaunch, []string{"START", "CENTER", "END"}
		bounds = []boundary{bounds[0], bounds[len(bounds)/2], bounds[len(bounds)-1]}
	}

	nodes := make([]*tree.Node, len(positions))
	for i, pos := range positions {
		n := copyExcept(bounds[i].from, segmentShapeAttrs...)
		n.SetAttr(attrPos, pos)
		n.SetAttr(attrShape, bounds[i].shape)
		nodes[i] = n
	}
	return tag, nodes
}
