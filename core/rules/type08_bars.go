package rules

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const ruleBarWrappers = "type08-bar-wrappers"

// BarWrappers moves cover attributes of RC bar arrangements from the
// arrangement onto each bar child (2.1.0) and back onto the arrangement
// (2.0.2), defaulting the child attributes 2.1.0 requires.
//
// requires: Type 2 (arrangements are looked up by 2.1.0 tags). Reverse runs
// after Type 6 has collapsed beam bars, so the first child is the one kept.
var BarWrappers = Rule{
	Name:    ruleBarWrappers,
	Forward: barsForward,
	Reverse: barsReverse,
}

// barShape describes one family of bar children under an arrangement.
type barShape struct {
	match    func(tag string) bool
	covers   []string
	defaults map[string]string
}

type barArrangement struct {
	section, arrangement string
	shapes               []barShape
}

var (
	rectColumnBars = barShape{
		match:  func(tag string) bool { return strings.HasPrefix(tag, "StbSecBarColumn_") && strings.Contains(tag, "_Rect") },
		covers: []string{"depth_cover_start_X", "depth_cover_end_X", "depth_cover_start_Y", "depth_cover_end_Y"},
		defaults: map[string]string{
			"N_main_X_1st": "2", "N_main_Y_1st": "2", "D_band": "D10", "pitch_band": "100",
		},
	}
	circleColumnBars = barShape{
		match:    func(tag string) bool { return strings.HasPrefix(tag, "StbSecBarColumn_") && strings.Contains(tag, "_Circle") },
		covers:   []string{"depth_cover"},
		defaults: map[string]string{"N_main": "6", "D_band": "D10", "pitch_band": "100"},
	}
	beamBars = barShape{
		match:    func(tag string) bool { return strings.HasPrefix(tag, "StbSecBarBeam_RC_") },
		covers:   beamCovers,
		defaults: beamBarDefaults,
	}
	srcBeamBars = barShape{
		match:    func(tag string) bool { return strings.HasPrefix(tag, "StbSecBarBeam_SRC_") },
		covers:   beamCovers,
		defaults: beamBarDefaults,
	}

	beamCovers      = []string{"depth_cover_left", "depth_cover_right", "depth_cover_top", "depth_cover_bottom"}
	beamBarDefaults = map[string]string{"D_stirrup": "D10", "pitch_stirrup": "200"}
)

var barArrangements = []barArrangement{
	{tables.SecColumnRC, "StbSecBarArrangementColumn_RC", []barShape{rectColumnBars, circleColumnBars}},
	{tables.SecColumnSRC, "StbSecBarArrangementColumn_SRC", []barShape{rectColumnBars, circleColumnBars}},
	{tables.SecBeamRC, tagBarArrangementBeamRC, []barShape{beamBars}},
	{tables.SecBeamSRC, "StbSecBarArrangementBeam_SRC", []barShape{srcBeamBars}},
}

// isPositiveOnly reports whether attr must be strictly positive in 2.1.0.
func isPositiveOnly(attr string) bool {
	return attr == "pitch_band" || attr == "pitch_stirrup" ||
		strings.HasPrefix(attr, "N_main") || strings.HasPrefix(attr, "depth_cover")
}

func barsForward(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, ba := range barArrangements {
		for _, parent := range c.childrenOf(ba.section, ba.arrangement) {
			var covers []string
			for _, shape := range ba.shapes {
				covers = append(covers, shape.covers...)
				for _, tag := range parent.ChildTags() {
					if !shape.match(tag) {
						continue
					}
					for _, bar := range parent.Children(tag) {
						migrateBar(c, parent, bar, shape)
					}
				}
			}
			for _, a := range covers {
				parent.DelAttr(a)
			}
		}
	}
	return nil
}

func migrateBar(c *Context, parent, bar *tree.Node, shape barShape) {
	for _, a := range shape.covers {
		if v, ok := parent.LookupAttr(a); ok && !isZero(v) {
			bar.SetAttrIfAbsent(a, v)
		}
	}
	for _, a := range bar.AttrNames() {
		if isPositiveOnly(a) && isZero(bar.Attr(a)) {
			bar.DelAttr(a)
			c.info(ruleBarWrappers, "bar arrangement %s: zero %s dropped", parent.Attr(attrID), a)
		}
	}
	names := make([]string, 0, len(shape.defaults))
	for a := range shape.defaults {
		names = append(names, a)
	}
	sort.Strings(names)
	for _, a := range names {
		if bar.SetAttrIfAbsent(a, shape.defaults[a]) {
			c.info(ruleBarWrappers, "bar arrangement %s: %s defaulted to %s", parent.Attr(attrID), a, shape.defaults[a])
		}
	}
}

func barsReverse(c *Context) error {
	if c.model() == nil {
		return nil
	}
	for _, ba := range barArrangements {
		for _, parent := range c.childrenOf(ba.section, ba.arrangement) {
			first := true
			for _, tag := range parent.ChildTags() {
				shape, ok := ba.shapeFor(tag)
				if !ok {
					continue
				}
				for _, bar := range parent.Children(tag) {
					for _, a := range shape.covers {
						v, has := bar.LookupAttr(a)
						if !has {
							continue
						}
						if first {
							parent.SetAttr(a, v)
						}
						bar.DelAttr(a)
					}
					first = false
				}
			}
		}
	}
	return nil
}

func (ba barArrangement) shapeFor(tag string) (barShape, bool) {
	for _, s := range ba.shapes {
		if s.match(tag) {
			return s, true
		}
	}
	return barShape{}, false
}
