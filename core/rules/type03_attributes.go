package rules

import (
	"regexp"
	"sort"
	"strings"

	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const ruleAttributes = "type03-attributes"

// Attributes removes attributes the target schema does not know, adds the
// ones it requires, then runs value fixups.
//
// requires: forward, runs last. Type 7 must already have relocated joints
// (this rule strips the remaining endpoint attributes) and type_haunch_H is
// computed from renamed RC figures. Reverse runs before Type 7 so the
// restored joint attributes are not touched.
var Attributes = Rule{
	Name:    ruleAttributes,
	Forward: attributesForward,
	Reverse: attributesReverse,
}

var guidPattern = regexp.MustCompile(`^[0-9A-Fa-f]{8}-?[0-9A-Fa-f]{4}-?[0-9A-Fa-f]{4}-?[0-9A-Fa-f]{4}-?[0-9A-Fa-f]{12}$`)

func attributesForward(c *Context) error {
	if c.model() == nil {
		return nil
	}
	warnDroppedConditions(c)
	applyRemovals(c, tables.ForwardRemovals)
	applyAdditions(c, tables.ForwardAdditions)

	fixNodeCoordinates(c)
	fixSteelShapeDimensions(c)
	fixFigureDimensions(c)
	fixSteelFigureStrength(c)
	fixColumnBaseType(c)
	fixMemberKindStructure(c)
	fixSlabKindStructure(c)
	fixOpeningSizes(c)
	dropZeroAttr(c, tables.PathStories, "height")
	fixRCSectionCovers(c)
	dropEmptyAttr(c, tables.PathWalls, "thickness")
	return nil
}

func attributesReverse(c *Context) error {
	if c.model() == nil {
		return nil
	}
	applyRemovals(c, tables.ReverseRemovals)
	applyAdditions(c, tables.ReverseAdditions)

	for _, slab := range c.nodes(tables.PathSlabs) {
		if slab.Attr("kind_structure") == "DECK" {
			slab.SetAttr("kind_structure", "RC")
			c.warn(ruleAttributes, "slab %s: kind_structure DECK written as RC", slab.Attr(attrID))
		}
	}
	if steel := tree.NavigateFirst(c.Doc.Root(), tables.PathSteelShapes...); steel != nil {
		for _, tag := range []string{"StbSecRoll-T", "StbSecRoll-Bar"} {
			if kids := steel.RemoveChildren(tag); len(kids) > 0 {
				c.warn(ruleAttributes, "removed %d %s steel shapes unknown to 2.0.2", len(kids), tag)
			}
		}
	}
	return nil
}

// conditionKinds are the member kinds whose end conditions 2.1.0 drops.
var conditionKinds = []string{"StbColumn", "StbPost", "StbGirder", "StbBeam", "StbBrace"}

// warnDroppedConditions warns for each member whose removed end conditions
// differ from the value reverse conversion writes back.
func warnDroppedConditions(c *Context) {
	for _, kind := range conditionKinds {
		rm, ok := tables.ForwardRemovals.Resolve(kind)
		if !ok {
			continue
		}
		add, _ := tables.ReverseAdditions.Resolve(kind)
		for _, n := range c.nodes(rm.Path) {
			var lost []string
			restored := ""
			for _, a := range rm.Attributes {
				if !strings.HasPrefix(a, "condition_") {
					continue
				}
				v, ok := n.LookupAttr(a)
				v = strings.TrimSpace(v)
				if !ok || v == "" || v == add.Defaults[a] {
					continue
				}
				lost = append(lost, a+"="+v)
				restored = add.Defaults[a]
			}
			if len(lost) > 0 {
				c.warn(ruleAttributes, "%s %s: %s dropped, reverse conversion writes %s",
					kind, n.Attr(attrID), strings.Join(lost, " "), restored)
			}
		}
	}
}

func applyRemovals(c *Context, t tables.RemovalTable) {
	for _, kind := range t.Kinds() {
		r, ok := t.Resolve(kind)
		if !ok {
			continue
		}
		removed := 0
		for _, n := range c.nodes(r.Path) {
			for _, a := range r.Attributes {
				if n.DelAttr(a) {
					removed++
				}
			}
		}
		if removed > 0 {
			c.info(ruleAttributes, "%s: removed %d attributes", kind, removed)
		}
	}
}

func applyAdditions(c *Context, t tables.AdditionTable) {
	for _, kind := range t.Kinds() {
		a, ok := t.Resolve(kind)
		if !ok {
			continue
		}
		names := make([]string, 0, len(a.Defaults))
		for name := range a.Defaults {
			if !contains(a.Special, name) {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		added := 0
		for _, n := range c.nodes(a.Path) {
			for _, sp := range a.Special {
				applySpecial(c, kind, n, sp)
			}
			for _, name := range names {
				if n.SetAttrIfAbsent(name, a.Defaults[name]) {
					added++
				}
			}
		}
		if added > 0 {
			c.info(ruleAttributes, "%s: added %d default attributes", kind, added)
		}
	}
}

func applySpecial(c *Context, kind string, n *tree.Node, special string) {
	switch special {
	case tables.SpecialGUID:
		if g, ok := n.LookupAttr("guid"); ok && !guidPattern.MatchString(strings.TrimSpace(g)) {
			n.DelAttr("guid")
			c.info(ruleAttributes, "%s %s: invalid guid %q removed", kind, n.Attr(attrID), g)
		}
	case tables.SpecialTypeHaunchH:
		if !n.HasAttr("type_haunch_H") {
			n.SetAttr("type_haunch_H", haunchType(c, n.Attr(attrIDSection)))
		}
	}
}

// haunchType is BOTH when the referenced beam section's figure has a haunch
// entry, else NONE. SRC haunches folded by Type 2 still count.
func haunchType(c *Context, idSection string) string {
	for _, of := range [][3]string{
		{tables.SecBeamRC, tagFigureBeamRC, "StbSecBeam_RC_Haunch"},
		{tables.SecBeamSRC, tagFigureBeamSRC, tagSRCHaunch},
	} {
		sec := findByID(c.sections(of[0]), idSection)
		if sec == nil {
			continue
		}
		if of[0] == tables.SecBeamSRC && c.foldedHaunches[idSection] {
			return "BOTH"
		}
		for _, fig := range sec.Children(of[1]) {
			if fig.HasChildren(of[2]) {
				return "BOTH"
			}
		}
	}
	return "NONE"
}

func fixNodeCoordinates(c *Context) {
	fixed := 0
	for _, n := range c.nodes(tables.PathNodes) {
		for _, a := range []string{"X", "Y", "Z"} {
			if v, ok := n.LookupAttr(a); ok && strings.TrimSpace(v) == "" {
				n.SetAttr(a, "0")
				fixed++
			}
		}
	}
	if fixed > 0 {
		c.info(ruleAttributes, "StbNode: %d empty coordinates set to 0", fixed)
	}
}

var steelShapeTags = []string{
	"StbSecRoll-H", "StbSecBuild-H", "StbSecRoll-BOX", "StbSecBuild-BOX",
	"StbSecPipe", "StbSecRoll-L", "StbSecRoll-C", "StbSecFlatBar", "StbSecRoundBar",
}

// Dimensions with an exclusive-zero lower bound. r is optional.
var steelDimensions = []string{"A", "B", "t1", "t2", "t", "D", "r"}

const minDimension = "0.1"

func fixSteelShapeDimensions(c *Context) {
	steel := tree.NavigateFirst(c.Doc.Root(), tables.PathSteelShapes...)
	if steel == nil {
		return
	}
	for _, tag := range steelShapeTags {
		for _, shape := range steel.Children(tag) {
			for _, a := range steelDimensions {
				v, ok := shape.LookupAttr(a)
				if !ok || !isZero(v) {
					continue
				}
				if a == "r" {
					shape.DelAttr(a)
					c.info(ruleAttributes, "%s %s: zero %s dropped", tag, shape.Attr("name"), a)
					continue
				}
				shape.SetAttr(a, minDimension)
				c.info(ruleAttributes, "%s %s: zero %s set to %s", tag, shape.Attr("name"), a, minDimension)
			}
		}
	}
}

// figureDimensions lists section figure children whose dimensions have an
// exclusive-zero lower bound. figure is the path from the section to the
// figure container as it stands after the wrapper rules.
var figureDimensions = []struct {
	section string
	figure  []string
	prefix  string
	attrs   []string
}{
	{tables.SecColumnRC, []string{tagFigureColumnRC}, "StbSecColumn_RC_", []string{"width_X", "width_Y", "D"}},
	{tables.SecColumnSRC, []string{"StbSecFigureColumn_SRC"}, "StbSecColumn_SRC_", []string{"width_X", "width_Y", "D"}},
	{tables.SecBeamRC, []string{tagFigureBeamRC}, "StbSecBeam_RC_", []string{"width", "depth"}},
	{tables.SecBeamSRC, []string{tagFigureBeamSRC}, "StbSecBeam_SRC_", []string{"width", "depth"}},
	{tables.SecSlabRC, []string{tagSlabConventional, tagFigureSlabRC}, "StbSecSlab_RC_Conventional", []string{"depth", "depth_base", "depth_tip"}},
	{tables.SecWallRC, []string{"StbSecFigureWall_RC"}, "StbSecWall_RC_", []string{"t"}},
	{tables.SecPileRC, []string{"StbSecPile_RC_Conventional", "StbSecFigurePile_RC"}, "StbSecPile_RC_", []string{"D", "D_axial", "length_pile"}},
	{tables.SecPileS, []string{"StbSecFigurePile_S"}, "StbSecPile_S_", []string{"D", "t", "length_pile"}},
}

func fixFigureDimensions(c *Context) {
	for _, fd := range figureDimensions {
		for _, sec := range c.sections(fd.section) {
			for _, fig := range descend(sec, fd.figure) {
				for _, tag := range fig.ChildTags() {
					if !strings.HasPrefix(tag, fd.prefix) {
						continue
					}
					for _, part := range fig.Children(tag) {
						for _, a := range fd.attrs {
							if v, ok := part.LookupAttr(a); ok && isZero(v) {
								part.SetAttr(a, minDimension)
								c.info(ruleAttributes, "%s %s %s: zero %s set to %s", fd.section, sec.Attr(attrID), tag, a, minDimension)
							}
						}
					}
				}
			}
		}
	}
}

// descend returns every node reached from n along path.
func descend(n *tree.Node, path []string) []*tree.Node {
	cur := []*tree.Node{n}
	for _, tag := range path {
		var next []*tree.Node
		for _, p := range cur {
			next = append(next, p.Children(tag)...)
		}
		cur = next
	}
	return cur
}

const defaultSteelStrength = "SN400B"

var steelFigures = []struct {
	section, figure, prefix string
}{
	{tables.SecBeamS, "StbSecSteelFigureBeam_S", "StbSecSteelBeam_S_"},
	{tables.SecColumnS, "StbSecSteelFigureColumn_S", "StbSecSteelColumn_S_"},
	{tables.SecBraceS, "StbSecSteelFigureBrace_S", "StbSecSteelBrace_S_"},
}

func fixSteelFigureStrength(c *Context) {
	for _, sf := range steelFigures {
		for _, sec := range c.sections(sf.section) {
			for _, fig := range sec.Children(sf.figure) {
				for _, tag := range fig.ChildTags() {
					if !strings.HasPrefix(tag, sf.prefix) {
						continue
					}
					for _, part := range fig.Children(tag) {
						if part.SetAttrIfAbsent("strength_main", defaultSteelStrength) {
							c.info(ruleAttributes, "section %s %s: strength_main set to %s", sec.Attr(attrID), tag, defaultSteelStrength)
						}
						if !part.HasAttr(attrShape) && !part.HasAttr("start_shape") {
							c.warn(ruleAttributes, "section %s %s has no shape", sec.Attr(attrID), tag)
						}
					}
				}
			}
		}
	}
}

var baseTypes = []string{"EXPOSE", "EMBEDDED", "WRAP"}

func fixColumnBaseType(c *Context) {
	for _, sec := range c.sections(tables.SecColumnS) {
		if v, ok := sec.LookupAttr("base_type"); ok && !contains(baseTypes, v) {
			sec.SetAttr("base_type", "EXPOSE")
			c.info(ruleAttributes, "column section %s: base_type %q set to EXPOSE", sec.Attr(attrID), v)
		}
	}
}

var memberStructures = []string{"RC", "S", "SRC", "CFT"}

var (
	columnStructures = map[string]string{
		tables.SecColumnRC: "RC", tables.SecColumnS: "S", tables.SecColumnSRC: "SRC", tables.SecColumnCFT: "CFT",
	}
	beamStructures = map[string]string{
		tables.SecBeamRC: "RC", tables.SecBeamS: "S", tables.SecBeamSRC: "SRC",
	}
)

// memberKinds maps each member collection to the section kinds that decide
// its kind_structure, with the value used when no section matches.
var memberKinds = []struct {
	path     []string
	sections map[string]string
	fallback string
}{
	{tables.PathColumns, columnStructures, "RC"},
	{tables.PathPosts, columnStructures, "RC"},
	{tables.PathGirders, beamStructures, "RC"},
	{tables.PathBeams, beamStructures, "RC"},
	{tables.PathBraces, map[string]string{tables.SecBraceS: "S"}, "S"},
}

func fixMemberKindStructure(c *Context) {
	for _, m := range memberKinds {
		for _, n := range c.nodes(m.path) {
			v := n.Attr("kind_structure")
			if contains(memberStructures, v) {
				continue
			}
			derived := m.fallback
			for _, kind := range sortedKeys(m.sections) {
				if findByID(c.sections(kind), n.Attr(attrIDSection)) != nil {
					derived = m.sections[kind]
					break
				}
			}
			n.SetAttr("kind_structure", derived)
			c.info(ruleAttributes, "member %s: kind_structure %q set to %s", n.Attr(attrID), v, derived)
		}
	}
}

var slabStructures = []string{"RC", "DECK", "PRECAST"}

func fixSlabKindStructure(c *Context) {
	for _, slab := range c.nodes(tables.PathSlabs) {
		if v, ok := slab.LookupAttr("kind_structure"); ok && !contains(slabStructures, v) {
			slab.SetAttr("kind_structure", "RC")
			c.info(ruleAttributes, "slab %s: kind_structure %q set to RC", slab.Attr(attrID), v)
		}
	}
}

func fixOpeningSizes(c *Context) {
	parent := tree.Parent(c.Doc.Root(), tables.PathOpensCurrent...)
	if parent == nil {
		return
	}
	for _, open := range parent.Children("StbOpen") {
		if isZero(open.Attr("length_X")) || isZero(open.Attr("length_Y")) {
			parent.RemoveChild("StbOpen", open)
			c.warn(ruleAttributes, "opening %s has zero size and was removed", open.Attr(attrID))
		}
	}
	pruneEmpty(tree.NavigateFirst(c.Doc.Root(), tables.PathMembers...), "StbOpens")
}

func fixRCSectionCovers(c *Context) {
	for _, kind := range []string{tables.SecBeamRC, tables.SecColumnRC} {
		for _, sec := range c.sections(kind) {
			for _, a := range sec.AttrNames() {
				if strings.HasPrefix(a, "depth_cover_") && isZero(sec.Attr(a)) {
					sec.DelAttr(a)
					c.info(ruleAttributes, "%s %s: zero %s dropped", kind, sec.Attr(attrID), a)
				}
			}
		}
	}
}

func dropZeroAttr(c *Context, path []string, attr string) {
	for _, n := range c.nodes(path) {
		if v, ok := n.LookupAttr(attr); ok && isZero(v) {
			n.DelAttr(attr)
			c.info(ruleAttributes, "%s %s: zero %s dropped", path[len(path)-1], n.Attr(attrID), attr)
		}
	}
}

func dropEmptyAttr(c *Context, path []string, attr string) {
	for _, n := range c.nodes(path) {
		if v, ok := n.LookupAttr(attr); ok && strings.TrimSpace(v) == "" {
			n.DelAttr(attr)
			c.info(ruleAttributes, "%s %s: empty %s dropped", path[len(path)-1], n.Attr(attrID), attr)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
