package rules

import (
	"strings"

	"github.com/FocuswithJustin/stbconv/core/idgen"
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const ruleJoints = "type07-joints"

const (
	tagJointArrangements = "StbJointArrangements"
	tagJointArrangement  = "StbJointArrangement"
	jointKindFixed       = "FIXED"
)

// Joints relocates per-member endpoint joint attributes into the
// StbJointArrangements collection and back.
//
// requires: forward runs before Type 3, which strips every 2.0.2 endpoint
// attribute. Reverse runs after Type 3 so the restored attributes survive.
var Joints = Rule{
	Name:    ruleJoints,
	Forward: jointsForward,
	Reverse: jointsReverse,
}

type endpoint struct {
	suffix string // legacy attribute suffix: bottom, top, start, end
	point  string // starting_point: START or END
}

type jointMember struct {
	kind      string // kind_member
	path      []string
	endpoints []endpoint
}

var (
	verticalEnds   = []endpoint{{"bottom", "START"}, {"top", "END"}}
	horizontalEnds = []endpoint{{"start", "START"}, {"end", "END"}}
)

var jointMembers = []jointMember{
	{"COLUMN", tables.PathColumns, verticalEnds},
	{"POST", tables.PathPosts, verticalEnds},
	{"GIRDER", tables.PathGirders, horizontalEnds},
	{"BEAM", tables.PathBeams, horizontalEnds},
	{"BRACE", tables.PathBraces, horizontalEnds},
}

func (e endpoint) attrs() (distance, kind, id string) {
	return "joint_" + e.suffix, "kind_joint_" + e.suffix, "joint_id_" + e.suffix
}

func jointsForward(c *Context) error {
	model := c.model()
	if model == nil {
		return nil
	}
	if c.IDs == nil {
		c.IDs = idgen.New()
	}

	// Existing arrangement ids are taken; legacy joint ids only push the
	// counter so each can still be claimed by its own endpoint.
	c.IDs.Reserve(tree.CollectAttr(model.First(tagJointArrangements), tagJointArrangement, attrID)...)
	for _, jm := range jointMembers {
		for _, m := range c.nodes(jm.path) {
			for _, e := range jm.endpoints {
				_, _, idAttr := e.attrs()
				c.IDs.Observe(m.Attr(idAttr))
			}
		}
	}

	created := 0
	for _, jm := range jointMembers {
		for _, m := range c.nodes(jm.path) {
			for _, e := range jm.endpoints {
				if arr := relocateEndpoint(c, jm, m, e); arr != nil {
					model.EnsureChild(tagJointArrangements).AppendChild(tagJointArrangement, arr)
					created++
				}
			}
		}
	}
	if created > 0 {
		c.info(ruleJoints, "created %d joint arrangements", created)
	}
	return nil
}

// relocateEndpoint strips one endpoint's joint attributes from m and returns
// the arrangement replacing them, or nil when there is nothing to relocate
// or the member has no id_section.
func relocateEndpoint(c *Context, jm jointMember, m *tree.Node, e endpoint) *tree.Node {
	distAttr, kindAttr, idAttr := e.attrs()
	dist, hasDist := m.LookupAttr(distAttr)
	kind, hasKind := m.LookupAttr(kindAttr)
	jid, hasID := m.LookupAttr(idAttr)
	if !hasDist && !hasKind && !hasID {
		return nil
	}
	m.DelAttr(distAttr)
	m.DelAttr(kindAttr)
	m.DelAttr(idAttr)

	idSection := m.Attr(attrIDSection)
	if idSection == "" {
		c.warn(ruleJoints, "%s %s %s: no id_section, joint attributes dropped", jm.kind, m.Attr(attrID), e.suffix)
		return nil
	}

	id := strings.TrimSpace(jid)
	if !idgen.IsNumeric(id) || !c.IDs.Claim(id) {
		id = c.IDs.Next()
	}
	if strings.TrimSpace(dist) == "" {
		dist = "0"
	}
	if hasKind && kind != jointKindFixed {
		c.warn(ruleJoints, "%s %s %s: kind_joint %q cannot be represented in 2.1.0", jm.kind, m.Attr(attrID), e.suffix, kind)
	}

	return tree.NewNodeWithAttrs(map[string]string{
		attrID:           id,
		"kind_member":    jm.kind,
		"id_member":      m.Attr(attrID),
		attrIDSection:    idSection,
		"starting_point": e.point,
		"distance":       dist,
	})
}

func jointsReverse(c *Context) error {
	model := c.model()
	if model == nil {
		return nil
	}
	var arrangements []*tree.Node
	for _, coll := range model.RemoveChildren(tagJointArrangements) {
		arrangements = append(arrangements, coll.Children(tagJointArrangement)...)
	}
	if len(arrangements) == 0 {
		return nil
	}
	c.lost(report.CategoryJointArrangements, len(arrangements))

	written := make(map[*tree.Node]map[string]bool)
	for _, arr := range arrangements {
		jm, ok := findJointMember(arr.Attr("kind_member"))
		if !ok {
			c.warn(ruleJoints, "joint arrangement %s: unknown kind_member %q", arr.Attr(attrID), arr.Attr("kind_member"))
			continue
		}
		m := findByID(c.nodes(jm.path), arr.Attr("id_member"))
		if m == nil {
			c.warn(ruleJoints, "joint arrangement %s: %s %s not found", arr.Attr(attrID), jm.kind, arr.Attr("id_member"))
			continue
		}
		var end *endpoint
		for i := range jm.endpoints {
			if jm.endpoints[i].point == arr.Attr("starting_point") {
				end = &jm.endpoints[i]
			}
		}
		if end == nil {
			c.warn(ruleJoints, "joint arrangement %s: unknown starting_point %q", arr.Attr(attrID), arr.Attr("starting_point"))
			continue
		}
		if written[m][end.suffix] {
			c.warn(ruleJoints, "joint arrangement %s: %s %s %s already has a joint, dropped",
				arr.Attr(attrID), jm.kind, m.Attr(attrID), end.suffix)
			continue
		}
		if written[m] == nil {
			written[m] = make(map[string]bool)
		}
		written[m][end.suffix] = true

		if s := arr.Attr(attrIDSection); s != "" && s != m.Attr(attrIDSection) {
			c.warn(ruleJoints, "joint arrangement %s: id_section %s differs from %s %s section %s",
				arr.Attr(attrID), s, jm.kind, m.Attr(attrID), m.Attr(attrIDSection))
		}
		distAttr, kindAttr, idAttr := end.attrs()
		m.SetAttr(distAttr, arr.Attr("distance"))
		m.SetAttr(kindAttr, jointKindFixed)
		m.SetAttr(idAttr, arr.Attr(attrID))
	}
	c.warn(ruleJoints, "%d joint arrangements folded back into member attributes", len(arrangements))
	return nil
}

func findJointMember(kind string) (jointMember, bool) {
	for _, jm := range jointMembers {
		if jm.kind == kind {
			return jm, true
		}
	}
	return jointMember{}, false
}
