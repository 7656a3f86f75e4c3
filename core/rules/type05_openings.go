package rules

import (
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const ruleOpenings = "type05-openings"

const (
	tagOpens      = "StbOpens"
	tagOpen       = "StbOpen"
	tagOpenIDList = "StbOpenIdList"
	tagOpenID     = "StbOpenId"
)

// Openings moves the opening collection between StbModel (2.0.2) and
// StbMembers (2.1.0). Ownership moves from per-member id lists to
// kind_member/id_member on each opening.
//
// requires: forward runs before Type 3, whose zero-size fixup reads the
// 2.1.0 location.
var Openings = Rule{
	Name:    ruleOpenings,
	Forward: openingsForward,
	Reverse: openingsReverse,
}

var openingOwners = []struct {
	kind string
	path []string
}{
	{"WALL", tables.PathWalls},
	{"SLAB", tables.PathSlabs},
}

type openingOwner struct {
	kind, id string
}

func openingsForward(c *Context) error {
	model := c.model()
	if model == nil || !model.HasChildren(tagOpens) {
		return nil
	}

	owners := make(map[string]openingOwner)
	for _, o := range openingOwners {
		for _, m := range c.nodes(o.path) {
			for _, list := range m.RemoveChildren(tagOpenIDList) {
				for _, ref := range list.Children(tagOpenID) {
					id := ref.Attr(attrID)
					if prev, dup := owners[id]; dup {
						c.warn(ruleOpenings, "opening %s referenced by %s %s and %s %s; keeping the first",
							id, prev.kind, prev.id, o.kind, m.Attr(attrID))
						continue
					}
					owners[id] = openingOwner{o.kind, m.Attr(attrID)}
				}
			}
		}
	}

	members := model.EnsureChild(tree.MembersTag)
	target := members.EnsureChild(tagOpens)
	for _, opens := range model.RemoveChildren(tagOpens) {
		for _, open := range opens.Children(tagOpen) {
			if own, ok := owners[open.Attr(attrID)]; ok {
				open.SetAttr("kind_member", own.kind)
				open.SetAttr("id_member", own.id)
			} else {
				c.info(ruleOpenings, "opening %s is not referenced by any wall or slab", open.Attr(attrID))
			}
			target.AppendChild(tagOpen, open)
		}
	}
	pruneEmpty(members, tagOpens)
	return nil
}

func openingsReverse(c *Context) error {
	model := c.model()
	members := model.First(tree.MembersTag)
	if members == nil || !members.HasChildren(tagOpens) {
		return nil
	}

	target := model.EnsureChild(tagOpens)
	for _, opens := range members.RemoveChildren(tagOpens) {
		for _, open := range opens.Children(tagOpen) {
			kind, _ := open.LookupAttr("kind_member")
			idMember, _ := open.LookupAttr("id_member")
			open.DelAttr("kind_member")
			open.DelAttr("id_member")
			target.AppendChild(tagOpen, open)

			if kind == "" {
				continue
			}
			owner := findOpeningOwner(c, kind, idMember)
			if owner == nil {
				c.warn(ruleOpenings, "opening %s: owner %s %s not found, reference dropped", open.Attr(attrID), kind, idMember)
				continue
			}
			owner.EnsureChild(tagOpenIDList).AppendChild(tagOpenID, tree.NewNodeWithAttrs(map[string]string{
				attrID: open.Attr(attrID),
			}))
		}
	}
	pruneEmpty(model, tagOpens)
	return nil
}

func findOpeningOwner(c *Context, kind, id string) *tree.Node {
	for _, o := range openingOwners {
		if o.kind == kind {
			return findByID(c.nodes(o.path), id)
		}
	}
	return nil
}
