package rules

import (
	"sort"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

// Common attribute names.
const (
	attrID        = "id"
	attrIDSection = "id_section"
	attrPos       = "pos"
	attrOrder     = "order"
	attrShape     = "shape"
)

// model returns StbModel, or nil when the root or model is missing.
func (c *Context) model() *tree.Node {
	if c == nil || c.Doc == nil {
		return nil
	}
	return c.Doc.Model()
}

// sections returns every section of kind under StbSections.
func (c *Context) sections(kind string) []*tree.Node {
	return c.Doc.Navigate(tables.SectionPath(kind)...)
}

// nodes returns the collection at path.
func (c *Context) nodes(path []string) []*tree.Node {
	return c.Doc.Navigate(path...)
}

// childrenOf returns the named child of each section of kind.
func (c *Context) childrenOf(kind, child string) []*tree.Node {
	var out []*tree.Node
	for _, sec := range c.sections(kind) {
		out = append(out, sec.Children(child)...)
	}
	return out
}

// wrap moves the sequences under tags into one new wrapper child of parent.
// Nothing happens when parent already holds a wrapper or none of tags is
// present; the return value reports whether a wrapper was created.
func wrap(parent *tree.Node, wrapperTag string, tags ...string) bool {
	if parent == nil || parent.HasChildren(wrapperTag) {
		return false
	}
	w := tree.NewNode()
	moved := false
	for _, tag := range tags {
		if kids := parent.RemoveChildren(tag); len(kids) > 0 {
			w.SetChildren(tag, kids)
			moved = true
		}
	}
	if moved {
		parent.AppendChild(wrapperTag, w)
	}
	return moved
}

// unwrap lifts every child sequence of each wrapper under parent back into
// parent and removes the wrappers. It reports whether any wrapper was found.
func unwrap(parent *tree.Node, wrapperTag string) bool {
	wrappers := parent.RemoveChildren(wrapperTag)
	for _, w := range wrappers {
		for _, tag := range w.ChildTags() {
			for _, k := range w.Children(tag) {
				parent.AppendChild(tag, k)
			}
		}
	}
	return len(wrappers) > 0
}

// renameChildren applies the scope's pairs of r to n's child tags.
func renameChildren(n *tree.Node, r tables.Renames, scope string) int {
	count := 0
	for _, p := range r.Pairs(scope) {
		if n.RenameChildTag(p[0], p[1]) {
			count++
		}
	}
	return count
}

// sortByPos orders nodes by the index of their pos attribute in order.
// Unknown positions sort last, keeping their relative order.
func sortByPos(nodes []*tree.Node, order []string) []*tree.Node {
	rank := func(n *tree.Node) int {
		p := n.Attr(attrPos)
		for i, o := range order {
			if o == p {
				return i
			}
		}
		return len(order)
	}
	out := append([]*tree.Node(nil), nodes...)
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

// sortByOrder orders nodes by their numeric order attribute.
// Missing or non-numeric orders sort last.
func sortByOrder(nodes []*tree.Node) []*tree.Node {
	key := func(n *tree.Node) int {
		v, err := strconv.Atoi(strings.TrimSpace(n.Attr(attrOrder)))
		if err != nil {
			return int(^uint(0) >> 1)
		}
		return v
	}
	out := append([]*tree.Node(nil), nodes...)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}

// pickPos returns the first node at one of the positions, tried in order,
// falling back to the first node.
func pickPos(nodes []*tree.Node, prefer ...string) *tree.Node {
	for _, p := range prefer {
		for _, n := range nodes {
			if n.Attr(attrPos) == p {
				return n
			}
		}
	}
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// copyExcept returns a new node carrying n's attributes minus skip.
func copyExcept(n *tree.Node, skip ...string) *tree.Node {
	out := tree.NewNode()
	for _, name := range n.AttrNames() {
		if contains(skip, name) {
			continue
		}
		out.SetAttr(name, n.Attr(name))
	}
	return out
}

// isZero reports whether v parses as the number zero.
func isZero(v string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil && f == 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// pruneEmpty removes container children of parent under tag that hold
// neither attributes nor children.
func pruneEmpty(parent *tree.Node, tag string) {
	for _, c := range parent.Children(tag) {
		if len(c.AttrNames()) == 0 && len(c.ChildTags()) == 0 && c.Text == "" {
			parent.RemoveChild(tag, c)
		}
	}
}

// findByID returns the first node in nodes whose id equals id.
func findByID(nodes []*tree.Node, id string) *tree.Node {
	for _, n := range nodes {
		if n.Attr(attrID) == id {
			return n
		}
	}
	return nil
}
