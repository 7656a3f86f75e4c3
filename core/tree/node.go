// Package tree provides the generic attributed document tree that every
// conversion rule reads and mutates.
//
// A Node mirrors one XML element in attribute-centric form: an attribute bag
// (name to string value) and, for each child tag, an ordered sequence of child
// nodes. Sequences under one tag keep their order because several ST-Bridge
// elements encode position by sibling order. The relative order of different
// tags is tracked only so that serialization is deterministic.
package tree

import "sort"

// Node is one element of a document.
type Node struct {
	attrs    map[string]string
	children map[string][]*Node
	order    []string

	// Text holds trimmed character data for leaf-like elements.
	Text string
}

// NewNode creates an empty node.
func NewNode() *Node {
	return &Node{}
}

// NewNodeWithAttrs creates a node with a copy of attrs.
func NewNodeWithAttrs(attrs map[string]string) *Node {
	n := &Node{}
	for k, v := range attrs {
		n.SetAttr(k, v)
	}
	return n
}

// Attr returns the attribute value, or "" when absent.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.attrs[name]
}

// LookupAttr returns the attribute value and whether it is present.
func (n *Node) LookupAttr(name string) (string, bool) {
	if n == nil || n.attrs == nil {
		return "", false
	}
	v, ok := n.attrs[name]
	return v, ok
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.LookupAttr(name)
	return ok
}

// SetAttr sets an attribute, creating the bag if needed.
func (n *Node) SetAttr(name, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
}

// SetAttrIfAbsent sets an attribute only when it is missing.
// It returns true when the value was written.
func (n *Node) SetAttrIfAbsent(name, value string) bool {
	if n.HasAttr(name) {
		return false
	}
	n.SetAttr(name, value)
	return true
}

// DelAttr removes an attribute and reports whether it was present.
func (n *Node) DelAttr(name string) bool {
	if n == nil || n.attrs == nil {
		return false
	}
	if _, ok := n.attrs[name]; !ok {
		return false
	}
	delete(n.attrs, name)
	return true
}

// AttrNames returns attribute names in sorted order.
func (n *Node) AttrNames() []string {
	if n == nil {
		return nil
	}
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Attrs returns a copy of the attribute bag.
func (n *Node) Attrs() map[string]string {
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// Children returns the sequence stored under tag. The returned slice is the
// node's own storage; use SetChildren to replace it.
func (n *Node) Children(tag string) []*Node {
	if n == nil || n.children == nil {
		return nil
	}
	return n.children[tag]
}

// First returns the first child under tag, or nil.
func (n *Node) First(tag string) *Node {
	kids := n.Children(tag)
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}

// HasChildren reports whether tag holds at least one child.
func (n *Node) HasChildren(tag string) bool {
	return len(n.Children(tag)) > 0
}

// SetChildren replaces the sequence under tag. An empty sequence removes the tag.
func (n *Node) SetChildren(tag string, kids []*Node) {
	if len(kids) == 0 {
		n.RemoveChildren(tag)
		return
	}
	if n.children == nil {
		n.children = make(map[string][]*Node)
	}
	if _, ok := n.children[tag]; !ok {
		n.order = append(n.order, tag)
	}
	n.children[tag] = kids
}

// AppendChild appends child to the sequence under tag and returns it.
func (n *Node) AppendChild(tag string, child *Node) *Node {
	n.SetChildren(tag, append(n.Children(tag), child))
	return child
}

// EnsureChild returns the first child under tag, creating it when absent.
func (n *Node) EnsureChild(tag string) *Node {
	if c := n.First(tag); c != nil {
		return c
	}
	return n.AppendChild(tag, NewNode())
}

// RemoveChildren drops the whole sequence under tag and returns it.
func (n *Node) RemoveChildren(tag string) []*Node {
	if n == nil || n.children == nil {
		return nil
	}
	kids, ok := n.children[tag]
	if !ok {
		return nil
	}
	delete(n.children, tag)
	for i, t := range n.order {
		if t == tag {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return kids
}

// RemoveChild removes one child node (by identity) from the sequence under tag.
func (n *Node) RemoveChild(tag string, child *Node) bool {
	kids := n.Children(tag)
	for i, k := range kids {
		if k == child {
			rest := make([]*Node, 0, len(kids)-1)
			rest = append(rest, kids[:i]...)
			rest = append(rest, kids[i+1:]...)
			n.SetChildren(tag, rest)
			return true
		}
	}
	return false
}

// ChildTags returns the child tags in insertion order.
func (n *Node) ChildTags() []string {
	if n == nil {
		return nil
	}
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// RenameChildTag moves the sequence under oldTag to newTag, keeping its slot
// in the tag order. When newTag already holds children, the moved sequence is
// appended to it. Absent oldTag is a no-op; the return value reports whether
// anything moved.
func (n *Node) RenameChildTag(oldTag, newTag string) bool {
	if n == nil || oldTag == newTag {
		return false
	}
	kids, ok := n.children[oldTag]
	if !ok {
		return false
	}
	if existing, ok := n.children[newTag]; ok {
		n.RemoveChildren(oldTag)
		n.children[newTag] = append(existing, kids...)
		return true
	}
	delete(n.children, oldTag)
	n.children[newTag] = kids
	for i, t := range n.order {
		if t == oldTag {
			n.order[i] = newTag
			break
		}
	}
	return true
}

// Clone returns a deep copy sharing no storage with n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Text: n.Text}
	if n.attrs != nil {
		c.attrs = make(map[string]string, len(n.attrs))
		for k, v := range n.attrs {
			c.attrs[k] = v
		}
	}
	if n.children != nil {
		c.children = make(map[string][]*Node, len(n.children))
		c.order = make([]string, len(n.order))
		copy(c.order, n.order)
		for tag, kids := range n.children {
			cp := make([]*Node, len(kids))
			for i, k := range kids {
				cp[i] = k.Clone()
			}
			c.children[tag] = cp
		}
	}
	return c
}

// Equal reports structural equality: same attributes, same text, same tags
// and equal sequences. Tag order is ignored.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Text != o.Text || len(n.attrs) != len(o.attrs) || len(n.children) != len(o.children) {
		return false
	}
	for k, v := range n.attrs {
		if ov, ok := o.attrs[k]; !ok || ov != v {
			return false
		}
	}
	for tag, kids := range n.children {
		okids, ok := o.children[tag]
		if !ok || len(okids) != len(kids) {
			return false
		}
		for i := range kids {
			if !kids[i].Equal(okids[i]) {
				return false
			}
		}
	}
	return true
}
