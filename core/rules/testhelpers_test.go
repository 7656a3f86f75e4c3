package rules

import (
	"testing"

	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

// el builds a node from name/value pairs.
func el(kv ...string) *tree.Node {
	n := tree.NewNode()
	for i := 0; i+1 < len(kv); i += 2 {
		n.SetAttr(kv[i], kv[i+1])
	}
	return n
}

// put appends kids under tag and returns parent for chaining.
func put(parent *tree.Node, tag string, kids ...*tree.Node) *tree.Node {
	for _, k := range kids {
		parent.AppendChild(tag, k)
	}
	return parent
}

// newDoc returns a document with a version and an empty StbModel.
func newDoc(version string) *tree.Document {
	root := el("version", version)
	root.AppendChild(tree.ModelTag, tree.NewNode())
	return tree.NewDocument(root)
}

// ensure descends path from the root, creating missing nodes, and returns
// the last node.
func ensure(doc *tree.Document, path ...string) *tree.Node {
	cur := doc.Root()
	for _, seg := range path {
		cur = cur.EnsureChild(seg)
	}
	return cur
}

// addAt appends kids at path, whose last segment is the child tag.
func addAt(doc *tree.Document, path []string, kids ...*tree.Node) {
	parent := ensure(doc, path[:len(path)-1]...)
	put(parent, path[len(path)-1], kids...)
}

// addSection appends a section of kind under StbSections and returns it.
func addSection(doc *tree.Document, kind string, sec *tree.Node) *tree.Node {
	addAt(doc, tables.SectionPath(kind), sec)
	return sec
}

func newCtx(doc *tree.Document, dir report.Direction) *Context {
	return NewContext(doc, report.New(dir))
}

func runPass(t *testing.T, r Rule, dir report.Direction, doc *tree.Document) *Context {
	t.Helper()
	c := newCtx(doc, dir)
	if err := r.For(dir)(c); err != nil {
		t.Fatalf("%s %s: %v", r.Name, dir, err)
	}
	return c
}

func wantAttr(t *testing.T, n *tree.Node, name, want string) {
	t.Helper()
	if n == nil {
		t.Fatalf("node is nil, want %s=%q", name, want)
	}
	got, ok := n.LookupAttr(name)
	if !ok {
		t.Errorf("attribute %s missing, want %q", name, want)
		return
	}
	if got != want {
		t.Errorf("%s = %q, want %q", name, got, want)
	}
}

func wantNoAttr(t *testing.T, n *tree.Node, names ...string) {
	t.Helper()
	for _, name := range names {
		if v, ok := n.LookupAttr(name); ok {
			t.Errorf("attribute %s = %q, want absent", name, v)
		}
	}
}

func wantChildren(t *testing.T, n *tree.Node, tag string, want int) []*tree.Node {
	t.Helper()
	got := n.Children(tag)
	if len(got) != want {
		t.Fatalf("len(%s) = %d, want %d", tag, len(got), want)
	}
	return got
}
