// Package stbxml reads and writes ST-Bridge XML.
//
// Parsing goes through xmlquery, which wraps encoding/xml and never fetches
// external entities. Writing goes through etree. Both sides keep element
// attributes as plain strings; namespace declarations and prefixed
// attributes are carried verbatim under their qualified names.
package stbxml

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/beevik/etree"

	"github.com/FocuswithJustin/stbconv/core/errors"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

const format = "XML"

// Options controls serialization.
type Options struct {
	// Indent is the number of spaces per nesting level. Zero or less writes
	// the document on a single line.
	Indent int
}

// DefaultOptions indents with two spaces.
func DefaultOptions() Options {
	return Options{Indent: 2}
}

// Parse builds a document from ST-Bridge XML.
func Parse(data []byte) (*tree.Document, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader is Parse over a stream.
func ParseReader(r io.Reader) (*tree.Document, error) {
	top, err := xmlquery.Parse(r)
	if err != nil {
		pe := errors.NewParse(format, "", err.Error())
		pe.Err = err
		return nil, pe
	}
	root := firstElement(top)
	if root == nil {
		return nil, errors.NewParse(format, "", "no root element")
	}
	if root.Data != tree.RootTag && root.Data != tree.AltRootTag {
		return nil, errors.NewParse(format, "", fmt.Sprintf("root element %q is not %s", root.Data, tree.RootTag))
	}
	return tree.NewDocumentWithTag(root.Data, convert(root)), nil
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

func convert(src *xmlquery.Node) *tree.Node {
	n := tree.NewNode()
	for _, a := range src.Attr {
		n.SetAttr(attrName(a), a.Value)
	}
	var text strings.Builder
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.ElementNode:
			n.AppendChild(c.Data, convert(c))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(c.Data)
		}
	}
	n.Text = strings.TrimSpace(text.String())
	return n
}

// attrName restores the qualified name. xmlquery resolves the namespace of a
// prefixed attribute back to its prefix, so xmlns:xsi arrives as
// {Space: "xmlns", Local: "xsi"}.
func attrName(a xmlquery.Attr) string {
	if a.Name.Space == "" {
		return a.Name.Local
	}
	return a.Name.Space + ":" + a.Name.Local
}

// Serialize writes doc as XML with a declaration. The root is always written
// under the canonical tag and attributes are sorted by name.
func Serialize(doc *tree.Document, opts Options) ([]byte, error) {
	root := doc.Root()
	if root == nil {
		return nil, errors.NewMalformed(tree.RootTag, "document has no root element")
	}

	out := etree.NewDocument()
	out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	build(out.CreateElement(tree.RootTag), root)

	if opts.Indent > 0 {
		out.Indent(opts.Indent)
	} else {
		out.Indent(etree.NoIndent)
	}

	var buf bytes.Buffer
	if _, err := out.WriteTo(&buf); err != nil {
		return nil, errors.NewIO("serialize", "", err)
	}
	return buf.Bytes(), nil
}

func build(dst *etree.Element, n *tree.Node) {
	names := n.AttrNames()
	sort.Strings(names)
	for _, name := range names {
		dst.CreateAttr(name, n.Attr(name))
	}
	if n.Text != "" {
		dst.SetText(n.Text)
	}
	for _, tag := range n.ChildTags() {
		for _, c := range n.Children(tag) {
			build(dst.CreateElement(tag), c)
		}
	}
}

var (
	rootNameExpr = xpath.MustCompile("local-name(/*)")
	versionExpr  = xpath.MustCompile("string(/*/@version)")
)

// SniffVersion returns the root version attribute. It stream-parses only
// as far as the root's first child element, so content past that point is
// neither built nor checked. A missing attribute yields "" and no error.
func SniffVersion(data []byte) (string, error) {
	sp, err := xmlquery.CreateStreamParser(bytes.NewReader(data), "/*/*")
	if err != nil {
		return "", err
	}
	first, err := sp.Read()
	switch {
	case err == io.EOF:
		// root has no child element; the whole document is already small
		top, perr := xmlquery.Parse(bytes.NewReader(data))
		if perr != nil {
			return "", sniffError(perr)
		}
		return rootVersion(top)
	case err != nil:
		return "", sniffError(err)
	}
	return rootVersion(first)
}

func sniffError(err error) error {
	pe := errors.NewParse(format, "", err.Error())
	pe.Err = err
	return pe
}

// rootVersion evaluates the root name and version from any node of a tree.
func rootVersion(n *xmlquery.Node) (string, error) {
	name, _ := rootNameExpr.Evaluate(xmlquery.CreateXPathNavigator(n)).(string)
	if name != tree.RootTag && name != tree.AltRootTag {
		return "", errors.NewParse(format, "", fmt.Sprintf("root element %q is not %s", name, tree.RootTag))
	}
	v, _ := versionExpr.Evaluate(xmlquery.CreateXPathNavigator(n)).(string)
	return strings.TrimSpace(v), nil
}
