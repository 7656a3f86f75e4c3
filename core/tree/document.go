package tree

// Well-known tags. Both root spellings are accepted on input; only RootTag is
// produced.
const (
	RootTag     = "ST_BRIDGE"
	AltRootTag  = "ST_Bridge"
	VersionAttr = "version"
	ModelTag    = "StbModel"
	CommonTag   = "StbCommon"
	SectionsTag = "StbSections"
	MembersTag  = "StbMembers"
)

// Document is the top-level container: a single root element wrapped in a
// one-element sequence under its root tag.
type Document struct {
	holder *Node
}

// NewDocument wraps root under the canonical root tag.
func NewDocument(root *Node) *Document {
	return NewDocumentWithTag(RootTag, root)
}

// NewDocumentWithTag wraps root under an explicit root tag.
func NewDocumentWithTag(tag string, root *Node) *Document {
	h := NewNode()
	if root != nil {
		h.AppendChild(tag, root)
	}
	return &Document{holder: h}
}

// Root returns the root element, trying both accepted spellings.
// It returns nil when the document has no recognised root.
func (d *Document) Root() *Node {
	if d == nil || d.holder == nil {
		return nil
	}
	if r := d.holder.First(RootTag); r != nil {
		return r
	}
	return d.holder.First(AltRootTag)
}

// RootTag returns the tag the root is stored under, or "" when absent.
func (d *Document) RootTag() string {
	if d == nil || d.holder == nil {
		return ""
	}
	if d.holder.HasChildren(RootTag) {
		return RootTag
	}
	if d.holder.HasChildren(AltRootTag) {
		return AltRootTag
	}
	return ""
}

// Canonicalize moves an alternate-spelled root under the canonical tag.
func (d *Document) Canonicalize() {
	if d == nil || d.holder == nil {
		return
	}
	d.holder.RenameChildTag(AltRootTag, RootTag)
}

// Clone returns a fully independent copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{holder: d.holder.Clone()}
}

// Navigate descends from the root along path. See Navigate.
func (d *Document) Navigate(path ...string) []*Node {
	return Navigate(d.Root(), path...)
}

// NavigateFirst returns the first node at the end of path from the root.
func (d *Document) NavigateFirst(path ...string) *Node {
	return NavigateFirst(d.Root(), path...)
}

// Model returns the StbModel container, or nil.
func (d *Document) Model() *Node {
	return d.Root().First(ModelTag)
}

// Version returns the root version attribute and whether it is present.
func (d *Document) Version() (string, bool) {
	return d.Root().LookupAttr(VersionAttr)
}

// Equal reports structural equality of the two documents' roots.
func (d *Document) Equal(o *Document) bool {
	return d.Root().Equal(o.Root())
}
