package rules

import (
	"github.com/FocuswithJustin/stbconv/core/tree"
	"github.com/FocuswithJustin/stbconv/core/version"
)

const (
	ruleVersion = "type01-version"
	unknownMeta = "unknown"
)

// Version rewrites the root version and fills the StbCommon metadata 2.1.0
// requires.
//
// requires: nothing; runs first in both directions.
var Version = Rule{
	Name:    ruleVersion,
	Forward: versionForward,
	Reverse: versionReverse,
}

func versionForward(c *Context) error {
	root := c.Doc.Root()
	if root == nil {
		return nil
	}
	setVersion(c, root, version.Current)

	common := root.EnsureChild(tree.CommonTag)
	for _, attr := range []string{"app_version", "project_name"} {
		if common.SetAttrIfAbsent(attr, unknownMeta) {
			c.info(ruleVersion, "StbCommon %s missing, set to %q", attr, unknownMeta)
		}
	}
	return nil
}

func versionReverse(c *Context) error {
	root := c.Doc.Root()
	if root == nil {
		return nil
	}
	setVersion(c, root, version.Legacy)
	return nil
}

func setVersion(c *Context, root *tree.Node, to string) {
	from := root.Attr(tree.VersionAttr)
	root.SetAttr(tree.VersionAttr, to)
	if from != to {
		c.info(ruleVersion, "version %q -> %q", from, to)
	}
}
