package rules

import (
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

// ScanReverseLoss estimates, without mutating doc, what a reverse
// conversion of a 2.1.0 document will drop or approximate. The counts use
// the same units the reverse passes tally.
func ScanReverseLoss(doc *tree.Document) report.DataLoss {
	var d report.DataLoss
	c := &Context{Doc: doc}
	model := c.model()

	for _, coll := range model.Children(tagJointArrangements) {
		d.Add(report.CategoryJointArrangements, len(coll.Children(tagJointArrangement)))
	}

	for _, acl := range doc.Navigate(tables.With(tables.PathCommon, tagApplyConditions)...) {
		d.Add(report.CategoryPileStrengthLists, len(acl.Children(tagPileStrengthList)))
	}

	if model == nil {
		return d
	}

	for _, fig := range steelBeamFigures(c) {
		if len(segmentsOf(fig)) >= 2 {
			d.Add(report.CategoryMultiSectionBeams, 1)
		}
	}

	for _, bars := range c.childrenOf(tables.SecBeamRC, tagBarArrangementBeamRC) {
		if bars.HasChildren(tagBarBeamThreeTypes) || bars.HasChildren(tagBarBeamStartEnd) {
			d.Add(report.CategoryComplexBarArrangements, 1)
		}
	}

	for _, kind := range baseColumnSections {
		for _, wrapper := range c.childrenOf(kind, tagBaseColumn) {
			for _, base := range wrapper.Children(tagBaseConventional) {
				for _, p := range basePlurals {
					n := 0
					for _, container := range base.Children(p[1]) {
						n += len(container.Children(p[0]))
					}
					if n > 1 {
						d.Add(report.CategoryExtraBasePlateChildren, n-1)
					}
				}
			}
		}
	}
	return d
}
