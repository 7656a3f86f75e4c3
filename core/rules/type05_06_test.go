package rules

import (
	"testing"

	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

func openRefs(ids ...string) *tree.Node {
	list := el()
	for _, id := range ids {
		list.AppendChild(tagOpenID, el("id", id))
	}
	return list
}

func TestOpeningsForward(t *testing.T) {
	doc := newDoc("2.0.2")
	wall := put(el("id", "W1"), tagOpenIDList, openRefs("1", "2"))
	slab := put(el("id", "S1"), tagOpenIDList, openRefs("2"))
	addAt(doc, tables.PathWalls, wall)
	addAt(doc, tables.PathSlabs, slab)
	addAt(doc, tables.PathOpensLegacy,
		el("id", "1", "length_X", "500"),
		el("id", "2", "length_X", "500"),
		el("id", "3", "length_X", "500"))

	c := runPass(t, Openings, report.Forward, doc)

	if doc.Model().HasChildren(tagOpens) {
		t.Error("legacy StbOpens left under StbModel")
	}
	opens := doc.Navigate(tables.PathOpensCurrent...)
	if len(opens) != 3 {
		t.Fatalf("len(openings) = %d, want 3", len(opens))
	}
	wantAttr(t, opens[0], "kind_member", "WALL")
	wantAttr(t, opens[0], "id_member", "W1")
	wantAttr(t, opens[1], "id_member", "W1")
	wantNoAttr(t, opens[2], "kind_member", "id_member")
	if wall.HasChildren(tagOpenIDList) || slab.HasChildren(tagOpenIDList) {
		t.Error("member id lists not removed")
	}
	if len(c.Report.Warnings()) != 1 {
		t.Errorf("want one warning for the doubly referenced opening, got %v", c.Report.Messages(report.LevelWarning))
	}
}

func TestOpeningsRoundTrip(t *testing.T) {
	doc := newDoc("2.0.2")
	addAt(doc, tables.PathWalls, put(el("id", "W1"), tagOpenIDList, openRefs("1")))
	addAt(doc, tables.PathSlabs, put(el("id", "S1"), tagOpenIDList, openRefs("2")))
	addAt(doc, tables.PathOpensLegacy, el("id", "1"), el("id", "2"))
	original := doc.Clone()

	runPass(t, Openings, report.Forward, doc)
	runPass(t, Openings, report.Reverse, doc)

	if !doc.Equal(original) {
		t.Error("openings did not round-trip")
	}
}

func TestOpeningsReverseMissingOwner(t *testing.T) {
	doc := newDoc("2.1.0")
	addAt(doc, tables.PathOpensCurrent, el("id", "1", "kind_member", "WALL", "id_member", "gone"))
	c := runPass(t, Openings, report.Reverse, doc)

	opens := doc.Navigate(tables.PathOpensLegacy...)
	if len(opens) != 1 {
		t.Fatalf("len(openings) = %d, want 1", len(opens))
	}
	wantNoAttr(t, opens[0], "kind_member", "id_member")
	if !c.Report.HasWarnings() {
		t.Error("missing owner should warn")
	}
}

func TestApplyConditionsRoundTrip(t *testing.T) {
	doc := newDoc("2.0.2")
	common := put(el("app_version", "x"), tagStrengthListLegacy,
		put(el(), tagStrengthLegacy, el("D", "D10", "SD", "SD295"), el("D", "D25", "SD", "SD390")))
	doc.Root().AppendChild(tree.CommonTag, common)
	original := doc.Clone()

	runPass(t, ApplyConditions, report.Forward, doc)
	entries := doc.Navigate(tables.PathStrengthCurrent...)
	if len(entries) != 2 {
		t.Fatalf("len(%s) = %d, want 2", tagStrengthCurrent, len(entries))
	}
	wantAttr(t, entries[1], "SD", "SD390")

	runPass(t, ApplyConditions, report.Reverse, doc)
	if !doc.Equal(original) {
		t.Error("apply conditions did not round-trip")
	}
}

func TestApplyConditionsPileLoss(t *testing.T) {
	doc := newDoc("2.1.0")
	acl := put(el(), tagPileStrengthList, el(), el())
	put(acl, tagStrengthListCurrent, put(el(), tagStrengthCurrent, el("D", "D10", "SD", "SD295")))
	doc.Root().AppendChild(tree.CommonTag, put(el(), tagApplyConditions, acl))

	if got := ScanReverseLoss(doc).PileStrengthLists; got != 2 {
		t.Errorf("scan PileStrengthLists = %d, want 2", got)
	}
	c := runPass(t, ApplyConditions, report.Reverse, doc)

	if got := c.Report.DataLoss.PileStrengthLists; got != 2 {
		t.Errorf("PileStrengthLists = %d, want 2", got)
	}
	if len(doc.Navigate(tables.PathStrengthLegacy...)) != 1 {
		t.Error("strength entry not moved back")
	}
	if doc.Root().First(tree.CommonTag).HasChildren(tagApplyConditions) {
		t.Error("apply conditions list left behind")
	}
}

func TestCollapseBeamBars(t *testing.T) {
	tests := []struct {
		name      string
		tag       string
		positions []string
		want      string
	}{
		{"three types picks center", tagBarBeamThreeTypes, []string{"START", "CENTER", "END"}, "CENTER"},
		{"start end picks start", tagBarBeamStartEnd, []string{"END", "START"}, "START"},
		{"no known position picks first", tagBarBeamStartEnd, []string{"A", "B"}, "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc("2.1.0")
			bars := el("id", "b")
			for _, p := range tt.positions {
				put(bars, tt.tag, el("pos", p, "from", p))
			}
			put(addSection(doc, tables.SecBeamRC, el("id", "7")), tagBarArrangementBeamRC, bars)

			c := runPass(t, ApplyConditions, report.Reverse, doc)

			same := wantChildren(t, bars, tagBarBeamSame, 1)[0]
			wantAttr(t, same, "from", tt.want)
			wantNoAttr(t, same, "pos")
			if bars.HasChildren(tt.tag) {
				t.Error("positional bars left behind")
			}
			if c.Report.DataLoss.ComplexBarArrangements != 1 {
				t.Errorf("ComplexBarArrangements = %d, want 1", c.Report.DataLoss.ComplexBarArrangements)
			}
		})
	}
}

func TestForwardLeavesBeamBars(t *testing.T) {
	doc := newDoc("2.0.2")
	bars := put(el(), tagBarBeamThreeTypes, el("pos", "START"))
	put(addSection(doc, tables.SecBeamRC, el("id", "7")), tagBarArrangementBeamRC, bars)
	before := doc.Clone()
	runPass(t, ApplyConditions, report.Forward, doc)
	if !doc.Equal(before) {
		t.Error("forward pass changed bar arrangements")
	}
}
