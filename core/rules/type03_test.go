package rules

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/tables"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

func TestAttributesForwardTables(t *testing.T) {
	doc := newDoc("2.0.2")
	col := el("id", "1", "id_section", "10", "kind_structure", "RC",
		"condition_bottom", "FIX", "condition_top", "FIX", "guid", "not-a-guid")
	addAt(doc, tables.PathColumns, col)
	post := el("id", "2", "id_section", "10", "kind_structure", "S", "condition_top", "PIN", "isFoundation", "true")
	addAt(doc, tables.PathPosts, post)
	brace := el("id", "3", "condition_start", "FIX", "guid", "0123456789abcdef0123456789ABCDEF")
	addAt(doc, tables.PathBraces, brace)
	node := el("id", "4", "X", "", "Y", "1", "kind", "ON_GIRDER")
	addAt(doc, tables.PathNodes, node)
	slab := el("id", "5", "direction_load", "1WAY", "kind_structure", "WEIRD")
	addAt(doc, tables.PathSlabs, slab)
	wall := el("id", "6", "thickness", " ")
	addAt(doc, tables.PathWalls, wall)

	runPass(t, Attributes, report.Forward, doc)

	wantNoAttr(t, col, "condition_bottom", "condition_top", "guid")
	wantAttr(t, col, "isFoundation", "false")
	wantNoAttr(t, post, "condition_top")
	wantAttr(t, post, "isFoundation", "true")
	wantNoAttr(t, brace, "condition_start")
	wantAttr(t, brace, "guid", "0123456789abcdef0123456789ABCDEF")
	wantNoAttr(t, node, "kind")
	wantAttr(t, node, "X", "0")
	wantAttr(t, slab, "kind_slab", "NORMAL")
	wantAttr(t, slab, "kind_structure", "RC")
	wantNoAttr(t, slab, "direction_load")
	wantAttr(t, wall, "kind_layout", "ON_GIRDER")
	wantNoAttr(t, wall, "thickness")
}

func TestAttributesTypeHaunchH(t *testing.T) {
	doc := newDoc("2.0.2")
	haunched := addSection(doc, tables.SecBeamRC, el("id", "20"))
	put(haunched, "StbSecFigureBeam_RC", put(el(), "StbSecBeam_RC_Haunch", el("pos", "START")))
	plain := addSection(doc, tables.SecBeamRC, el("id", "21"))
	put(plain, "StbSecFigureBeam_RC", put(el(), "StbSecBeam_RC_Straight", el("depth", "700")))

	g1 := el("id", "1", "id_section", "20", "kind_structure", "RC")
	g2 := el("id", "2", "id_section", "21", "kind_structure", "RC")
	g3 := el("id", "3", "id_section", "21", "kind_structure", "RC", "type_haunch_H", "START")
	addAt(doc, tables.PathGirders, g1, g2, g3)

	runPass(t, Attributes, report.Forward, doc)

	wantAttr(t, g1, "type_haunch_H", "BOTH")
	wantAttr(t, g2, "type_haunch_H", "NONE")
	wantAttr(t, g3, "type_haunch_H", "START")
	wantAttr(t, g1, "isFoundation", "false")
}

func TestAttributesFixups(t *testing.T) {
	doc := newDoc("2.0.2")
	steel := ensure(doc, tables.PathSteelShapes...)
	hshape := el("name", "H-400", "A", "400", "B", "0", "t1", "8", "t2", "13", "r", "0")
	put(steel, "StbSecRoll-H", hshape)

	sbeam := addSection(doc, tables.SecBeamS, el("id", "30"))
	part := el("order", "1")
	put(sbeam, "StbSecSteelFigureBeam_S", put(el(), "StbSecSteelBeam_S_Straight", part))

	scol := addSection(doc, tables.SecColumnS, el("id", "31", "base_type", "PIN"))
	addSection(doc, tables.SecColumnCFT, el("id", "32"))
	rcBeam := addSection(doc, tables.SecBeamRC, el("id", "33", "depth_cover_top", "0", "depth_cover_bottom", "40"))

	col := el("id", "1", "id_section", "32", "kind_structure", "X")
	girder := el("id", "2", "id_section", "404")
	addAt(doc, tables.PathColumns, col)
	addAt(doc, tables.PathGirders, girder)

	story := el("id", "1", "height", "0.0")
	addAt(doc, tables.PathStories, story)

	open1 := el("id", "1", "length_X", "0", "length_Y", "500")
	open2 := el("id", "2", "length_X", "600", "length_Y", "500")
	addAt(doc, tables.PathOpensCurrent, open1, open2)

	c := runPass(t, Attributes, report.Forward, doc)

	wantAttr(t, hshape, "B", "0.1")
	wantNoAttr(t, hshape, "r")
	wantAttr(t, part, "strength_main", "SN400B")
	wantAttr(t, scol, "base_type", "EXPOSE")
	wantNoAttr(t, rcBeam, "depth_cover_top")
	wantAttr(t, rcBeam, "depth_cover_bottom", "40")
	wantAttr(t, col, "kind_structure", "CFT")
	wantAttr(t, girder, "kind_structure", "RC")
	wantNoAttr(t, story, "height")

	opens := doc.Navigate(tables.PathOpensCurrent...)
	if len(opens) != 1 || opens[0] != open2 {
		t.Errorf("openings after fixup = %d, want only opening 2", len(opens))
	}
	if len(c.Report.Warnings()) < 2 {
		t.Errorf("want warnings for missing shape and zero-size opening, got %v", c.Report.Messages(report.LevelWarning))
	}
}

func TestAttributesReverse(t *testing.T) {
	doc := newDoc("2.1.0")
	col := el("id", "1", "isFoundation", "false")
	girder := el("id", "2", "isFoundation", "false", "type_haunch_H", "NONE")
	beam := el("id", "3", "condition_start", "PIN")
	slab := el("id", "4", "kind_slab", "NORMAL", "kind_structure", "DECK")
	addAt(doc, tables.PathColumns, col)
	addAt(doc, tables.PathGirders, girder)
	addAt(doc, tables.PathBeams, beam)
	addAt(doc, tables.PathSlabs, slab)
	steel := ensure(doc, tables.PathSteelShapes...)
	put(steel, "StbSecRoll-T", el("name", "T-1"))
	put(steel, "StbSecRoll-H", el("name", "H-1"))

	c := runPass(t, Attributes, report.Reverse, doc)

	wantNoAttr(t, col, "isFoundation")
	wantAttr(t, col, "condition_bottom", "FIX")
	wantAttr(t, col, "condition_top", "FIX")
	wantNoAttr(t, girder, "isFoundation", "type_haunch_H")
	wantAttr(t, girder, "condition_end", "FIX")
	wantAttr(t, beam, "condition_start", "PIN")
	wantAttr(t, beam, "condition_end", "FIX")
	wantNoAttr(t, slab, "kind_slab")
	wantAttr(t, slab, "kind_structure", "RC")
	if steel.HasChildren("StbSecRoll-T") || !steel.HasChildren("StbSecRoll-H") {
		t.Errorf("steel shapes after reverse = %v", steel.ChildTags())
	}
	if len(c.Report.Warnings()) != 2 {
		t.Errorf("warnings = %v", c.Report.Messages(report.LevelWarning))
	}
}

func TestAttributesTypeHaunchHFoldedSRC(t *testing.T) {
	doc := newDoc("2.0.2")
	sec := addSection(doc, tables.SecBeamSRC, el("id", "40"))
	put(sec, "StbSecFigure", put(el(), tagSRCHaunch,
		el("pos", "START", "width", "500", "depth", "900"),
		el("pos", "CENTER", "width", "500", "depth", "800"),
		el("pos", "END", "width", "500", "depth", "900")))
	addSection(doc, tables.SecBeamSRC, put(el("id", "41"), "StbSecFigure",
		put(el(), tagSRCStraight, el("width", "500", "depth", "800"))))
	haunched := el("id", "1", "id_section", "40", "kind_structure", "SRC")
	straight := el("id", "2", "id_section", "41", "kind_structure", "SRC")
	addAt(doc, tables.PathGirders, haunched, straight)

	c := newCtx(doc, report.Forward)
	for _, r := range []Rule{Renaming, Attributes} {
		if err := r.Forward(c); err != nil {
			t.Fatalf("%s: %v", r.Name, err)
		}
	}

	fig := sec.First(tagFigureBeamSRC)
	if fig.HasChildren(tagSRCHaunch) {
		t.Fatal("haunch entries were not folded")
	}
	wantAttr(t, haunched, "type_haunch_H", "BOTH")
	wantAttr(t, straight, "type_haunch_H", "NONE")
}

func TestAttributesDroppedConditions(t *testing.T) {
	doc := newDoc("2.0.2")
	col := el("id", "1", "kind_structure", "RC", "condition_bottom", "PIN", "condition_top", "FIX")
	addAt(doc, tables.PathColumns, col)
	girder := el("id", "2", "kind_structure", "S", "condition_start", "FIX", "condition_end", "FIX")
	addAt(doc, tables.PathGirders, girder)
	brace := el("id", "3", "kind_structure", "S", "condition_start", "PIN", "condition_end", "PIN")
	addAt(doc, tables.PathBraces, brace)

	c := runPass(t, Attributes, report.Forward, doc)

	wantNoAttr(t, col, "condition_bottom", "condition_top")
	wantNoAttr(t, brace, "condition_start", "condition_end")
	warnings := c.Report.Messages(report.LevelWarning)
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want one per member with non-FIX conditions", warnings)
	}
	for _, want := range []string{"StbColumn 1: condition_bottom=PIN", "StbBrace 3: condition_start=PIN condition_end=PIN"} {
		found := false
		for _, w := range warnings {
			if strings.Contains(w, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("no warning containing %q in %v", want, warnings)
		}
	}
}

func TestAttributesFigureDimensions(t *testing.T) {
	tests := []struct {
		name    string
		section string
		figure  []string
		tag     string
		attrs   []string
	}{
		{"rc column rect", tables.SecColumnRC, []string{tagFigureColumnRC}, "StbSecColumn_RC_Rect", []string{"width_X", "width_Y"}},
		{"rc column circle", tables.SecColumnRC, []string{tagFigureColumnRC}, "StbSecColumn_RC_Circle", []string{"D"}},
		{"src column", tables.SecColumnSRC, []string{"StbSecFigureColumn_SRC"}, "StbSecColumn_SRC_Rect", []string{"width_X", "width_Y"}},
		{"rc beam", tables.SecBeamRC, []string{tagFigureBeamRC}, "StbSecBeam_RC_Straight", []string{"width", "depth"}},
		{"src beam", tables.SecBeamSRC, []string{tagFigureBeamSRC}, tagSRCStraight, []string{"width", "depth"}},
		{"slab", tables.SecSlabRC, []string{tagSlabConventional, tagFigureSlabRC}, "StbSecSlab_RC_ConventionalTaper", []string{"depth_base", "depth_tip"}},
		{"wall", tables.SecWallRC, []string{"StbSecFigureWall_RC"}, "StbSecWall_RC_Straight", []string{"t"}},
		{"rc pile", tables.SecPileRC, []string{"StbSecPile_RC_Conventional", "StbSecFigurePile_RC"}, "StbSecPile_RC_Straight", []string{"D", "length_pile"}},
		{"steel pile", tables.SecPileS, []string{"StbSecFigurePile_S"}, "StbSecPile_S_Straight", []string{"D", "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDoc("2.0.2")
			var kv []string
			for _, a := range tt.attrs {
				kv = append(kv, a, "0")
			}
			part := el(append(kv, "order", "1")...)
			kept := el(tt.attrs[0], "450")

			sec := addSection(doc, tt.section, el("id", "1"))
			holder := sec
			for _, tag := range tt.figure {
				holder = holder.EnsureChild(tag)
			}
			put(holder, tt.tag, part, kept)

			runPass(t, Attributes, report.Forward, doc)

			for _, a := range tt.attrs {
				wantAttr(t, part, a, minDimension)
			}
			wantAttr(t, kept, tt.attrs[0], "450")
		})
	}
}

func TestAttributesMemberKindStructure(t *testing.T) {
	doc := newDoc("2.0.2")
	addSection(doc, tables.SecColumnS, el("id", "10"))
	addSection(doc, tables.SecBeamSRC, el("id", "20"))
	addSection(doc, tables.SecBraceS, el("id", "30"))

	tests := []struct {
		name string
		path []string
		node *tree.Node
		want string
	}{
		{"post on steel column section", tables.PathPosts, el("id", "1", "id_section", "10"), "S"},
		{"post without section", tables.PathPosts, el("id", "2", "id_section", "99", "kind_structure", ""), "RC"},
		{"beam on src section", tables.PathBeams, el("id", "3", "id_section", "20", "kind_structure", "WOOD"), "SRC"},
		{"brace on steel section", tables.PathBraces, el("id", "4", "id_section", "30"), "S"},
		{"brace without section", tables.PathBraces, el("id", "5", "id_section", "99"), "S"},
		{"valid value kept", tables.PathBeams, el("id", "6", "id_section", "20", "kind_structure", "RC"), "RC"},
	}
	for _, tt := range tests {
		addAt(doc, tt.path, tt.node)
	}

	runPass(t, Attributes, report.Forward, doc)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantAttr(t, tt.node, "kind_structure", tt.want)
		})
	}
}
