package converter

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/FocuswithJustin/stbconv/core/errors"
	"github.com/FocuswithJustin/stbconv/core/report"
	"github.com/FocuswithJustin/stbconv/core/rules"
	"github.com/FocuswithJustin/stbconv/core/tree"
)

func el(kv ...string) *tree.Node {
	n := tree.NewNode()
	for i := 0; i+1 < len(kv); i += 2 {
		n.SetAttr(kv[i], kv[i+1])
	}
	return n
}

func put(parent *tree.Node, tag string, kids ...*tree.Node) *tree.Node {
	for _, k := range kids {
		parent.AppendChild(tag, k)
	}
	return parent
}

// legacyDocument builds a 2.0.2 document using only features both schema
// versions can represent.
func legacyDocument() *tree.Document {
	root := el("version", "2.0.2")
	put(root, "StbCommon", put(el("app_version", "CAD 1.0", "project_name", "Sample"),
		"StbReinforcement_Strength_List",
		put(el(), "StbReinforcement_Strength", el("D", "D10", "SD", "SD295"))))

	model := put(root, "StbModel", el()).First("StbModel")
	put(model, "StbNodes", put(el(), "StbNode",
		el("id", "1", "X", "0", "Y", "0", "Z", "0"),
		el("id", "2", "X", "0", "Y", "0", "Z", "3500")))

	members := el()
	put(members, "StbColumns", put(el(), "StbColumn", el(
		"id", "11", "id_node_bottom", "1", "id_node_top", "2", "id_section", "101",
		"kind_structure", "RC", "condition_bottom", "FIX", "condition_top", "FIX",
		"joint_top", "0", "kind_joint_top", "FIXED", "joint_id_top", "101")))
	put(members, "StbGirders", put(el(), "StbGirder", el(
		"id", "21", "id_node_start", "1", "id_node_end", "2", "id_section", "201",
		"kind_structure", "S", "condition_start", "FIX", "condition_end", "FIX",
		"joint_start", "250", "kind_joint_start", "FIXED", "joint_id_start", "7",
		"guid", "0123456789abcdef0123456789abcdef")))
	put(members, "StbSlabs", put(el(), "StbSlab",
		put(el("id", "31", "id_section", "301", "kind_structure", "RC"),
			"StbOpenIdList", put(el(), "StbOpenId", el("id", "41")))))
	put(members, "StbWalls", put(el(), "StbWall", el("id", "32", "id_section", "302", "thickness", "200")))
	put(model, "StbMembers", members)
	put(model, "StbOpens", put(el(), "StbOpen", el("id", "41", "length_X", "900", "length_Y", "900")))

	sections := el()
	colRC := el("id", "101", "name", "C1", "strength_concrete", "Fc24")
	put(colRC, "StbSecFigure", put(el(), "StbSecColumn_RC_Rect", el("width_X", "600", "width_Y", "600")))
	put(colRC, "StbSecBarArrangement", put(
		el("depth_cover_start_X", "50", "depth_cover_end_X", "50", "depth_cover_start_Y", "50", "depth_cover_end_Y", "50"),
		"StbSecBarColumn_RC_RectSame",
		el("D_main", "D25", "N_main_X_1st", "4", "N_main_Y_1st", "4", "D_band", "D13", "pitch_band", "100")))
	put(sections, "StbSecColumn_RC", colRC)

	beamS := el("id", "201", "name", "G1")
	put(beamS, "StbSecSteelBeam", put(el(), "StbSecSteelBeam_S_Straight",
		el("shape", "H-600x200x11x17", "strength_main", "SN490B")))
	put(sections, "StbSecBeam_S", beamS)

	slab := el("id", "301", "name", "S1")
	put(slab, "StbSecFigure", put(el(), "StbSecSlab_RC_Straight", el("depth", "200")))
	put(sections, "StbSecSlab_RC", slab)

	colS := el("id", "102", "name", "C2", "base_type", "EXPOSE")
	put(colS, "StbSecBaseConventional_S", put(
		put(el("height_mortar", "50"), "StbSecBaseConventional_S_Plate", el("t", "36")),
		"StbSecBaseConventional_S_AnchorBolt", el("D", "24")))
	put(sections, "StbSecColumn_S", colS)

	put(sections, "StbSecSteel", put(el(), "StbSecRoll-H",
		el("name", "H-600x200x11x17", "A", "600", "B", "200", "t1", "11", "t2", "17", "r", "13")))
	put(model, "StbSections", sections)

	return tree.NewDocument(root)
}

func TestRoundTrip(t *testing.T) {
	doc := legacyDocument()

	fwd, err := ConvertForward(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertForward() error = %v", err)
	}
	rev, err := ConvertReverse(fwd.Document, DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertReverse() error = %v", err)
	}
	if !rev.Document.Equal(doc) {
		t.Error("reverse(forward(doc)) differs from doc")
	}
	if fwd.Report.HasWarnings() {
		t.Errorf("forward warnings: %v", fwd.Report.Messages(report.LevelWarning))
	}
}

func TestForwardShape(t *testing.T) {
	res, err := ConvertForward(legacyDocument(), DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertForward() error = %v", err)
	}
	doc := res.Document
	if v, _ := doc.Version(); v != "2.1.0" {
		t.Errorf("version = %q, want 2.1.0", v)
	}
	col := doc.NavigateFirst("StbModel", "StbMembers", "StbColumns", "StbColumn")
	for _, a := range []string{"joint_top", "kind_joint_top", "joint_id_top", "condition_top", "condition_bottom"} {
		if col.HasAttr(a) {
			t.Errorf("column still has %s", a)
		}
	}
	if col.Attr("isFoundation") != "false" {
		t.Errorf("isFoundation = %q", col.Attr("isFoundation"))
	}
	arrs := doc.Navigate("StbModel", "StbJointArrangements", "StbJointArrangement")
	if len(arrs) != 2 {
		t.Fatalf("len(arrangements) = %d, want 2", len(arrs))
	}
	if arrs[0].Attr("id") != "101" || arrs[1].Attr("id") != "7" {
		t.Errorf("arrangement ids = %s, %s", arrs[0].Attr("id"), arrs[1].Attr("id"))
	}
	girder := doc.NavigateFirst("StbModel", "StbMembers", "StbGirders", "StbGirder")
	if girder.Attr("type_haunch_H") != "NONE" {
		t.Errorf("type_haunch_H = %q, want NONE", girder.Attr("type_haunch_H"))
	}
	if doc.NavigateFirst("StbModel", "StbMembers", "StbOpens", "StbOpen").Attr("id_member") != "31" {
		t.Error("opening not stamped with its slab")
	}
	if doc.NavigateFirst("StbModel", "StbSections", "StbSecSlab_RC", "StbSecSlab_RC_Conventional") == nil {
		t.Error("slab section not wrapped")
	}
	if doc.NavigateFirst("StbModel", "StbSections", "StbSecColumn_S", "StbSecBaseColumn_S") == nil {
		t.Error("base plate not wrapped")
	}
	if res.Report.ConversionID == "" {
		t.Error("missing conversion id")
	}
}

func TestNoAliasing(t *testing.T) {
	doc := legacyDocument()
	snapshot := doc.Clone()

	res, err := ConvertForward(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertForward() error = %v", err)
	}

	inInput := map[*tree.Node]bool{}
	tree.Walk(doc.Root(), func(_ string, n *tree.Node) bool {
		inInput[n] = true
		return true
	})
	tree.Walk(res.Document.Root(), func(_ string, n *tree.Node) bool {
		if inInput[n] {
			t.Error("output shares a node with the input")
		}
		n.SetAttr("mutated", "yes")
		return true
	})
	res.Document.Model().AppendChild("Extra", tree.NewNode())

	if !doc.Equal(snapshot) {
		t.Error("mutating the output changed the input")
	}
}

func TestWithoutPreserveMutatesInput(t *testing.T) {
	doc := legacyDocument()
	opts := DefaultOptions()
	opts.PreserveOriginal = false
	res, err := ConvertForward(doc, opts)
	if err != nil {
		t.Fatalf("ConvertForward() error = %v", err)
	}
	if res.Document.Root() != doc.Root() {
		t.Error("PreserveOriginal=false should convert in place")
	}
}

func multiSegmentDocument(beams int) *tree.Document {
	root := el("version", "2.1.0")
	sections := el()
	for i := 1; i <= beams; i++ {
		fig := el()
		put(fig, "StbSecSteelBeam_S_Taper",
			el("order", "1", "start_shape", "H-A", "end_shape", "H-B", "strength_main", "SN400B"),
			el("order", "4", "start_shape", "H-B", "end_shape", "H-A", "strength_main", "SN400B"))
		put(fig, "StbSecSteelBeam_S_Straight",
			el("order", "2", "shape", "H-B", "strength_main", "SN400B"),
			el("order", "3", "shape", "H-B", "strength_main", "SN400B"))
		put(sections, "StbSecBeam_S", put(el("id", fmt.Sprint(i)), "StbSecSteelFigureBeam_S", fig))
	}
	put(root, "StbModel", put(el(), "StbSections", sections))
	return tree.NewDocument(root)
}

func TestLossyReverseTally(t *testing.T) {
	res, err := ConvertReverse(multiSegmentDocument(3), DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertReverse() error = %v", err)
	}
	if got := res.Report.DataLoss.MultiSectionBeams; got != 3 {
		t.Errorf("DataLoss.MultiSectionBeams = %d, want 3", got)
	}
	if res.Report.PreScan == nil || res.Report.PreScan.MultiSectionBeams != 3 {
		t.Errorf("PreScan = %+v, want 3 multi-section beams", res.Report.PreScan)
	}
	for _, sec := range res.Document.Navigate("StbModel", "StbSections", "StbSecBeam_S") {
		fig := sec.First("StbSecSteelBeam")
		if fig == nil {
			t.Fatalf("section %s children = %v", sec.Attr("id"), sec.ChildTags())
		}
		if tags := fig.ChildTags(); !reflect.DeepEqual(tags, []string{"StbSecSteelBeam_S_FiveTypes"}) {
			t.Errorf("section %s figure children = %v", sec.Attr("id"), tags)
		}
		for _, part := range fig.Children("StbSecSteelBeam_S_FiveTypes") {
			if !part.HasAttr("pos") || part.HasAttr("order") {
				t.Errorf("part %v is not position-enumerated", part.Attrs())
			}
		}
	}
}

func TestReverseWithoutPreScan(t *testing.T) {
	opts := DefaultOptions()
	opts.WarnDataLoss = false
	res, err := ConvertReverse(multiSegmentDocument(1), opts)
	if err != nil {
		t.Fatalf("ConvertReverse() error = %v", err)
	}
	if res.Report.PreScan != nil {
		t.Error("PreScan should be nil when WarnDataLoss is false")
	}
	if res.Report.DataLoss.MultiSectionBeams != 1 {
		t.Error("rules should still tally data loss")
	}
}

func TestVersionMismatchWarns(t *testing.T) {
	doc := legacyDocument()
	doc.Root().SetAttr("version", "2.1.0")

	res, err := ConvertForward(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertForward() error = %v", err)
	}
	found := false
	for _, m := range res.Report.Messages(report.LevelWarning) {
		if strings.Contains(m, "does not match") {
			found = true
		}
	}
	if !found {
		t.Errorf("want a version mismatch warning, got %v", res.Report.Messages(report.LevelWarning))
	}

	opts := DefaultOptions()
	opts.SkipValidation = true
	res, err = ConvertForward(doc, opts)
	if err != nil {
		t.Fatalf("ConvertForward() error = %v", err)
	}
	if res.Report.HasWarnings() {
		t.Errorf("SkipValidation should suppress the check: %v", res.Report.Messages(report.LevelWarning))
	}
}

func TestMalformedInput(t *testing.T) {
	for name, doc := range map[string]*tree.Document{
		"nil":     nil,
		"no root": tree.NewDocument(nil),
		"wrong root": tree.NewDocumentWithTag("Other", el()),
	} {
		t.Run(name, func(t *testing.T) {
			res, err := ConvertForward(doc, DefaultOptions())
			if res != nil {
				t.Error("malformed input returned a result")
			}
			if !errors.Is(err, errors.ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestAlternateRootSpelling(t *testing.T) {
	legacy := legacyDocument()
	doc := tree.NewDocumentWithTag(tree.AltRootTag, legacy.Root())

	res, err := ConvertForward(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertForward() error = %v", err)
	}
	if res.Document.RootTag() != tree.RootTag {
		t.Errorf("RootTag() = %q, want %q", res.Document.RootTag(), tree.RootTag)
	}
	if doc.RootTag() != tree.AltRootTag {
		t.Error("input root tag was rewritten")
	}
}

func TestRunPassRecoversPanic(t *testing.T) {
	err := runPass(func(*rules.Context) error { panic("boom") }, nil)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("runPass() error = %v", err)
	}
	rerr := errors.NewRule("type99-test", "forward", err)
	if !errors.Is(rerr, errors.ErrConversion) {
		t.Error("RuleError should unwrap to ErrConversion")
	}
}

func TestPipelines(t *testing.T) {
	fwd := ForwardPipeline()
	rev := ReversePipeline()
	if len(fwd) != 12 || len(rev) != 12 {
		t.Fatalf("pipeline lengths = %d, %d", len(fwd), len(rev))
	}
	index := func(list []string, name string) int {
		for i, n := range list {
			if n == name {
				return i
			}
		}
		t.Fatalf("%s missing", name)
		return -1
	}
	if index(fwd, "type07-joints") > index(fwd, "type03-attributes") {
		t.Error("forward: joints must run before attributes")
	}
	if index(fwd, "type02-rename") > index(fwd, "type04-multi-section") {
		t.Error("forward: rename must run before multi-section")
	}
	if fwd[len(fwd)-1] != "type03-attributes" {
		t.Errorf("forward last = %s", fwd[len(fwd)-1])
	}
	if rev[len(rev)-1] != "type02-rename" {
		t.Errorf("reverse last = %s", rev[len(rev)-1])
	}
	if index(rev, "type06-conditions") > index(rev, "type08-bar-wrappers") {
		t.Error("reverse: conditions must run before bar wrappers")
	}
	if index(rev, "type03-attributes") > index(rev, "type07-joints") {
		t.Error("reverse: attributes must run before joints")
	}
}

func TestConverterIDFunc(t *testing.T) {
	c := New(WithIDFunc(func() string { return "fixed" }))
	res, err := c.Forward(legacyDocument(), DefaultOptions())
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if res.Report.ConversionID != "fixed" {
		t.Errorf("ConversionID = %q", res.Report.ConversionID)
	}
}

func TestScanDataLossDoesNotMutate(t *testing.T) {
	doc := multiSegmentDocument(2)
	before := doc.Clone()
	if got := ScanDataLoss(doc).MultiSectionBeams; got != 2 {
		t.Errorf("ScanDataLoss() = %d, want 2", got)
	}
	if !doc.Equal(before) {
		t.Error("ScanDataLoss mutated the document")
	}
}

func TestForwardFoldedSRCHaunch(t *testing.T) {
	doc := legacyDocument()
	src := el("id", "202", "name", "G2")
	put(src, "StbSecFigure", put(el(), "StbSecBeam_SRC_Haunch",
		el("pos", "START", "width", "500", "depth", "900"),
		el("pos", "CENTER", "width", "500", "depth", "800"),
		el("pos", "END", "width", "500", "depth", "900")))
	put(doc.NavigateFirst("StbModel", "StbSections"), "StbSecBeam_SRC", src)
	put(doc.NavigateFirst("StbModel", "StbMembers", "StbGirders"), "StbGirder", el(
		"id", "22", "id_node_start", "1", "id_node_end", "2", "id_section", "202", "kind_structure", "SRC"))

	res, err := ConvertForward(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertForward() error = %v", err)
	}
	fig := res.Document.NavigateFirst("StbModel", "StbSections", "StbSecBeam_SRC", "StbSecFigureBeam_SRC")
	if fig == nil || fig.HasChildren("StbSecBeam_SRC_Haunch") || len(fig.Children("StbSecBeam_SRC_Straight")) != 1 {
		t.Fatal("SRC haunch figure not folded into one straight entry")
	}
	for _, g := range res.Document.Navigate("StbModel", "StbMembers", "StbGirders", "StbGirder") {
		want := "NONE"
		if g.Attr("id") == "22" {
			want = "BOTH"
		}
		if got := g.Attr("type_haunch_H"); got != want {
			t.Errorf("girder %s type_haunch_H = %q, want %q", g.Attr("id"), got, want)
		}
	}
}

func TestForwardWarnsDroppedConditions(t *testing.T) {
	doc := legacyDocument()
	g := doc.NavigateFirst("StbModel", "StbMembers", "StbGirders", "StbGirder")
	g.SetAttr("condition_start", "PIN")
	g.SetAttr("condition_end", "PIN")

	fwd, err := ConvertForward(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertForward() error = %v", err)
	}
	warned := 0
	for _, m := range fwd.Report.Messages(report.LevelWarning) {
		if strings.Contains(m, "StbGirder 21") && strings.Contains(m, "condition_start=PIN") {
			warned++
		}
	}
	if warned != 1 {
		t.Errorf("want one dropped-condition warning for girder 21, got %v", fwd.Report.Messages(report.LevelWarning))
	}

	rev, err := ConvertReverse(fwd.Document, DefaultOptions())
	if err != nil {
		t.Fatalf("ConvertReverse() error = %v", err)
	}
	back := rev.Document.NavigateFirst("StbModel", "StbMembers", "StbGirders", "StbGirder")
	if got := back.Attr("condition_start"); got != "FIX" {
		t.Errorf("condition_start after round trip = %q, want FIX", got)
	}
}
