// Package tables holds the static configuration the conversion rules are
// driven by: element paths, the rename master table and the per-kind
// attribute removal/addition tables.
package tables

// Element paths, relative to the document root. The last segment names the
// sequence a rule iterates; every earlier segment is followed through its
// first child.
var (
	PathCommon   = []string{"StbCommon"}
	PathModel    = []string{"StbModel"}
	PathSections = []string{"StbModel", "StbSections"}
	PathMembers  = []string{"StbModel", "StbMembers"}

	PathNodes   = []string{"StbModel", "StbNodes", "StbNode"}
	PathStories = []string{"StbModel", "StbStories", "StbStory"}

	PathColumns = []string{"StbModel", "StbMembers", "StbColumns", "StbColumn"}
	PathPosts   = []string{"StbModel", "StbMembers", "StbPosts", "StbPost"}
	PathGirders = []string{"StbModel", "StbMembers", "StbGirders", "StbGirder"}
	PathBeams   = []string{"StbModel", "StbMembers", "StbBeams", "StbBeam"}
	PathBraces  = []string{"StbModel", "StbMembers", "StbBraces", "StbBrace"}
	PathSlabs   = []string{"StbModel", "StbMembers", "StbSlabs", "StbSlab"}
	PathWalls   = []string{"StbModel", "StbMembers", "StbWalls", "StbWall"}

	// Openings live directly under StbModel in 2.0.2 and under StbMembers in 2.1.0.
	PathOpensLegacy  = []string{"StbModel", "StbOpens", "StbOpen"}
	PathOpensCurrent = []string{"StbModel", "StbMembers", "StbOpens", "StbOpen"}

	PathJointArrangements = []string{"StbModel", "StbJointArrangements", "StbJointArrangement"}

	PathSteelShapes = []string{"StbModel", "StbSections", "StbSecSteel"}

	// Legacy and current apply-condition lists under StbCommon.
	PathStrengthLegacy  = []string{"StbCommon", "StbReinforcement_Strength_List", "StbReinforcement_Strength"}
	PathStrengthCurrent = []string{"StbCommon", "StbApplyConditionsList", "StbReinforcementStrengthList", "StbReinforcementStrength"}
	PathPileStrength    = []string{"StbCommon", "StbApplyConditionsList", "StbPileReinforcementStrengthList"}
)

// Section collections under StbSections.
const (
	SecColumnRC  = "StbSecColumn_RC"
	SecColumnS   = "StbSecColumn_S"
	SecColumnSRC = "StbSecColumn_SRC"
	SecColumnCFT = "StbSecColumn_CFT"
	SecBeamRC    = "StbSecBeam_RC"
	SecBeamS     = "StbSecBeam_S"
	SecBeamSRC   = "StbSecBeam_SRC"
	SecBraceS    = "StbSecBrace_S"
	SecSlabRC    = "StbSecSlab_RC"
	SecWallRC    = "StbSecWall_RC"
	SecPileRC    = "StbSecPile_RC"
	SecPileS     = "StbSecPile_S"
	SecPileProd  = "StbSecPileProduct"
)

// Path returns the path to a collection of kind's elements, or nil when the
// kind is not a known element.
func Path(kind string) []string {
	return kindPaths[kind]
}

// SectionPath returns the path of a section collection under StbSections.
func SectionPath(kind string) []string {
	return append(append([]string{}, PathSections...), kind)
}

// With returns path extended by more segments without aliasing path.
func With(path []string, more ...string) []string {
	out := make([]string, 0, len(path)+len(more))
	out = append(out, path...)
	return append(out, more...)
}

var kindPaths = map[string][]string{
	"StbNode":   PathNodes,
	"StbStory":  PathStories,
	"StbColumn": PathColumns,
	"StbPost":   PathPosts,
	"StbGirder": PathGirders,
	"StbBeam":   PathBeams,
	"StbBrace":  PathBraces,
	"StbSlab":   PathSlabs,
	"StbWall":   PathWalls,
}
