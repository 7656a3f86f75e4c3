package tables

import (
	"fmt"
	"sort"
)

// Renames maps, per parent scope, a child tag to its replacement.
// The zero value is an empty table.
type Renames struct {
	scopes map[string]map[string]string
}

// Lookup returns the replacement for tag under scope.
func (r Renames) Lookup(scope, tag string) (string, bool) {
	to, ok := r.scopes[scope][tag]
	return to, ok
}

// Scopes returns the scope names in sorted order.
func (r Renames) Scopes() []string {
	out := make([]string, 0, len(r.scopes))
	for s := range r.scopes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Pairs returns the (from, to) pairs of scope sorted by source tag.
func (r Renames) Pairs(scope string) [][2]string {
	m := r.scopes[scope]
	out := make([][2]string, 0, len(m))
	for from, to := range m {
		out = append(out, [2]string{from, to})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Len returns the number of pairs across all scopes.
func (r Renames) Len() int {
	n := 0
	for _, m := range r.scopes {
		n += len(m)
	}
	return n
}

// Invert builds the reverse table. Two sources mapping to the same target
// within one scope make the inversion ambiguous and are reported as an error.
func (r Renames) Invert() (Renames, error) {
	inv := Renames{scopes: make(map[string]map[string]string, len(r.scopes))}
	for _, scope := range r.Scopes() {
		m := make(map[string]string, len(r.scopes[scope]))
		for _, p := range r.Pairs(scope) {
			from, to := p[0], p[1]
			if prev, dup := m[to]; dup {
				return Renames{}, fmt.Errorf("rename table scope %s: %s and %s both map to %s", scope, prev, from, to)
			}
			m[to] = from
		}
		inv.scopes[scope] = m
	}
	return inv, nil
}

// NewRenames copies m into a table.
func NewRenames(m map[string]map[string]string) Renames {
	r := Renames{scopes: make(map[string]map[string]string, len(m))}
	for scope, pairs := range m {
		cp := make(map[string]string, len(pairs))
		for k, v := range pairs {
			cp[k] = v
		}
		r.scopes[scope] = cp
	}
	return r
}

// Section child renames, keyed by the section collection the children sit
// under. Legacy tag on the left.
var sectionRenames = NewRenames(map[string]map[string]string{
	SecColumnRC: {
		"StbSecFigure":         "StbSecFigureColumn_RC",
		"StbSecBarArrangement": "StbSecBarArrangementColumn_RC",
	},
	SecColumnS: {
		"StbSecSteelColumn": "StbSecSteelFigureColumn_S",
	},
	SecColumnSRC: {
		"StbSecFigure":         "StbSecFigureColumn_SRC",
		"StbSecSteelColumn":    "StbSecSteelFigureColumn_SRC",
		"StbSecBarArrangement": "StbSecBarArrangementColumn_SRC",
	},
	SecColumnCFT: {
		"StbSecSteelColumn": "StbSecSteelFigureColumn_CFT",
	},
	SecBeamRC: {
		"StbSecFigure":         "StbSecFigureBeam_RC",
		"StbSecBarArrangement": "StbSecBarArrangementBeam_RC",
	},
	SecBeamS: {
		"StbSecSteelBeam": "StbSecSteelFigureBeam_S",
	},
	SecBeamSRC: {
		"StbSecFigure":         "StbSecFigureBeam_SRC",
		"StbSecSteelBeam":      "StbSecSteelFigureBeam_SRC",
		"StbSecBarArrangement": "StbSecBarArrangementBeam_SRC",
	},
	SecBraceS: {
		"StbSecSteelBrace": "StbSecSteelFigureBrace_S",
	},
	SecSlabRC: {
		"StbSecFigure":         "StbSecFigureSlab_RC",
		"StbSecBarArrangement": "StbSecBarArrangementSlab_RC",
	},
	SecWallRC: {
		"StbSecFigure":         "StbSecFigureWall_RC",
		"StbSecBarArrangement": "StbSecBarArrangementWall_RC",
	},
	SecPileRC: {
		"StbSecFigure":         "StbSecFigurePile_RC",
		"StbSecBarArrangement": "StbSecBarArrangementPile_RC",
	},
})

// Slab figure children gain the Conventional infix in 2.1.0.
var slabFigureRenames = NewRenames(map[string]map[string]string{
	"StbSecFigureSlab_RC": {
		"StbSecSlab_RC_Straight": "StbSecSlab_RC_ConventionalStraight",
		"StbSecSlab_RC_Taper":    "StbSecSlab_RC_ConventionalTaper",
		"StbSecSlab_RC_Haunch":   "StbSecSlab_RC_ConventionalHaunch",
	},
})

// Precast pile products drop the underscore before the product kind.
var pileProductRenames = NewRenames(map[string]map[string]string{
	SecPileProd: {
		"StbSecPileProduct_PHC":         "StbSecPileProductPHC",
		"StbSecPileProduct_ST":          "StbSecPileProductST",
		"StbSecPileProduct_SC":          "StbSecPileProductSC",
		"StbSecPileProduct_PRC":         "StbSecPileProductPRC",
		"StbSecPileProduct_CPRC":        "StbSecPileProductCPRC",
		"StbSecPileProduct_Nodular_PHC": "StbSecPileProductNodularPHC",
	},
})

var (
	sectionRenamesRev     = mustInvert(sectionRenames)
	slabFigureRenamesRev  = mustInvert(slabFigureRenames)
	pileProductRenamesRev = mustInvert(pileProductRenames)
)

func mustInvert(r Renames) Renames {
	inv, err := r.Invert()
	if err != nil {
		panic(err)
	}
	return inv
}

// ForwardRenames returns the section child rename table, legacy to current.
func ForwardRenames() Renames { return sectionRenames }

// ReverseRenames returns the section child rename table, current to legacy.
func ReverseRenames() Renames { return sectionRenamesRev }

// SlabFigureRenames returns the slab figure child renames for one direction.
func SlabFigureRenames(forward bool) Renames {
	if forward {
		return slabFigureRenames
	}
	return slabFigureRenamesRev
}

// PileProductRenames returns the precast pile product renames for one direction.
func PileProductRenames(forward bool) Renames {
	if forward {
		return pileProductRenames
	}
	return pileProductRenamesRev
}
